package repository

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkTreapStore_Put(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore()
	ids := make([]string, 10_000)
	for i := range ids {
		ids[i] = fmt.Sprintf("outfit-%d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Put(ctx, "bench", ids[i%len(ids)], float64(i%1000)/1000)
	}
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore()
	for i := range 10_000 {
		_, _ = store.Put(ctx, "bench", fmt.Sprintf("outfit-%d", i), float64(i%1000)/1000)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Rank(ctx, "bench", fmt.Sprintf("outfit-%d", i%10_000))
	}
}

func BenchmarkTreapStore_TopN(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore()
	for i := range 10_000 {
		_, _ = store.Put(ctx, "bench", fmt.Sprintf("outfit-%d", i), float64(i%1000)/1000)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.TopN(ctx, "bench", 100)
	}
}
