package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/stylist/internal/domain/model"
)

func job(id string) model.ScoreJob {
	return model.ScoreJob{JobID: id, UserID: "u1", OutfitID: "o-" + id}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
	if !q.Enqueue(ctx, job("1")) || !q.Enqueue(ctx, job("2")) {
		t.Fatal("expected both enqueues to succeed")
	}
	if q.Enqueue(ctx, job("3")) {
		t.Error("expected enqueue to fail when the queue is full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}

	ch := q.Dequeue(ctx)
	for _, want := range []string{"1", "2"} {
		select {
		case got := <-ch:
			if got.JobID != want {
				t.Errorf("expected job %s, got %s", want, got.JobID)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for job %s", want)
		}
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()
	q.Enqueue(ctx, job("a"))

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, job("b")) {
		t.Error("expected enqueue on a closed queue to fail")
	}

	var drained []string
	for j := range q.Dequeue(ctx) {
		drained = append(drained, j.JobID)
	}
	if fmt.Sprint(drained) != "[a]" {
		t.Errorf("expected queued job to drain after close, got %v", drained)
	}
}

func TestInMemoryQueue_ContextCancellation(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, job("x")) {
		t.Error("expected enqueue with a cancelled context to fail")
	}

	q.Enqueue(context.Background(), job("y"))
	dctx, dcancel := context.WithCancel(context.Background())
	ch := q.Dequeue(dctx)
	dcancel()
	select {
	case _, ok := <-ch:
		// either the job raced through or the channel closed; both are fine,
		// but the channel must close eventually
		if ok {
			if _, ok := <-ch; ok {
				t.Error("expected dequeue channel to close after cancellation")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue channel did not close after cancellation")
	}
}
