package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func newTestStore() *TreapStore {
	return NewTreapStore(WithPrioritySource(rand.NewPCG(1, 2)))
}

func TestTreapStore_BasicOperations(t *testing.T) {
	convey.Convey("Given an empty treap store", t, func() {
		ctx := context.Background()
		store := newTestStore()

		convey.So(store.Count(ctx, "ana"), convey.ShouldEqual, 0)

		convey.Convey("When an outfit is put", func() {
			updated, err := store.Put(ctx, "ana", "o1", 0.85)

			convey.Convey("Then it is ranked first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(updated, convey.ShouldBeTrue)
				convey.So(store.Count(ctx, "ana"), convey.ShouldEqual, 1)

				entry, err := store.Rank(ctx, "ana", "o1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(entry.Rank, convey.ShouldEqual, 1)
				convey.So(entry.Score, convey.ShouldEqual, 0.85)

				top, err := store.TopN(ctx, "ana", 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(top, convey.ShouldHaveLength, 1)
				convey.So(top[0].OutfitID, convey.ShouldEqual, "o1")
			})

			convey.Convey("Then other users do not see it", func() {
				convey.So(store.Count(ctx, "ben"), convey.ShouldEqual, 0)
				_, err := store.Rank(ctx, "ben", "o1")
				convey.So(errors.Is(err, ErrNotFound), convey.ShouldBeTrue)

				top, err := store.TopN(ctx, "ben", 3)
				convey.So(err, convey.ShouldBeNil)
				convey.So(top, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When a score is put twice", func() {
			_, _ = store.Put(ctx, "ana", "o1", 0.5)
			updated, err := store.Put(ctx, "ana", "o1", 0.5)

			convey.Convey("Then the second put reports no change", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(updated, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a score is replaced by a lower one", func() {
			_, _ = store.Put(ctx, "ana", "o1", 0.9)
			_, _ = store.Put(ctx, "ana", "o2", 0.7)
			updated, err := store.Put(ctx, "ana", "o1", 0.4)

			convey.Convey("Then the latest score wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(updated, convey.ShouldBeTrue)
				convey.So(store.Count(ctx, "ana"), convey.ShouldEqual, 2)

				entry, _ := store.Rank(ctx, "ana", "o1")
				convey.So(entry.Rank, convey.ShouldEqual, 2)
				convey.So(entry.Score, convey.ShouldEqual, 0.4)
			})
		})

		convey.Convey("When an outfit is removed", func() {
			_, _ = store.Put(ctx, "ana", "o1", 0.9)
			_, _ = store.Put(ctx, "ana", "o2", 0.7)
			err := store.Remove(ctx, "ana", "o1")

			convey.Convey("Then the rest move up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.Total(), convey.ShouldEqual, 1)
				entry, _ := store.Rank(ctx, "ana", "o2")
				convey.So(entry.Rank, convey.ShouldEqual, 1)
				convey.So(errors.Is(store.Remove(ctx, "ana", "o1"), ErrNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When TopN is asked for zero rows", func() {
			_, err := store.TopN(ctx, "ana", 0)
			convey.So(errors.Is(err, ErrInvalidLimit), convey.ShouldBeTrue)
		})
	})
}

func TestTreapStore_TiesAndOrdering(t *testing.T) {
	convey.Convey("Given outfits with tied scores", t, func() {
		ctx := context.Background()
		store := newTestStore()
		_, _ = store.Put(ctx, "ana", "c", 0.8)
		_, _ = store.Put(ctx, "ana", "a", 0.8)
		_, _ = store.Put(ctx, "ana", "d", 0.95)
		_, _ = store.Put(ctx, "ana", "b", 0.5)

		convey.Convey("Then TopN orders by score desc then id asc with competition ranks", func() {
			top, err := store.TopN(ctx, "ana", 10)
			convey.So(err, convey.ShouldBeNil)
			ids := make([]string, len(top))
			ranks := make([]int, len(top))
			for i, e := range top {
				ids[i] = e.OutfitID
				ranks[i] = e.Rank
			}
			convey.So(ids, convey.ShouldResemble, []string{"d", "a", "c", "b"})
			convey.So(ranks, convey.ShouldResemble, []int{1, 2, 2, 4})
		})

		convey.Convey("Then Rank agrees with TopN", func() {
			for id, want := range map[string]int{"d": 1, "a": 2, "c": 2, "b": 4} {
				entry, err := store.Rank(ctx, "ana", id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(entry.Rank, convey.ShouldEqual, want)
			}
		})

		convey.Convey("Then a truncated TopN keeps the same ranks", func() {
			top, _ := store.TopN(ctx, "ana", 2)
			convey.So(top, convey.ShouldHaveLength, 2)
			convey.So(top[1].OutfitID, convey.ShouldEqual, "a")
			convey.So(top[1].Rank, convey.ShouldEqual, 2)
		})
	})
}

func TestTreapStore_MatchesSortedReference(t *testing.T) {
	convey.Convey("Given many random puts and removals", t, func() {
		ctx := context.Background()
		store := newTestStore()
		rng := rand.New(rand.NewPCG(7, 11))
		want := make(map[string]float64)

		for i := range 2000 {
			id := fmt.Sprintf("o%03d", rng.IntN(300))
			if i%7 == 0 {
				if _, ok := want[id]; ok {
					convey.So(store.Remove(ctx, "u", id), convey.ShouldBeNil)
					delete(want, id)
				}
				continue
			}
			score := float64(rng.IntN(50)) / 50
			_, err := store.Put(ctx, "u", id, score)
			convey.So(err, convey.ShouldBeNil)
			want[id] = score
		}

		convey.Convey("Then the treap walk equals a sorted slice", func() {
			ids := make([]string, 0, len(want))
			for id := range want {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				if want[ids[i]] != want[ids[j]] {
					return want[ids[i]] > want[ids[j]]
				}
				return ids[i] < ids[j]
			})

			top, err := store.TopN(ctx, "u", len(ids)+10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(top, convey.ShouldHaveLength, len(ids))
			for i, e := range top {
				convey.So(e.OutfitID, convey.ShouldEqual, ids[i])
				higher := 0
				for _, other := range ids {
					if want[other] > want[e.OutfitID] {
						higher++
					}
				}
				convey.So(e.Rank, convey.ShouldEqual, higher+1)
				r, _ := store.Rank(ctx, "u", e.OutfitID)
				convey.So(r.Rank, convey.ShouldEqual, e.Rank)
			}
			convey.So(store.Count(ctx, "u"), convey.ShouldEqual, len(ids))
		})
	})
}

func TestTreapStore_Concurrency(t *testing.T) {
	convey.Convey("Given concurrent writers and readers", t, func() {
		ctx := context.Background()
		store := NewTreapStore()
		var wg sync.WaitGroup

		for w := range 8 {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				user := fmt.Sprintf("user-%d", w%2)
				for i := range 200 {
					_, _ = store.Put(ctx, user, fmt.Sprintf("o-%d-%d", w, i), float64(i%10)/10)
					_, _ = store.TopN(ctx, user, 5)
				}
			}(w)
		}
		wg.Wait()

		convey.Convey("Then every outfit is counted once", func() {
			convey.So(store.Count(ctx, "user-0")+store.Count(ctx, "user-1"), convey.ShouldEqual, 1600)
			convey.So(store.Total(), convey.ShouldEqual, 1600)
		})
	})
}

func TestFixedPoint(t *testing.T) {
	convey.Convey("Fixed point conversion round trips three decimal scores", t, func() {
		for _, s := range []float64{0, 0.001, 0.5, 0.898, 1} {
			convey.So(toFloat(toFixedPoint(s)), convey.ShouldEqual, s)
		}
	})
}
