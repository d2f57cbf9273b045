package occasion

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/okian/stylist/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func candidates() []model.OutfitCandidate {
	return []model.OutfitCandidate{
		{ID: "1", Name: "Office Monday"},
		{ID: "2", Name: "Wedding Guest Look", Tags: []string{"formal"}},
		{ID: "3", Name: "beach day"},
		{ID: "4", Name: "Summer Wedding"},
		{ID: "5", Name: "Gym", Tags: []string{"wedding"}},
		{ID: "6", Name: "Dinner date"},
	}
}

func ids(cs []model.OutfitCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestKeywords(t *testing.T) {
	Convey("Given an occasion query", t, func() {
		Convey("When name and notes share words", func() {
			got := Keywords(model.OccasionQuery{Name: "Summer  Wedding", Notes: "outdoor\twedding in SUMMER"})

			Convey("Then tokens are lower-cased, split on whitespace and deduplicated", func() {
				So(got, ShouldResemble, []string{"summer", "wedding", "outdoor", "in"})
			})
		})

		Convey("When both fields are blank", func() {
			So(Keywords(model.OccasionQuery{Name: "  ", Notes: ""}), ShouldBeEmpty)
		})
	})
}

func TestMatch(t *testing.T) {
	Convey("Given a set of saved outfits", t, func() {
		cs := candidates()

		Convey("When matching a wedding", func() {
			got := Match(model.OccasionQuery{Name: "Wedding"}, cs, 10, rand.New(rand.NewSource(1)))

			Convey("Then only outfits whose name contains the keyword are returned", func() {
				So(ids(got), ShouldHaveLength, 2)
				So(ids(got), ShouldContain, "2")
				So(ids(got), ShouldContain, "4")
			})

			Convey("And tags are not consulted", func() {
				So(ids(got), ShouldNotContain, "5")
			})
		})

		Convey("When the keyword set is empty", func() {
			got := Match(model.OccasionQuery{}, cs, 4, rand.New(rand.NewSource(1)))

			Convey("Then every candidate is eligible and the limit still applies", func() {
				So(got, ShouldHaveLength, 4)
				for _, c := range got {
					So(cs, ShouldContain, c)
				}
			})
		})

		Convey("When the keyword matches part of a word", func() {
			got := Match(model.OccasionQuery{Name: "BEA"}, cs, 3, rand.New(rand.NewSource(1)))
			So(ids(got), ShouldResemble, []string{"3"})
		})

		Convey("When nothing matches", func() {
			got := Match(model.OccasionQuery{Name: "funeral"}, cs, 3, rand.New(rand.NewSource(1)))
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("When there are no candidates and no keywords", func() {
			So(Match(model.OccasionQuery{}, nil, 3, nil), ShouldBeEmpty)
		})

		Convey("When the limit is not positive", func() {
			So(Match(model.OccasionQuery{}, cs, 0, nil), ShouldBeEmpty)
			So(Match(model.OccasionQuery{}, cs, -2, nil), ShouldBeEmpty)
		})

		Convey("When the same seed is used twice", func() {
			a := Match(model.OccasionQuery{}, cs, 3, rand.New(rand.NewSource(99)))
			b := Match(model.OccasionQuery{}, cs, 3, rand.New(rand.NewSource(99)))

			Convey("Then the sample is reproducible", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When sampling many times", func() {
			// Every pick must come from the input, at most once.
			r := rand.New(rand.NewSource(5))
			for i := 0; i < 200; i++ {
				got := Match(model.OccasionQuery{}, cs, 3, r)

				So(len(got), ShouldBeLessThanOrEqualTo, 3)
				seen := map[string]bool{}
				for _, c := range got {
					So(ids(cs), ShouldContain, c.ID)
					So(seen[c.ID], ShouldBeFalse)
					seen[c.ID] = true
				}
			}

			Convey("Then the input is left untouched", func() {
				So(cs, ShouldResemble, candidates())
			})
		})
	})
}

func TestMatcher(t *testing.T) {
	Convey("Given a seeded matcher", t, func() {
		m := NewMatcher(WithSeed(11), WithDefaultLimit(2))
		cs := candidates()

		Convey("When the caller passes no limit", func() {
			So(m.Match(model.OccasionQuery{}, cs, 0), ShouldHaveLength, 2)
		})

		Convey("When two matchers share a seed", func() {
			other := NewMatcher(WithSource(rand.NewSource(11)))
			So(ids(m.Match(model.OccasionQuery{}, cs, 3)), ShouldResemble, ids(other.Match(model.OccasionQuery{}, cs, 3)))
		})

		Convey("When used from many goroutines", func() {
			var wg sync.WaitGroup
			results := make([]int, 16)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i] = len(m.Match(model.OccasionQuery{Name: "wedding"}, cs, 5))
				}(i)
			}
			wg.Wait()

			Convey("Then every call returns the eligible pair", func() {
				for _, n := range results {
					So(n, ShouldEqual, 2)
				}
			})
		})

		Convey("When created without a seed", func() {
			So(NewMatcher().Match(model.OccasionQuery{}, cs, 1), ShouldHaveLength, 1)
		})
	})
}
