package stats

import (
	"testing"

	"github.com/okian/stylist/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func wardrobe() model.WardrobeSnapshot {
	return model.WardrobeSnapshot{Items: []model.WardrobeItem{
		{ID: "1", Name: "tee", Category: "Tops", Season: "Summer", TimesWorn: 4, Favorite: true},
		{ID: "2", Name: "shirt", Category: "Tops", Season: "All", TimesWorn: 9},
		{ID: "3", Name: "jeans", Category: "Bottoms", TimesWorn: 9, Favorite: true},
		{ID: "4", Name: "boots", Category: "Shoes", Season: "Winter", TimesWorn: 0},
		{ID: "5", Name: "hat", TimesWorn: 2},
		{ID: "6", Name: "coat", Category: "Outerwear", Season: "Winter", TimesWorn: 1},
	}}
}

func names(items []model.WardrobeItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestSummarize(t *testing.T) {
	Convey("Given a wardrobe of six items", t, func() {
		s := Summarize(wardrobe(), 3)

		Convey("Then totals and breakdowns skip empty categories and seasons", func() {
			So(s.TotalItems, ShouldEqual, 6)
			So(s.TotalOutfits, ShouldEqual, 3)
			So(s.ItemsByCategory, ShouldResemble, map[string]int{"Tops": 2, "Bottoms": 1, "Shoes": 1, "Outerwear": 1})
			So(s.ItemsBySeason, ShouldResemble, map[string]int{"Summer": 1, "All": 1, "Winter": 2})
			So(s.FavoriteItemsCount, ShouldEqual, 2)
		})

		Convey("Then the worn lists hold five items each in wear order", func() {
			So(names(s.MostWornItems), ShouldResemble, []string{"shirt", "jeans", "tee", "hat", "coat"})
			So(names(s.LeastWornItems), ShouldResemble, []string{"boots", "coat", "hat", "tee", "shirt"})
		})
	})

	Convey("Given an empty wardrobe", t, func() {
		s := Summarize(model.WardrobeSnapshot{}, 0)
		So(s.TotalItems, ShouldEqual, 0)
		So(s.MostWornItems, ShouldBeEmpty)
		So(s.ItemsByCategory, ShouldNotBeNil)
	})
}

func TestUsage(t *testing.T) {
	Convey("Given a wardrobe with an uncategorized item", t, func() {
		got := Usage(wardrobe())

		Convey("Then percentages are of all items and rounded to two decimals", func() {
			So(got, ShouldResemble, []CategoryUsage{
				{Category: "Tops", ItemCount: 2, UsagePercentage: 33.33},
				{Category: "Bottoms", ItemCount: 1, UsagePercentage: 16.67},
				{Category: "Outerwear", ItemCount: 1, UsagePercentage: 16.67},
				{Category: "Shoes", ItemCount: 1, UsagePercentage: 16.67},
			})
		})
	})

	Convey("Given an empty wardrobe", t, func() {
		got := Usage(model.WardrobeSnapshot{})
		So(got, ShouldNotBeNil)
		So(got, ShouldBeEmpty)
	})
}

func TestWearFrequency(t *testing.T) {
	Convey("Given a wardrobe", t, func() {
		got := WearFrequency(wardrobe())

		Convey("Then items are listed most worn first with stable ties", func() {
			So(got, ShouldHaveLength, 6)
			So(got[0].Item.Name, ShouldEqual, "shirt")
			So(got[1].Item.Name, ShouldEqual, "jeans")
			So(got[0].WearCount, ShouldEqual, 9)
			So(got[5].Item.Name, ShouldEqual, "boots")
			So(got[5].WearCount, ShouldEqual, 0)
		})
	})
}
