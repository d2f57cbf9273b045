// Package stats aggregates wardrobe usage for the statistics endpoints.
package stats

import (
	"math"
	"sort"

	"github.com/okian/stylist/internal/domain/model"
)

// TopItems is the length of the most and least worn lists.
const TopItems = 5

// Summary is the wardrobe overview.
type Summary struct {
	TotalItems         int                  `json:"total_items"`
	TotalOutfits       int                  `json:"total_outfits"`
	ItemsByCategory    map[string]int       `json:"items_by_category"`
	ItemsBySeason      map[string]int       `json:"items_by_season"`
	MostWornItems      []model.WardrobeItem `json:"most_worn_items"`
	LeastWornItems     []model.WardrobeItem `json:"least_worn_items"`
	FavoriteItemsCount int                  `json:"favorite_items_count"`
}

// CategoryUsage is the share of the wardrobe held by one category.
type CategoryUsage struct {
	Category        string  `json:"category"`
	ItemCount       int     `json:"item_count"`
	UsagePercentage float64 `json:"usage_percentage"`
}

// ItemWearFrequency pairs an item with its wear count.
type ItemWearFrequency struct {
	Item      model.WardrobeItem `json:"item"`
	WearCount int                `json:"wear_count"`
}

// Summarize builds the overview of snapshot. Items without a category or
// season are left out of the respective breakdown.
func Summarize(snapshot model.WardrobeSnapshot, outfitCount int) Summary {
	s := Summary{
		TotalItems:      len(snapshot.Items),
		TotalOutfits:    outfitCount,
		ItemsByCategory: map[string]int{},
		ItemsBySeason:   map[string]int{},
	}
	for _, it := range snapshot.Items {
		if it.Category != "" {
			s.ItemsByCategory[it.Category]++
		}
		if it.Season != "" {
			s.ItemsBySeason[it.Season]++
		}
		if it.Favorite {
			s.FavoriteItemsCount++
		}
	}

	byWear := sortedByWear(snapshot.Items, true)
	s.MostWornItems = byWear[:min(TopItems, len(byWear))]
	asc := sortedByWear(snapshot.Items, false)
	s.LeastWornItems = asc[:min(TopItems, len(asc))]
	return s
}

// Usage returns per category counts and their percentage of all items,
// rounded to two decimals, largest first. Ties are ordered by name. An empty
// wardrobe yields an empty list.
func Usage(snapshot model.WardrobeSnapshot) []CategoryUsage {
	total := len(snapshot.Items)
	out := []CategoryUsage{}
	if total == 0 {
		return out
	}
	counts := map[string]int{}
	for _, it := range snapshot.Items {
		if it.Category != "" {
			counts[it.Category]++
		}
	}
	for c, n := range counts {
		out = append(out, CategoryUsage{
			Category:        c,
			ItemCount:       n,
			UsagePercentage: math.Round(float64(n)/float64(total)*100*100) / 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemCount != out[j].ItemCount {
			return out[i].ItemCount > out[j].ItemCount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WearFrequency lists every item with its wear count, most worn first.
// Items with equal counts keep snapshot order.
func WearFrequency(snapshot model.WardrobeSnapshot) []ItemWearFrequency {
	items := sortedByWear(snapshot.Items, true)
	out := make([]ItemWearFrequency, len(items))
	for i, it := range items {
		out[i] = ItemWearFrequency{Item: it, WearCount: it.TimesWorn}
	}
	return out
}

func sortedByWear(items []model.WardrobeItem, desc bool) []model.WardrobeItem {
	out := make([]model.WardrobeItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].TimesWorn > out[j].TimesWorn
		}
		return out[i].TimesWorn < out[j].TimesWorn
	})
	return out
}
