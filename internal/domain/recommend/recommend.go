// Package recommend turns a wardrobe snapshot into outfit ideas and
// acquisition suggestions.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/stylist/internal/domain/model"
)

// Thresholds of the recommender.
const (
	// LeastWornThreshold: only items worn fewer times than this get a prompt.
	LeastWornThreshold = 3
	// MaxCategoryGapPrompts caps the category-gap prompts.
	MaxCategoryGapPrompts = 2
	// PairingMinItems: the pairing nudge needs strictly more items than this.
	PairingMinItems = 5
	// MaxAcquisitionSuggestions caps the items-to-acquire list.
	MaxAcquisitionSuggestions = 2
	// DefaultLimit is the limit used by callers that do not pick one.
	DefaultLimit = 5
)

// Category names the rules refer to.
const (
	CategoryTops        = "Tops"
	CategoryBottoms     = "Bottoms"
	CategoryShoes       = "Shoes"
	CategoryOuterwear   = "Outerwear"
	CategoryAccessories = "Accessories"
)

// PopularCategories is the reference set, in prompt order.
var PopularCategories = []string{ //nolint:gochecknoglobals // fixed reference list
	CategoryTops, CategoryBottoms, CategoryShoes, CategoryOuterwear, CategoryAccessories,
}

// Fixed texts.
const (
	leastWornFormat   = "Try creating a new outfit with '%s' (worn %d times)."
	categoryGapFormat = "Consider adding items to your '%s' category for more variety."
	PairingPrompt     = "Explore new combinations: try pairing a bright top with neutral bottoms from your wardrobe."
	AcquireTop        = "A versatile white t-shirt or a classic button-down shirt."
	AcquireOuterwear  = "A warm jacket or coat for colder weather."
)

// coldHints mark a profile as living somewhere cold.
var coldHints = []string{"cold", "winter"} //nolint:gochecknoglobals // fixed hint list

// Recommend builds suggestions for snapshot. A negative limit is treated as
// zero. Empty outputs are valid results. An empty wardrobe gets no outfit
// ideas at all, only the acquisition suggestions.
func Recommend(snapshot model.WardrobeSnapshot, limit int, profile model.Profile) model.Suggestions {
	if limit < 0 {
		limit = 0
	}
	present := categories(snapshot)

	ideas := make([]string, 0, limit+MaxCategoryGapPrompts+1)
	ideas = append(ideas, LeastWornPrompts(snapshot, limit)...)
	if len(snapshot.Items) > 0 {
		ideas = append(ideas, CategoryGapPrompts(present)...)
	}
	if len(snapshot.Items) > PairingMinItems {
		ideas = append(ideas, PairingPrompt)
	}
	if len(ideas) > limit {
		ideas = ideas[:limit]
	}

	return model.Suggestions{
		NewOutfitIdeas: ideas,
		ItemsToAcquire: Acquisitions(present, profile),
	}
}

// LeastWornPrompts orders items by wear count then by date added, takes the
// first limit and emits a prompt for those worn fewer than
// LeastWornThreshold times. The snapshot is not modified.
func LeastWornPrompts(snapshot model.WardrobeSnapshot, limit int) []string {
	items := make([]model.WardrobeItem, len(snapshot.Items))
	copy(items, snapshot.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].TimesWorn != items[j].TimesWorn {
			return items[i].TimesWorn < items[j].TimesWorn
		}
		return items[i].DateAdded.Before(items[j].DateAdded)
	})
	if limit < len(items) {
		items = items[:max(limit, 0)]
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.TimesWorn < LeastWornThreshold {
			out = append(out, fmt.Sprintf(leastWornFormat, it.Name, it.TimesWorn))
		}
	}
	return out
}

// CategoryGapPrompts emits one prompt per popular category missing from
// present, in PopularCategories order, capped at MaxCategoryGapPrompts.
func CategoryGapPrompts(present map[string]struct{}) []string {
	out := make([]string, 0, MaxCategoryGapPrompts)
	for _, c := range PopularCategories {
		if len(out) == MaxCategoryGapPrompts {
			break
		}
		if _, ok := present[c]; !ok {
			out = append(out, fmt.Sprintf(categoryGapFormat, c))
		}
	}
	return out
}

// Acquisitions suggests a top when none is owned and outerwear when none is
// owned and the profile points to cold weather.
func Acquisitions(present map[string]struct{}, profile model.Profile) []string {
	out := make([]string, 0, MaxAcquisitionSuggestions)
	if _, ok := present[CategoryTops]; !ok {
		out = append(out, AcquireTop)
	}
	if _, ok := present[CategoryOuterwear]; !ok && PrefersColdWeather(profile) {
		out = append(out, AcquireOuterwear)
	}
	if len(out) > MaxAcquisitionSuggestions {
		out = out[:MaxAcquisitionSuggestions]
	}
	return out
}

// PrefersColdWeather reports whether the username or climate mentions a cold hint.
func PrefersColdWeather(p model.Profile) bool {
	hay := strings.ToLower(p.Username + " " + p.Climate)
	for _, h := range coldHints {
		if strings.Contains(hay, h) {
			return true
		}
	}
	return false
}

func categories(snapshot model.WardrobeSnapshot) map[string]struct{} {
	out := make(map[string]struct{}, len(PopularCategories))
	for _, it := range snapshot.Items {
		if it.Category != "" {
			out[it.Category] = struct{}{}
		}
	}
	return out
}
