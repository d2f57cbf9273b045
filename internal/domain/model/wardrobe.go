package model

import "time"

// WardrobeItem is a garment owned by a user together with its usage data.
type WardrobeItem struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Category  string     `json:"category,omitempty"`
	Season    string     `json:"season,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	Favorite  bool       `json:"favorite"`
	TimesWorn int        `json:"times_worn"`
	DateAdded time.Time  `json:"date_added"`
	LastWorn  *time.Time `json:"last_worn,omitempty"`
	Embedding []float64  `json:"embedding,omitempty"`
	Colors    []string   `json:"colors,omitempty"`
}

// Feature projects the item onto the data the compatibility scorer reads.
func (w WardrobeItem) Feature() ItemFeature {
	return ItemFeature{ID: w.ID, Embedding: w.Embedding, Colors: w.Colors}
}

// WardrobeSnapshot is the ordered list of a user's items at one point in time.
type WardrobeSnapshot struct {
	UserID string         `json:"user_id,omitempty"`
	Items  []WardrobeItem `json:"items"`
}

// OutfitCandidate is a saved outfit considered by the occasion matcher.
type OutfitCandidate struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Tags    []string `json:"tags,omitempty"`
	ItemIDs []string `json:"item_ids,omitempty"`
}

// OccasionQuery is the free text describing an event to dress for.
type OccasionQuery struct {
	Name  string `json:"name" validate:"max=200"`
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

// Profile carries the user hints the acquisition rules look at.
type Profile struct {
	Username string `json:"username,omitempty"`
	Climate  string `json:"climate,omitempty"`
}

// Suggestions is the output of the wardrobe recommender.
type Suggestions struct {
	NewOutfitIdeas []string `json:"new_outfit_ideas"`
	ItemsToAcquire []string `json:"items_to_acquire"`
}
