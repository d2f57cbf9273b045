// Package wardrobe provides the sources the service reads wardrobe
// snapshots, saved outfits and item features from.
package wardrobe

import (
	"context"
	"errors"

	"github.com/okian/stylist/internal/domain/model"
)

// Sentinel kinds for source errors.
var (
	ErrNotFound    = errors.New("wardrobe entry not found")
	ErrUnavailable = errors.New("wardrobe source unavailable")
)

// Source reads one user's wardrobe. Unknown users have an empty wardrobe.
type Source interface {
	// Snapshot returns the user's items in the order they were added.
	Snapshot(ctx context.Context, userID string) (model.WardrobeSnapshot, error)

	// Outfits returns the user's saved outfits.
	Outfits(ctx context.Context, userID string) ([]model.OutfitCandidate, error)

	// Features returns scorer features for itemIDs in the order requested.
	// A missing item yields ErrNotFound.
	Features(ctx context.Context, userID string, itemIDs []string) ([]model.ItemFeature, error)
}
