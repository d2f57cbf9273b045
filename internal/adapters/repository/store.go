// Package repository keeps per-user outfit rankings.
package repository

import (
	"context"

	"github.com/okian/stylist/internal/domain/model"
)

// Store provides read/write access to the ranking state. Every user owns an
// independent ranking; outfit ids only need to be unique within a user.
type Store interface {
	// Put records the latest score of an outfit, replacing any previous one.
	// Returns true when the stored value changed.
	Put(ctx context.Context, userID, outfitID string, score float64) (bool, error)

	// Rank returns the competition rank and score of an outfit.
	// Returns ErrNotFound if the outfit is unknown.
	Rank(ctx context.Context, userID, outfitID string) (model.RankedOutfit, error)

	// TopN returns up to n outfits ordered by score desc, then id asc.
	TopN(ctx context.Context, userID string, n int) ([]model.RankedOutfit, error)

	// Remove drops an outfit from its user's ranking.
	Remove(ctx context.Context, userID, outfitID string) error

	// Count returns the number of outfits ranked for a user.
	Count(ctx context.Context, userID string) int
}
