// Package scoring combines style cohesion and color harmony into a single
// outfit compatibility score.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/stylist/internal/domain/cohesion"
	"github.com/okian/stylist/internal/domain/harmony"
	"github.com/okian/stylist/internal/domain/model"
)

// Weights of the composite score. They are fixed design constants.
const (
	StyleWeight = 0.7
	ColorWeight = 0.3

	// MinItems is the smallest outfit that can be scored.
	MinItems = 2

	// roundingScale keeps three decimals.
	roundingScale = 1000
)

// Result messages.
const (
	MessageScored    = "compatibility calculated"
	MessageNotEnough = "not enough items to compare"
)

// ScoreOutfit scores items as one outfit.
//
// Outfits with fewer than MinItems items return a zero result with
// MessageNotEnough; that is a policy result, not an error. Items without an
// embedding are left out of the cohesion estimate. Colors of all items are
// pooled and deduplicated before the harmony estimate.
//
// Rounding to three decimals happens only here. The composite is computed
// from the rounded sub-scores so that Score always equals
// Round(StyleWeight*StyleCohesion + ColorWeight*ColorHarmony).
func ScoreOutfit(items []model.ItemFeature) (model.CompatibilityResult, error) {
	if len(items) < MinItems {
		return model.CompatibilityResult{Message: MessageNotEnough}, nil
	}

	embeddings := make([][]float64, 0, len(items))
	owners := make([]string, 0, len(items))
	var colors []string
	seen := make(map[string]struct{})
	for _, it := range items {
		if it.HasEmbedding() {
			embeddings = append(embeddings, it.Embedding)
			owners = append(owners, it.ID)
		}
		for _, c := range it.Colors {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			colors = append(colors, c)
		}
	}

	style, err := cohesion.Estimate(embeddings)
	if err != nil {
		var de *model.DegenerateEmbeddingError
		if errors.As(err, &de) && de.Index < len(owners) {
			de.ItemID = owners[de.Index]
		}
		return model.CompatibilityResult{}, fmt.Errorf("style cohesion: %w", err)
	}
	color, err := harmony.Estimate(colors)
	if err != nil {
		return model.CompatibilityResult{}, fmt.Errorf("color harmony: %w", err)
	}

	style, color = Round(style), Round(color)
	return model.CompatibilityResult{
		Score:         Round(Clamp(StyleWeight*style + ColorWeight*color)),
		StyleCohesion: style,
		ColorHarmony:  color,
		Message:       MessageScored,
	}, nil
}

// Scorer computes outfit compatibility, honoring ctx for cancellation.
type Scorer interface {
	Score(ctx context.Context, items []model.ItemFeature) (model.CompatibilityResult, error)
}

// CompatibilityScorer adapts ScoreOutfit to the Scorer interface used by
// the worker pool.
type CompatibilityScorer struct{}

// NewCompatibilityScorer returns the default Scorer.
func NewCompatibilityScorer() *CompatibilityScorer {
	return &CompatibilityScorer{}
}

// Score implements Scorer.
func (CompatibilityScorer) Score(ctx context.Context, items []model.ItemFeature) (model.CompatibilityResult, error) {
	if err := ctx.Err(); err != nil {
		return model.CompatibilityResult{}, fmt.Errorf("context cancelled: %w", err)
	}
	return ScoreOutfit(items)
}

// Clamp bounds v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Round keeps three decimals, rounding half away from zero.
func Round(v float64) float64 {
	return math.Round(v*roundingScale) / roundingScale
}
