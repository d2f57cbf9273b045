// Package model contains domain models passed between layers.
package model

import "time"

// ItemFeature is the precomputed feature data of one garment.
type ItemFeature struct {
	ID        string    `json:"id" validate:"required"`
	Embedding []float64 `json:"embedding,omitempty" validate:"omitempty,min=1"`
	Colors    []string  `json:"colors,omitempty" validate:"omitempty,dive,hexcolor"`
}

// HasEmbedding reports whether the item carries a usable embedding.
func (f ItemFeature) HasEmbedding() bool { return len(f.Embedding) > 0 }

// CompatibilityResult is the outcome of scoring an outfit. All scores are
// in [0,1] and rounded to three decimals.
type CompatibilityResult struct {
	Score         float64 `json:"compatibility_score"`
	StyleCohesion float64 `json:"style_cohesion"`
	ColorHarmony  float64 `json:"color_harmony"`
	Message       string  `json:"message"`
}

// ScoreJob asks the worker pool to score an outfit and place it in the
// owner's ranking.
type ScoreJob struct {
	JobID       string        `json:"job_id"`
	UserID      string        `json:"user_id"`
	OutfitID    string        `json:"outfit_id"`
	Items       []ItemFeature `json:"items"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// RankedOutfit is one row of a user's compatibility ranking.
type RankedOutfit struct {
	Rank     int     `json:"rank"`
	OutfitID string  `json:"outfit_id"`
	Score    float64 `json:"score"`
}

// OutfitFeatures is one outfit of a batch scoring request.
type OutfitFeatures struct {
	ID    string        `json:"id" validate:"required"`
	Items []ItemFeature `json:"items" validate:"dive"`
}

// BatchResult pairs an outfit id with its compatibility result.
type BatchResult struct {
	ID string `json:"id"`
	CompatibilityResult
}

// Submission reports what happened to a submitted score job.
type Submission struct {
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
	Accepted  bool   `json:"accepted"`
}
