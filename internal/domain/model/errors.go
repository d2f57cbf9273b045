package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds. The typed errors below match them through errors.Is.
var (
	ErrFeatureFormat       = errors.New("invalid feature format")
	ErrDegenerateEmbedding = errors.New("degenerate embedding")
)

// FeatureFormatError reports a malformed color or embedding.
type FeatureFormatError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FeatureFormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s: %s", ErrFeatureFormat, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s %q: %s", ErrFeatureFormat, e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrFeatureFormat) hold.
func (e *FeatureFormatError) Is(target error) bool { return target == ErrFeatureFormat }

// DegenerateEmbeddingError reports a zero-norm embedding. Index is the
// position in the estimator input; ItemID is filled in when known.
type DegenerateEmbeddingError struct {
	Index  int
	ItemID string
}

func (e *DegenerateEmbeddingError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("%s: item %s has a zero-norm vector", ErrDegenerateEmbedding, e.ItemID)
	}
	return fmt.Sprintf("%s: embedding %d has a zero-norm vector", ErrDegenerateEmbedding, e.Index)
}

// Is makes errors.Is(err, ErrDegenerateEmbedding) hold.
func (e *DegenerateEmbeddingError) Is(target error) bool { return target == ErrDegenerateEmbedding }
