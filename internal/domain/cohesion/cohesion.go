// Package cohesion scores how stylistically consistent a set of garments is,
// using the mean pairwise cosine similarity of their image embeddings.
package cohesion

import (
	"math"
	"strconv"

	"github.com/okian/stylist/internal/domain/model"
)

const (
	// NeutralScore is returned when fewer than MinEmbeddings are given.
	NeutralScore = 0.5
	// MinEmbeddings is the smallest set that can be compared.
	MinEmbeddings = 2
)

// Estimate returns the mean pairwise cosine similarity of embeddings mapped
// from [-1,1] onto [0,1]. Every unordered pair is evaluated exactly once.
//
// An all-zero vector yields *model.DegenerateEmbeddingError. Vectors of
// different length, empty vectors, and NaN or Inf components yield
// *model.FeatureFormatError.
func Estimate(embeddings [][]float64) (float64, error) {
	if len(embeddings) < MinEmbeddings {
		return NeutralScore, nil
	}
	units, err := normalize(embeddings)
	if err != nil {
		return 0, err
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(units); i++ {
		for j := i + 1; j < len(units); j++ {
			sum += cosine(units[i], units[j])
			pairs++
		}
	}
	mean := sum / float64(pairs)
	return clamp((mean + 1) / 2), nil
}

// CosineSimilarity returns the cosine of the angle between a and b.
func CosineSimilarity(a, b []float64) (float64, error) {
	units, err := normalize([][]float64{a, b})
	if err != nil {
		return 0, err
	}
	return cosine(units[0], units[1]), nil
}

// normalize validates embeddings and returns unit-length copies. Each vector
// is first divided by its largest absolute component so squaring neither
// overflows for huge values nor underflows for tiny ones.
func normalize(embeddings [][]float64) ([][]float64, error) {
	dim := len(embeddings[0])
	units := make([][]float64, len(embeddings))
	for i, e := range embeddings {
		if len(e) == 0 {
			return nil, &model.FeatureFormatError{Field: "embedding", Value: strconv.Itoa(i), Reason: "empty vector"}
		}
		if len(e) != dim {
			return nil, &model.FeatureFormatError{
				Field:  "embedding",
				Value:  strconv.Itoa(i),
				Reason: "dimension " + strconv.Itoa(len(e)) + " does not match " + strconv.Itoa(dim),
			}
		}
		var peak float64
		for _, v := range e {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &model.FeatureFormatError{Field: "embedding", Value: strconv.Itoa(i), Reason: "non-finite component"}
			}
			peak = math.Max(peak, math.Abs(v))
		}
		// Only an all-zero vector has no direction.
		if peak == 0 {
			return nil, &model.DegenerateEmbeddingError{Index: i}
		}

		u := make([]float64, dim)
		var sq float64
		for k, v := range e {
			u[k] = v / peak
			sq += u[k] * u[k]
		}
		norm := math.Sqrt(sq)
		for k := range u {
			u[k] /= norm
		}
		units[i] = u
	}
	return units, nil
}

// cosine of two unit vectors, kept inside [-1,1] against rounding drift.
func cosine(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return math.Max(-1, math.Min(1, s))
}

// clamp bounds v to [0,1]; NaN maps to 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
