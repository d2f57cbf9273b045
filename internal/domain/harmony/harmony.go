// Package harmony estimates how well a set of dominant colors sit together.
//
// The estimate is a coarse variance heuristic: small palettes always get the
// baseline score and larger palettes are penalised when their channels spread
// widely. It is not a color theory model.
package harmony

import (
	"strconv"
	"strings"

	"github.com/okian/stylist/internal/domain/model"
)

// Scores and thresholds of the estimator.
const (
	// NeutralScore is returned when fewer than MinColors are given.
	NeutralScore = 1.0
	// BaselineScore is returned for palettes that are small or low-variance.
	BaselineScore = 0.8
	// PenalizedScore is returned for large palettes above VarianceThreshold.
	PenalizedScore = 0.6
	// VarianceThreshold is compared with the mean per-channel population variance.
	VarianceThreshold = 3000.0
	// MinColors is the smallest palette that is analysed at all.
	MinColors = 2
	// VarianceMinColors is the smallest unique palette the variance test applies to.
	VarianceMinColors = 4
)

// RGB is a color with channels in [0,255].
type RGB struct {
	R, G, B uint8
}

// ParseHex converts "#RRGGBB" into RGB. Digits are case-insensitive.
func ParseHex(s string) (RGB, error) {
	h, ok := strings.CutPrefix(s, "#")
	if !ok || len(h) != 6 {
		return RGB{}, &model.FeatureFormatError{Field: "color", Value: s, Reason: "expected #RRGGBB"}
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, &model.FeatureFormatError{Field: "color", Value: s, Reason: "non-hex digit"}
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Unique returns colors deduplicated by their parsed value, keeping first
// occurrence order, so "#FFFFFF" and "#ffffff" collapse into one entry.
func Unique(colors []string) ([]RGB, error) {
	seen := make(map[RGB]struct{}, len(colors))
	out := make([]RGB, 0, len(colors))
	for _, c := range colors {
		rgb, err := ParseHex(c)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[rgb]; ok {
			continue
		}
		seen[rgb] = struct{}{}
		out = append(out, rgb)
	}
	return out, nil
}

// Estimate returns the harmony score of colors in [0,1].
//
// Fewer than MinColors inputs score NeutralScore without being parsed.
// Otherwise every color must parse; a malformed one yields a
// *model.FeatureFormatError. A palette that collapses below MinColors
// after deduplication is also neutral.
func Estimate(colors []string) (float64, error) {
	if len(colors) < MinColors {
		return NeutralScore, nil
	}
	unique, err := Unique(colors)
	if err != nil {
		return 0, err
	}
	switch {
	case len(unique) < MinColors:
		return NeutralScore, nil
	case len(unique) < VarianceMinColors:
		return BaselineScore, nil
	case MeanChannelVariance(unique) > VarianceThreshold:
		return PenalizedScore, nil
	}
	return BaselineScore, nil
}

// MeanChannelVariance averages the population variance of R, G and B.
func MeanChannelVariance(colors []RGB) float64 {
	if len(colors) == 0 {
		return 0
	}
	n := float64(len(colors))
	var sum [3]float64
	for _, c := range colors {
		sum[0] += float64(c.R)
		sum[1] += float64(c.G)
		sum[2] += float64(c.B)
	}
	mean := [3]float64{sum[0] / n, sum[1] / n, sum[2] / n}
	var sq [3]float64
	for _, c := range colors {
		for i, v := range [3]float64{float64(c.R), float64(c.G), float64(c.B)} {
			d := v - mean[i]
			sq[i] += d * d
		}
	}
	return (sq[0]/n + sq[1]/n + sq[2]/n) / 3
}
