// Package occasion picks saved outfits that suit a described occasion.
//
// Eligibility is a keyword test against outfit names. Among eligible outfits
// the choice is a uniform random sample without replacement, drawn from an
// injected random source so callers can make it reproducible.
package occasion

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/stylist/internal/domain/model"
)

// DefaultLimit is used by Matcher when a non-positive default is configured.
const DefaultLimit = 3

// Keywords returns the lower-cased whitespace separated tokens of the
// occasion name and notes, deduplicated in first-seen order.
func Keywords(q model.OccasionQuery) []string {
	fields := strings.Fields(strings.ToLower(q.Name + " " + q.Notes))
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Eligible reports whether the candidate name contains any keyword,
// ignoring case. An empty keyword set makes every candidate eligible.
// Tags are not consulted.
func Eligible(c model.OutfitCandidate, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	name := strings.ToLower(c.Name)
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// Match returns at most limit eligible candidates chosen at random without
// replacement using rng. The result never aliases the input slice. A nil rng
// falls back to a time seeded source.
func Match(q model.OccasionQuery, candidates []model.OutfitCandidate, limit int, rng *rand.Rand) []model.OutfitCandidate {
	if limit <= 0 || len(candidates) == 0 {
		return []model.OutfitCandidate{}
	}
	keywords := Keywords(q)
	eligible := make([]model.OutfitCandidate, 0, len(candidates))
	for _, c := range candidates {
		if Eligible(c, keywords) {
			eligible = append(eligible, c)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // sampling, not security
	}
	n := min(limit, len(eligible))
	// partial Fisher-Yates: the first n slots become the sample
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(eligible)-i)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	return eligible[:n:n]
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithSeed makes the matcher draw from a source seeded with seed.
func WithSeed(seed int64) Option {
	return func(m *Matcher) {
		m.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible sampling
	}
}

// WithSource makes the matcher draw from src.
func WithSource(src rand.Source) Option {
	return func(m *Matcher) {
		if src != nil {
			m.rng = rand.New(src) //nolint:gosec // sampling, not security
		}
	}
}

// WithDefaultLimit sets the limit used when callers pass a non-positive one.
func WithDefaultLimit(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.defaultLimit = n
		}
	}
}

// Matcher owns a random source and serializes access to it so one
// instance can serve concurrent requests.
type Matcher struct {
	mu           sync.Mutex
	rng          *rand.Rand
	defaultLimit int
}

// NewMatcher creates a Matcher. Without WithSeed or WithSource it is seeded
// from the clock.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // sampling, not security
	}
	return m
}

// Match runs the package level Match with the matcher's source. A
// non-positive limit is replaced by the default limit.
func (m *Matcher) Match(q model.OccasionQuery, candidates []model.OutfitCandidate, limit int) []model.OutfitCandidate {
	if limit <= 0 {
		limit = m.defaultLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Match(q, candidates, limit, m.rng)
}
