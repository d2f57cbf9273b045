// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/okian/stylist/internal/domain/model"
	"github.com/okian/stylist/internal/domain/stats"
)

const (
	maxBodyBytes    = 1 << 20
	defaultTopLimit = 10
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreOutfit(ctx context.Context, items []model.ItemFeature) (model.CompatibilityResult, error)
	ScoreBatch(ctx context.Context, outfits []model.OutfitFeatures) ([]model.BatchResult, error)

	// SubmitScoreJob queues an outfit for scoring into the owner's ranking.
	SubmitScoreJob(ctx context.Context, job model.ScoreJob) (model.Submission, error)

	TopOutfits(ctx context.Context, userID string, n int) ([]model.RankedOutfit, error)
	OutfitRank(ctx context.Context, userID, outfitID string) (model.RankedOutfit, error)

	MatchOccasion(ctx context.Context, userID string, q model.OccasionQuery, limit int) ([]model.OutfitCandidate, error)
	Recommend(ctx context.Context, userID string, limit int, profile model.Profile) (model.Suggestions, error)

	Summary(ctx context.Context, userID string) (stats.Summary, error)
	CategoryUsage(ctx context.Context, userID string) ([]stats.CategoryUsage, error)
	WearFrequency(ctx context.Context, userID string) ([]stats.ItemWearFrequency, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps  Dependencies
	stats StatsProvider

	maxLimit       int
	recommendLimit int
	auth           *Authenticator
	limiter        *RateLimiter
}

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit caps the limit accepted by GET /v1/outfits/top.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRecommendLimit sets the limit used when the request names none.
func WithRecommendLimit(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.recommendLimit = n
		}
	}
}

// WithAuthenticator protects per-user routes with bearer tokens. Without
// one the user is taken from the X-User-ID header.
func WithAuthenticator(a *Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

// WithRateLimiter throttles /v1 routes per client.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		stats:          statsProvider,
		maxLimit:       100,
		recommendLimit: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(handleHealth, "healthz"))
	mux.Handle("GET /metrics", metricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.handleStats, "stats"))

	mux.HandleFunc("POST /v1/compatibility", s.route("compatibility", s.handleScore, false))
	mux.HandleFunc("POST /v1/compatibility/batch", s.route("compatibility_batch", s.handleScoreBatch, false))

	mux.HandleFunc("POST /v1/outfits/{id}/score", s.route("outfit_score", s.handleSubmitScore, true))
	mux.HandleFunc("GET /v1/outfits/top", s.route("outfits_top", s.handleTopOutfits, true))
	mux.HandleFunc("GET /v1/outfits/{id}/rank", s.route("outfit_rank", s.handleOutfitRank, true))

	mux.HandleFunc("POST /v1/occasions/match", s.route("occasion_match", s.handleMatchOccasion, true))
	mux.HandleFunc("GET /v1/recommendations/wardrobe", s.route("recommendations", s.handleRecommend, true))

	mux.HandleFunc("GET /v1/statistics/summary", s.route("statistics_summary", s.handleSummary, true))
	mux.HandleFunc("GET /v1/statistics/category-usage", s.route("statistics_category_usage", s.handleCategoryUsage, true))
	mux.HandleFunc("GET /v1/statistics/item-wear-frequency", s.route("statistics_wear_frequency", s.handleWearFrequency, true))
}

// route applies the middleware chain: metrics, rate limit, then auth.
func (s *Server) route(endpoint string, h http.HandlerFunc, authed bool) http.HandlerFunc {
	if authed {
		h = s.requireUser(h)
	}
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	return MetricsMiddleware(h, endpoint)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before committing the status, so an unencodable value
// becomes a 500 with an error body instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched
// when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode body: %w", ErrBadRequest, err)
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}
