package api

import (
	"net/http"

	"github.com/okian/stylist/internal/domain/model"
)

type occasionRequest struct {
	Name  string `json:"name" validate:"max=200"`
	Notes string `json:"notes" validate:"max=2000"`
	Limit int    `json:"limit" validate:"gte=0,lte=100"`
}

// handleMatchOccasion handles POST /v1/occasions/match.
func (s *Server) handleMatchOccasion(w http.ResponseWriter, r *http.Request) {
	const op = "api.match_occasion"
	var req occasionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		fail(w, r, op, err)
		return
	}
	if err := validateRequest(req); err != nil {
		fail(w, r, op, err)
		return
	}
	q := model.OccasionQuery{Name: req.Name, Notes: req.Notes}
	picked, err := s.deps.MatchOccasion(r.Context(), UserID(r.Context()), q, req.Limit)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, picked)
}

// handleRecommend handles GET /v1/recommendations/wardrobe?limit=N&climate=.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend"
	limit, err := queryInt(r, "limit", s.recommendLimit)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	profile := model.Profile{Climate: r.URL.Query().Get("climate")}
	out, err := s.deps.Recommend(r.Context(), UserID(r.Context()), limit, profile)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSummary handles GET /v1/statistics/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Summary(r.Context(), UserID(r.Context()))
	if err != nil {
		fail(w, r, "api.summary", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCategoryUsage handles GET /v1/statistics/category-usage.
func (s *Server) handleCategoryUsage(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.CategoryUsage(r.Context(), UserID(r.Context()))
	if err != nil {
		fail(w, r, "api.category_usage", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleWearFrequency handles GET /v1/statistics/item-wear-frequency.
func (s *Server) handleWearFrequency(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.WearFrequency(r.Context(), UserID(r.Context()))
	if err != nil {
		fail(w, r, "api.wear_frequency", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
