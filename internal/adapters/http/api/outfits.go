package api

import (
	"fmt"
	"net/http"

	"github.com/okian/stylist/internal/domain/model"
)

// submitRequest is the optional body of POST /v1/outfits/{id}/score. Without
// items the saved outfit is resolved from the wardrobe.
type submitRequest struct {
	JobID string              `json:"job_id" validate:"omitempty,max=128"`
	Items []model.ItemFeature `json:"items" validate:"max=50,dive"`
}

type ackResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

// handleSubmitScore handles POST /v1/outfits/{id}/score.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"
	outfitID := r.PathValue("id")
	var req submitRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		fail(w, r, op, err)
		return
	}
	if err := validateRequest(req); err != nil {
		fail(w, r, op, err)
		return
	}

	sub, err := s.deps.SubmitScoreJob(r.Context(), model.ScoreJob{
		JobID:    req.JobID,
		UserID:   UserID(r.Context()),
		OutfitID: outfitID,
		Items:    req.Items,
	})
	if err != nil {
		fail(w, r, op, err)
		return
	}
	if sub.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", JobID: sub.JobID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: sub.JobID})
}

// handleTopOutfits handles GET /v1/outfits/top?limit=N.
func (s *Server) handleTopOutfits(w http.ResponseWriter, r *http.Request) {
	const op = "api.top_outfits"
	n, err := queryInt(r, "limit", defaultTopLimit)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	if n < 1 {
		fail(w, r, op, fmt.Errorf("%w: limit must be positive", ErrBadRequest))
		return
	}
	if n > s.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			fmt.Errorf("%w: limit must not exceed %d", ErrBadRequest, s.maxLimit))
		return
	}
	entries, err := s.deps.TopOutfits(r.Context(), UserID(r.Context()), n)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleOutfitRank handles GET /v1/outfits/{id}/rank.
func (s *Server) handleOutfitRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.outfit_rank"
	entry, err := s.deps.OutfitRank(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
