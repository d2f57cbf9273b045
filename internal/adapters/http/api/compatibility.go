package api

import (
	"net/http"

	"github.com/okian/stylist/internal/domain/model"
)

// scoreRequest mirrors the OpenAPI schema for POST /v1/compatibility.
type scoreRequest struct {
	Items []model.ItemFeature `json:"items" validate:"max=50,dive"`
}

type batchRequest struct {
	Outfits []model.OutfitFeatures `json:"outfits" validate:"required,min=1,max=100,dive"`
}

type batchResponse struct {
	Results []model.BatchResult `json:"results"`
}

// handleScore handles POST /v1/compatibility.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var req scoreRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		fail(w, r, op, err)
		return
	}
	if err := validateRequest(req); err != nil {
		fail(w, r, op, err)
		return
	}
	res, err := s.deps.ScoreOutfit(r.Context(), req.Items)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleScoreBatch handles POST /v1/compatibility/batch.
func (s *Server) handleScoreBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_batch"
	var req batchRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		fail(w, r, op, err)
		return
	}
	if err := validateRequest(req); err != nil {
		fail(w, r, op, err)
		return
	}
	results, err := s.deps.ScoreBatch(r.Context(), req.Outfits)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}
