package api

import "net/http"

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetStats())
}
