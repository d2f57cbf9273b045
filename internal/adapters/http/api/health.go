package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/stylist/pkg/metrics"
)

type healthResponse struct {
	Status string `json:"status"`
}

// handleHealth handles GET /healthz.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// metricsHandler serves the custom registry on GET /metrics.
func metricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
