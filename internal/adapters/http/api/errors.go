package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/stylist/internal/adapters/repository"
	"github.com/okian/stylist/internal/adapters/wardrobe"
	service "github.com/okian/stylist/internal/app"
	"github.com/okian/stylist/internal/domain/model"
	"github.com/okian/stylist/pkg/logger"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// statusFor maps an error from the service layer to a status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrFeatureFormat):
		return http.StatusBadRequest, "invalid_feature"
	case errors.Is(err, model.ErrDegenerateEmbedding):
		return http.StatusUnprocessableEntity, "degenerate_embedding"
	case errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, wardrobe.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, wardrobe.ErrUnavailable):
		return http.StatusServiceUnavailable, "source_unavailable"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_ready"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err using statusFor. Server errors are logged.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}
