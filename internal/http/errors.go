package httpapi

import (
	"errors"
	"net/http"

	"juzbuild-api/internal/domain"

	"go.uber.org/zap"
)

// writeError maps the error taxonomy onto HTTP statuses. Anything outside
// the taxonomy is logged in full server-side and reported generically; the
// client never sees internals.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": verr.Messages(),
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "slug already in use"})
	case errors.Is(err, domain.ErrConfiguration):
		logger.Error("store unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": domain.ErrConfiguration.Error()})
	case errors.Is(err, domain.ErrTransient):
		logger.Warn("transient store conflict", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": domain.ErrTransient.Error()})
	default:
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": message})
}
