package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"juzbuild-api/internal/store"

	"go.uber.org/zap"
)

// SessionCookie is set by the auth subsystem on the dashboard domain.
const SessionCookie = "juzbuild_session"

type contextKey string

const identityKey contextKey = "identity"

// Identity is the session record the auth subsystem stores under
// "session:<token>". This service only reads it.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// UserIDFrom returns the authenticated user id, "" if the request skipped
// the auth middleware.
func UserIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id.UserID
	}
	return ""
}

// Auth resolves the opaque bearer/cookie token into an identity via the
// session store. Session issuance and expiry are the auth subsystem's
// concern; an unknown token is simply a 401 here.
func Auth(sessions store.KV, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "authentication required"})
				return
			}

			raw, err := sessions.Get(r.Context(), "session:"+token)
			if err != nil {
				if errors.Is(err, store.ErrMiss) {
					writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid or expired session"})
					return
				}
				logger.Error("session lookup failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
				return
			}

			var identity Identity
			if err := json.Unmarshal([]byte(raw), &identity); err != nil || identity.UserID == "" {
				logger.Warn("malformed session record", zap.Error(err))
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid or expired session"})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
