package httpapi

import (
	"net/http"
	"strings"

	"juzbuild-api/internal/repository"
	"juzbuild-api/internal/service"

	"go.uber.org/zap"
)

// WebsitesHandler proxies per-website build status from the site builder.
// Ownership is checked before the status call goes out.
type WebsitesHandler struct {
	websites repository.WebsitesRepo
	builder  *service.BuilderClient
	logger   *zap.Logger
}

func NewWebsitesHandler(websites repository.WebsitesRepo, builder *service.BuilderClient, logger *zap.Logger) *WebsitesHandler {
	return &WebsitesHandler{websites: websites, builder: builder, logger: logger}
}

func (h *WebsitesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/websites"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) == 2 && parts[1] == "status" && parts[0] != "" {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.Status(w, r, parts[0])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
}

func (h *WebsitesHandler) Status(w http.ResponseWriter, r *http.Request, websiteID string) {
	userID := UserIDFrom(r.Context())

	if _, err := h.websites.GetOwned(r.Context(), websiteID, userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	status, err := h.builder.JobStatus(r.Context(), websiteID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(status)
}
