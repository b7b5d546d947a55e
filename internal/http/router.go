package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router uses the standard library http.ServeMux (no third-party routing
// dependency needed for this surface).
type Router struct {
	mux     *http.ServeMux
	logger  *zap.Logger
	metrics *APIMetrics
	auth    func(http.Handler) http.Handler
}

func NewRouter(logger *zap.Logger, metrics *APIMetrics, auth func(http.Handler) http.Handler) *Router {
	return &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		metrics: metrics,
		auth:    auth,
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// handleAPI registers an authenticated, instrumented resource at its base
// pattern and its subtree.
func (r *Router) handleAPI(pattern string, h http.Handler) {
	wrapped := r.metrics.Instrument(pattern, r.auth(h))
	r.mux.Handle(pattern, wrapped)
	r.mux.Handle(pattern+"/", wrapped)
}

// RegisterEntityRoutes wires the tenant-scoped CRUD surface.
func (r *Router) RegisterEntityRoutes(leads *LeadsHandler, properties *PropertiesHandler, types *PropertyTypesHandler, authors *AuthorsHandler) {
	r.handleAPI("/api/v1/leads", leads)
	r.handleAPI("/api/v1/properties", properties)
	r.handleAPI("/api/v1/property-types", types)
	r.handleAPI("/api/v1/authors", authors)
}

// RegisterWebsiteRoutes wires the builder status poll.
func (r *Router) RegisterWebsiteRoutes(h *WebsitesHandler) {
	r.handleAPI("/api/v1/websites", h)
}

// RegisterOpsRoutes wires health and metrics (unauthenticated).
func (r *Router) RegisterOpsRoutes() {
	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.mux.Handle("/metrics", promhttp.Handler())
}
