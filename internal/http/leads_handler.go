package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"
	"juzbuild-api/internal/service"

	"go.uber.org/zap"
)

// leadFilterKeys are the query params that become equality filters.
var leadFilterKeys = []string{"status", "source", "priority", "assignedTo", "propertyInterest"}

type LeadsHandler struct {
	leads    *service.LeadService
	resolver *repository.TenantResolver
	logger   *zap.Logger
}

func NewLeadsHandler(leads *service.LeadService, resolver *repository.TenantResolver, logger *zap.Logger) *LeadsHandler {
	return &LeadsHandler{leads: leads, resolver: resolver, logger: logger}
}

func (h *LeadsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/leads"), "/")
	switch {
	case rest == "":
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Create(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case strings.Contains(rest, "/"):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	default:
		switch r.Method {
		case http.MethodGet:
			h.Get(w, r, rest)
		case http.MethodPatch:
			h.Update(w, r, rest)
		case http.MethodDelete:
			h.Delete(w, r, rest)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	}
}

// resolveTenant applies the websiteId/domain hints plus the authenticated
// user; every operation goes through the same chain.
func (h *LeadsHandler) resolveTenant(r *http.Request) (domain.Tenant, string, error) {
	userID := UserIDFrom(r.Context())
	q := r.URL.Query()
	tenant, err := h.resolver.Resolve(r.Context(), q.Get("websiteId"), q.Get("domain"), userID)
	return tenant, userID, err
}

func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, _, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	filter := listFilterFromQuery(r, leadFilterKeys)
	items, total, err := h.leads.FindAll(r.Context(), tenant.PartitionName, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeList(w, items, total, filter.Page, filter.Limit)
}

func (h *LeadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, userID, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	body, err := readBody(r, 1<<20)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	var lead domain.Lead
	if err := json.Unmarshal(body, &lead); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	lead.UserID = userID
	lead.IPAddress = clientIP(r)
	lead.UserAgent = r.UserAgent()

	created, err := h.leads.Create(r.Context(), tenant.PartitionName, &lead)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *LeadsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	tenant, _, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	lead, err := h.leads.FindByID(r.Context(), tenant.PartitionName, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadsHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	tenant, _, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	body, err := readBody(r, 1<<20)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	updated, err := h.leads.Update(r.Context(), tenant.PartitionName, id, body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *LeadsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	tenant, _, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.leads.Delete(r.Context(), tenant.PartitionName, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
