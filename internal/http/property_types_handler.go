package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"
	"juzbuild-api/internal/service"

	"go.uber.org/zap"
)

type PropertyTypesHandler struct {
	types    *service.PropertyTypeService
	resolver *repository.TenantResolver
	logger   *zap.Logger
}

func NewPropertyTypesHandler(types *service.PropertyTypeService, resolver *repository.TenantResolver, logger *zap.Logger) *PropertyTypesHandler {
	return &PropertyTypesHandler{types: types, resolver: resolver, logger: logger}
}

func (h *PropertyTypesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/property-types"), "/")
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

func (h *PropertyTypesHandler) resolveTenant(r *http.Request) (domain.Tenant, error) {
	q := r.URL.Query()
	tenant, err := h.resolver.Resolve(r.Context(), q.Get("websiteId"), q.Get("domain"), UserIDFrom(r.Context()))
	return tenant, err
}

// List returns the merged catalog: the shared types plus the tenant's own.
// Pass tenantOnly=true to skip the shared set.
func (h *PropertyTypesHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tenantOnly, _ := strconv.ParseBool(r.URL.Query().Get("tenantOnly"))
	var items []*domain.PropertyType
	if tenantOnly {
		filter := listFilterFromQuery(r, nil)
		filter.Limit = maxVisibleTypes
		filter.Page = 1
		items, _, err = h.types.FindAll(r.Context(), tenant.PartitionName, filter)
	} else {
		items, err = h.types.VisibleTo(r.Context(), tenant.PartitionName)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeList(w, items, len(items), 1, len(items))
}

// maxVisibleTypes bounds the flat (unpaginated) type listing.
const maxVisibleTypes = 100

func (h *PropertyTypesHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	body, err := readBody(r, 1<<20)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	var pt domain.PropertyType
	if err := json.Unmarshal(body, &pt); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	created, err := h.types.Create(r.Context(), tenant.PartitionName, &pt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get resolves ids from the merged catalog: the tenant's own types plus the
// shared defaults. Update and Delete stay tenant-scoped so shared types
// cannot be modified through a tenant request.
func (h *PropertyTypesHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	tenant, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	pt, err := h.types.FindVisibleByID(r.Context(), tenant.PartitionName, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pt)
}

func (h *PropertyTypesHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	tenant, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	body, err := readBody(r, 1<<20)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	updated, err := h.types.Update(r.Context(), tenant.PartitionName, id, body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PropertyTypesHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	tenant, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.types.Delete(r.Context(), tenant.PartitionName, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
