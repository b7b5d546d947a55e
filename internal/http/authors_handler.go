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

type AuthorsHandler struct {
	authors  *service.AuthorService
	resolver *repository.TenantResolver
	logger   *zap.Logger
}

func NewAuthorsHandler(authors *service.AuthorService, resolver *repository.TenantResolver, logger *zap.Logger) *AuthorsHandler {
	return &AuthorsHandler{authors: authors, resolver: resolver, logger: logger}
}

func (h *AuthorsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/authors"), "/")
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

func (h *AuthorsHandler) resolveTenant(r *http.Request) (domain.Tenant, error) {
	q := r.URL.Query()
	tenant, err := h.resolver.Resolve(r.Context(), q.Get("websiteId"), q.Get("domain"), UserIDFrom(r.Context()))
	return tenant, err
}

func (h *AuthorsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	filter := listFilterFromQuery(r, nil)
	items, total, err := h.authors.FindAll(r.Context(), tenant.PartitionName, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeList(w, items, total, filter.Page, filter.Limit)
}

func (h *AuthorsHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	var author domain.Author
	if err := json.Unmarshal(body, &author); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	created, err := h.authors.Create(r.Context(), tenant.PartitionName, &author)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AuthorsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	tenant, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	author, err := h.authors.FindByID(r.Context(), tenant.PartitionName, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, author)
}

func (h *AuthorsHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
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
	updated, err := h.authors.Update(r.Context(), tenant.PartitionName, id, body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AuthorsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	tenant, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.authors.Delete(r.Context(), tenant.PartitionName, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
