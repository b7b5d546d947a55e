package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"
	"juzbuild-api/internal/service"

	"go.uber.org/zap"
)

var propertyFilterKeys = []string{"status", "propertyType", "isFeatured"}

// maxUploadBytes caps the spreadsheet size accepted by bulk upload.
const maxUploadBytes = 10 << 20

type PropertiesHandler struct {
	properties *service.PropertyService
	importer   *service.ImportService
	resolver   *repository.TenantResolver
	logger     *zap.Logger
}

func NewPropertiesHandler(
	properties *service.PropertyService,
	importer *service.ImportService,
	resolver *repository.TenantResolver,
	logger *zap.Logger,
) *PropertiesHandler {
	return &PropertiesHandler{properties: properties, importer: importer, resolver: resolver, logger: logger}
}

func (h *PropertiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/properties"), "/")
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
	case rest == "bulk-upload":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.BulkUpload(w, r)
	case rest == "import-template":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.ImportTemplate(w, r)
	case strings.HasPrefix(rest, "slug/"):
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.GetBySlug(w, r, strings.TrimPrefix(rest, "slug/"))
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

func (h *PropertiesHandler) resolveTenant(r *http.Request) (domain.Tenant, string, error) {
	userID := UserIDFrom(r.Context())
	q := r.URL.Query()
	tenant, err := h.resolver.Resolve(r.Context(), q.Get("websiteId"), q.Get("domain"), userID)
	return tenant, userID, err
}

func (h *PropertiesHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, _, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	filter := listFilterFromQuery(r, propertyFilterKeys)
	items, total, err := h.properties.FindAll(r.Context(), tenant.PartitionName, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeList(w, items, total, filter.Page, filter.Limit)
}

func (h *PropertiesHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	var prop domain.Property
	if err := json.Unmarshal(body, &prop); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	prop.UserID = userID

	created, err := h.properties.Create(r.Context(), tenant.PartitionName, &prop)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *PropertiesHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	tenant, _, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	prop, err := h.properties.FindByID(r.Context(), tenant.PartitionName, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (h *PropertiesHandler) GetBySlug(w http.ResponseWriter, r *http.Request, slugValue string) {
	tenant, _, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	prop, err := h.properties.FindBySlug(r.Context(), tenant.PartitionName, slugValue)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (h *PropertiesHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
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
	updated, err := h.properties.Update(r.Context(), tenant.PartitionName, id, body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *PropertiesHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	tenant, _, err := h.resolveTenant(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.properties.Delete(r.Context(), tenant.PartitionName, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// BulkUpload ingests an xlsx of listings. Row failures are reported per row
// and never abort the rest of the sheet.
func (h *PropertiesHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeBadRequest(w, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	sheet, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeBadRequest(w, "failed to read file")
		return
	}

	tenant, err := h.resolver.Resolve(r.Context(), r.FormValue("websiteId"), r.FormValue("domain"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.importer.Run(r.Context(), sheet, tenant, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadSpreadsheet):
			writeBadRequest(w, "failed to parse spreadsheet")
		case errors.Is(err, service.ErrEmptySheet):
			writeBadRequest(w, "spreadsheet has no data rows")
		default:
			writeError(w, h.logger, err)
		}
		return
	}

	h.logger.Info("bulk upload finished",
		zap.String("partition", tenant.PartitionName),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed))
	writeJSON(w, http.StatusOK, result)
}

// ImportTemplate serves a ready-to-fill xlsx for bulk upload.
func (h *PropertiesHandler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := BuildImportTemplate()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="property-import-template.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
