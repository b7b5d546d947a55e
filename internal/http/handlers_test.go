package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"juzbuild-api/internal/domain"
	"juzbuild-api/internal/repository"
	"juzbuild-api/internal/service"
	"juzbuild-api/internal/store"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeKV struct {
	data map[string]string
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.data[key] = value
	return nil
}

// metrics register into the default Prometheus registry; one instance is
// shared across all tests to avoid duplicate registration.
var (
	testMetrics     *APIMetrics
	testMetricsOnce sync.Once
)

func getTestMetrics() *APIMetrics {
	testMetricsOnce.Do(func() { testMetrics = NewAPIMetrics() })
	return testMetrics
}

type fixture struct {
	router     *Router
	collection *repository.MemoryCollections
	users      *repository.MemoryUsersRepo
	websites   *repository.MemoryWebsitesRepo
	types      *service.PropertyTypeService
}

func newFixture(t *testing.T, builderURL string) *fixture {
	logger := zap.NewNop()
	kv := &fakeKV{data: map[string]string{
		"session:tok-1": `{"userId":"u-1","email":"pat@example.com"}`,
	}}

	collections := repository.NewMemoryCollections()
	users := repository.NewMemoryUsersRepo()
	users.Put(domain.User{UserID: "u-1", Email: "pat@example.com", DomainName: "patrealty"})
	websites := repository.NewMemoryWebsitesRepo()
	resolver := repository.NewTenantResolver(websites, users, logger)

	leads := service.NewLeadService(collections, logger)
	properties := service.NewPropertyService(collections, logger)
	types := service.NewPropertyTypeService(collections, logger)
	authors := service.NewAuthorService(collections, logger)
	importer := service.NewImportService(properties, types, logger)
	builder := service.NewBuilderClient(builderURL, time.Second, logger)

	_, err := types.Create(context.Background(), domain.SharedPartition, &domain.PropertyType{Name: "House"})
	require.NoError(t, err)

	router := NewRouter(logger, getTestMetrics(), Auth(kv, logger))
	router.RegisterEntityRoutes(
		NewLeadsHandler(leads, resolver, logger),
		NewPropertiesHandler(properties, importer, resolver, logger),
		NewPropertyTypesHandler(types, resolver, logger),
		NewAuthorsHandler(authors, resolver, logger),
	)
	router.RegisterWebsiteRoutes(NewWebsitesHandler(websites, builder, logger))
	router.RegisterOpsRoutes()

	return &fixture{router: router, collection: collections, users: users, websites: websites, types: types}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer tok-1")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionCookieAccepted(t *testing.T) {
	f := newFixture(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-1"})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLeadLifecycle(t *testing.T) {
	f := newFixture(t, "")

	body := `{"name":"Alice Buyer","email":"alice@example.com","message":"interested in the villa"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads", bytes.NewBufferString(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := f.do(req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.LeadID)
	require.Equal(t, "u-1", created.UserID)
	require.Equal(t, "new", created.Status)
	require.Equal(t, "203.0.113.9", created.IPAddress)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/leads/"+created.LeadID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	patch := `{"status":"contacted"}`
	w = f.do(httptest.NewRequest(http.MethodPatch, "/api/v1/leads/"+created.LeadID, bytes.NewBufferString(patch)))
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, "contacted", updated.Status)
	require.Equal(t, "Alice Buyer", updated.Name)

	w = f.do(httptest.NewRequest(http.MethodDelete, "/api/v1/leads/"+created.LeadID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/leads/"+created.LeadID, nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadListEnvelope(t *testing.T) {
	f := newFixture(t, "")

	for i := 0; i < 13; i++ {
		body := fmt.Sprintf(`{"name":"Lead %02d","email":"l%02d@example.com"}`, i, i)
		w := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/leads", bytes.NewBufferString(body)))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/leads?page=2&limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Items      []domain.Lead `json:"items"`
		Total      int           `json:"total"`
		Page       int           `json:"page"`
		Limit      int           `json:"limit"`
		TotalPages int           `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 13, envelope.Total)
	require.Equal(t, 2, envelope.Page)
	require.Equal(t, 5, envelope.Limit)
	require.Equal(t, 3, envelope.TotalPages)
	require.Len(t, envelope.Items, 5)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(httptest.NewRequest(http.MethodPut, "/api/v1/leads", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, "GET, POST", w.Result().Header.Get("Allow"))
	require.JSONEq(t, `{"error":"method not allowed, use GET or POST"}`, w.Body.String())
}

func TestPropertyValidationDetails(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/properties", bytes.NewBufferString(`{"price":-1}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "validation failed", resp.Error)
	require.Contains(t, resp.Details, "name: is required")
	require.Contains(t, resp.Details, "price: must not be negative")
}

func TestPropertySlugConflict(t *testing.T) {
	f := newFixture(t, "")

	first := `{"name":"Twin Peaks","propertyType":"type-1"}`
	w := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/properties", bytes.NewBufferString(first)))
	require.Equal(t, http.StatusCreated, w.Code)

	second := `{"name":"Other Name","propertyType":"type-1"}`
	w = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/properties", bytes.NewBufferString(second)))
	require.Equal(t, http.StatusCreated, w.Code)
	var other domain.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))

	w = f.do(httptest.NewRequest(http.MethodPatch, "/api/v1/properties/"+other.PropertyID, bytes.NewBufferString(`{"slug":"twin-peaks"}`)))
	require.Equal(t, http.StatusConflict, w.Code)
	require.JSONEq(t, `{"error":"slug already in use"}`, w.Body.String())
}

func TestBulkUploadEndpoint(t *testing.T) {
	f := newFixture(t, "")

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]any{
		{"Name", "Price", "Property Type"},
		{"Uploaded Home", 250000, "House"},
		{"No Type Home", 100000, "Spaceship"},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, wb.SetCellValue(sheet, cell, v))
		}
	}
	var workbook bytes.Buffer
	require.NoError(t, wb.Write(&workbook))
	require.NoError(t, wb.Close())

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "upload.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/bulk-upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, 1, result.Success)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 3, result.Errors[0].Row)
}

func TestBulkUploadRejectsGarbageWorkbook(t *testing.T) {
	f := newFixture(t, "")

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "upload.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("this is not a workbook"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/bulk-upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := f.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"failed to parse spreadsheet"}`, w.Body.String())
}

func TestBulkUploadRejectsHeaderOnlySheet(t *testing.T) {
	f := newFixture(t, "")

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetCellValue(sheet, "A1", "Name"))
	var workbook bytes.Buffer
	require.NoError(t, wb.Write(&workbook))
	require.NoError(t, wb.Close())

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "upload.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/bulk-upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := f.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"spreadsheet has no data rows"}`, w.Body.String())
}

func TestDisabledStoreReturnsServiceUnavailable(t *testing.T) {
	logger := zap.NewNop()
	kv := &fakeKV{data: map[string]string{
		"session:tok-1": `{"userId":"u-1","email":"pat@example.com"}`,
	}}

	// the no-database composition: every repo reports the store unavailable
	collections := repository.NewDisabledCollections()
	resolver := repository.NewTenantResolver(
		repository.NewDisabledWebsitesRepo(),
		repository.NewDisabledUsersRepo(),
		logger,
	)
	leads := service.NewLeadService(collections, logger)

	router := NewRouter(logger, getTestMetrics(), Auth(kv, logger))
	router.RegisterEntityRoutes(
		NewLeadsHandler(leads, resolver, logger),
		NewPropertiesHandler(service.NewPropertyService(collections, logger), nil, resolver, logger),
		NewPropertyTypesHandler(service.NewPropertyTypeService(collections, logger), resolver, logger),
		NewAuthorsHandler(service.NewAuthorService(collections, logger), resolver, logger),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, `{"error":"database operations unavailable"}`, w.Body.String())

	body := `{"name":"Alice Buyer","email":"alice@example.com"}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/leads", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer tok-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSharedPropertyTypeReadableByID(t *testing.T) {
	f := newFixture(t, "")

	shared, err := f.types.FindBySlug(context.Background(), domain.SharedPartition, "house")
	require.NoError(t, err)

	// ids from the merged catalog resolve on the detail route
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/property-types/"+shared.TypeID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.PropertyType
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "House", got.Name)

	// but shared types stay read-only for tenants
	w = f.do(httptest.NewRequest(http.MethodPatch, "/api/v1/property-types/"+shared.TypeID, bytes.NewBufferString(`{"name":"Hacked"}`)))
	require.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(httptest.NewRequest(http.MethodDelete, "/api/v1/property-types/"+shared.TypeID, nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportTemplateDownload(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/properties/import-template", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Result().Header.Get("Content-Type"))

	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Properties")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 1)
	require.Equal(t, PropertyImportHeader, rows[0])
}

func TestPropertyTypesMergedCatalog(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/property-types", bytes.NewBufferString(`{"name":"Penthouse"}`)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/property-types", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Items []domain.PropertyType `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	names := make([]string, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		names = append(names, item.Name)
	}
	require.Contains(t, names, "House", "shared defaults visible")
	require.Contains(t, names, "Penthouse", "tenant additions visible")
}

func TestWebsiteStatusProxy(t *testing.T) {
	builder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/jobs/status", r.URL.Path)
		require.Equal(t, "w-1", r.URL.Query().Get("websiteId"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"building","progress":40}`)
	}))
	defer builder.Close()

	f := newFixture(t, builder.URL)
	f.websites.Put(domain.Website{WebsiteID: "w-1", UserID: "u-1", Domain: "patrealty.juzbuild.com"})

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/websites/w-1/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"building","progress":40}`, w.Body.String())

	// unknown or not-owned website never reaches the builder
	w = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/websites/w-2/status", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
