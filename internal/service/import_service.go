package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"juzbuild-api/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	// ErrBadSpreadsheet: the upload could not be parsed at all.
	ErrBadSpreadsheet = errors.New("unable to parse spreadsheet")
	// ErrEmptySheet: the first sheet has no data rows. The only import
	// failure surfaced as a request-level error; everything row-scoped goes
	// into the ImportResult instead.
	ErrEmptySheet = errors.New("spreadsheet has no data rows")
)

// headerAliases maps logical property fields onto the column headings seen
// in customer sheets. Matching is case-insensitive on trimmed headings.
var headerAliases = map[string][]string{
	"name":         {"name", "title"},
	"description":  {"description"},
	"location":     {"location", "address", "city"},
	"price":        {"price"},
	"currency":     {"currency"},
	"propertyType": {"property type", "propertytype", "property_type", "type", "category"},
	"status":       {"status"},
	"beds":         {"beds", "bedrooms"},
	"baths":        {"baths", "bathrooms"},
	"area":         {"area", "size", "sqft", "square feet"},
	"amenities":    {"amenities"},
	"features":     {"features"},
	"image":        {"image", "image url", "image_url", "images"},
	"isFeatured":   {"featured", "is featured", "is_featured", "isfeatured"},
	"isActive":     {"active", "is active", "is_active", "isactive"},
	"lat":          {"latitude", "lat"},
	"lng":          {"longitude", "lng"},
}

// ImportService runs the property bulk-import pipeline: spreadsheet rows in,
// structured success/failure report out. The central guarantee is row-level
// isolation: one bad row never aborts the run or touches any other row.
type ImportService struct {
	properties *PropertyService
	types      *PropertyTypeService
	logger     *zap.Logger
}

func NewImportService(properties *PropertyService, types *PropertyTypeService, logger *zap.Logger) *ImportService {
	return &ImportService{properties: properties, types: types, logger: logger}
}

// Run parses the first sheet and creates one property per valid row in the
// tenant's partition. Rows are processed sequentially so the reported row
// numbers (data index + 2, header in row 1) stay deterministic.
func (s *ImportService) Run(ctx context.Context, sheet []byte, tenant domain.Tenant, userID string) (*domain.ImportResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(sheet))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSpreadsheet, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSpreadsheet, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	columns := headerIndex(rows[0])
	lookup, err := s.types.LookupForTenant(ctx, tenant.PartitionName)
	if err != nil {
		return nil, fmt.Errorf("failed to load property types: %w", err)
	}

	result := &domain.ImportResult{Errors: []domain.RowError{}}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if rowErrs := s.importRow(ctx, tenant, userID, columns, row, lookup); len(rowErrs) > 0 {
			result.Failed++
			result.Errors = append(result.Errors, domain.RowError{Row: rowNum, Errors: rowErrs})
		} else {
			result.Success++
		}
	}

	s.logger.Info("bulk import finished",
		zap.String("partition", tenant.PartitionName),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed))
	return result, nil
}

// importRow maps, resolves and validates one data row, then creates the
// property. Every failure is returned as row errors; nothing propagates.
func (s *ImportService) importRow(
	ctx context.Context,
	tenant domain.Tenant,
	userID string,
	columns map[string]int,
	row []string,
	lookup map[string]*domain.PropertyType,
) []string {
	field := func(logical string) string {
		for _, alias := range headerAliases[logical] {
			if idx, ok := columns[alias]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
		}
		return ""
	}

	typeRaw := field("propertyType")
	propertyType, ok := lookup[strings.ToLower(typeRaw)]
	if !ok {
		return []string{fmt.Sprintf("Property type %q not found", typeRaw)}
	}

	name := field("name")
	if name == "" {
		return []string{"Property name is required"}
	}

	var parseErrs []string
	number := func(logical string) float64 {
		raw := field(logical)
		if raw == "" {
			return 0
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			parseErrs = append(parseErrs, logical+": must be a number")
			return 0
		}
		return v
	}

	prop := domain.Property{
		Name:         name,
		Description:  field("description"),
		Location:     field("location"),
		Price:        number("price"),
		Currency:     field("currency"),
		PropertyType: propertyType.TypeID,
		Status:       normalizeStatus(field("status")),
		Beds:         int(number("beds")),
		Baths:        int(number("baths")),
		Area:         number("area"),
		Amenities:    splitList(field("amenities")),
		Features:     splitList(field("features")),
		IsFeatured:   parseBool(field("isFeatured"), false),
		IsActive:     parseBool(field("isActive"), true),
		UserID:       userID,
	}
	if src := field("image"); src != "" {
		prop.Images = []domain.PropertyImage{{Src: src, Alt: name, IsMain: true}}
	}
	if latRaw, lngRaw := field("lat"), field("lng"); latRaw != "" && lngRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr != nil {
			parseErrs = append(parseErrs, "lat: must be a number")
		}
		if lngErr != nil {
			parseErrs = append(parseErrs, "lng: must be a number")
		}
		if latErr == nil && lngErr == nil {
			prop.Coordinates = &domain.Coordinates{Lat: lat, Lng: lng}
		}
	}
	if len(parseErrs) > 0 {
		return parseErrs
	}

	if _, err := s.properties.Create(ctx, tenant.PartitionName, &prop); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return verr.Messages()
		}
		s.logger.Error("bulk import row create failed",
			zap.String("partition", tenant.PartitionName),
			zap.String("name", name),
			zap.Error(err))
		return []string{"failed to create property"}
	}
	return nil
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, exists := columns[key]; !exists {
			columns[key] = i
		}
	}
	return columns
}

// normalizeStatus accepts "For Sale" style values from sheets.
func normalizeStatus(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "-")
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def
	case "yes", "true", "1", "y":
		return true
	case "no", "false", "0", "n":
		return false
	default:
		return def
	}
}
