package httpapi

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// PropertyImportHeader is the column order expected by bulk upload. The
// importer also matches aliases, but the template always uses these names.
var PropertyImportHeader = []string{
	"Name",
	"Description",
	"Location",
	"Price",
	"Currency",
	"Property Type",
	"Status",
	"Beds",
	"Baths",
	"Area",
	"Amenities",
	"Features",
	"Image URL",
	"Featured",
	"Latitude",
	"Longitude",
}

// propertyImportSample is one pre-filled row showing the expected formats.
var propertyImportSample = []any{
	"Sunset Villa",
	"Spacious family home with a garden",
	"Austin, TX",
	450000,
	"USD",
	"House",
	"For Sale",
	4,
	3,
	250,
	"Pool, Garage",
	"Solar panels",
	"https://example.com/photos/sunset-villa.jpg",
	"no",
	30.2672,
	-97.7431,
}

var propertyImportWidths = []float64{
	24, // Name
	40, // Description
	24, // Location
	12, // Price
	10, // Currency
	16, // Property Type
	12, // Status
	8,  // Beds
	8,  // Baths
	10, // Area
	28, // Amenities
	28, // Features
	40, // Image URL
	10, // Featured
	12, // Latitude
	12, // Longitude
}

// BuildImportTemplate produces the xlsx template for property bulk upload:
// styled header row plus one example row.
func BuildImportTemplate() ([]byte, error) {
	f := excelize.NewFile()
	// Don't defer Close() before WriteTo, it needs the file open.

	sheetName := "Properties"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range PropertyImportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for col, value := range propertyImportSample {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set sample cell %s: %w", cell, err)
		}
	}

	for col, width := range propertyImportWidths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// Keep the header visible while scrolling.
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze header row: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
