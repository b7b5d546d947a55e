package domain

// RowError reports one failed spreadsheet row. Row is the number shown in
// the spreadsheet (data index + 2, the header occupies row 1).
type RowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// ImportResult is the per-upload report of a bulk import run. It is returned
// once and never persisted. Success + Failed always equals the number of
// data rows processed, and len(Errors) == Failed.
type ImportResult struct {
	Success int        `json:"success"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors"`
}
