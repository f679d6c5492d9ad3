package dto

import "github.com/anycrm/backend/internal/application/importer"

// ImportRowError describes a single rejected CSV row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ImportResponse summarizes the outcome of a CSV import.
type ImportResponse struct {
	TotalRows    int              `json:"total_rows"`
	ImportedRows int              `json:"imported_rows"`
	ErrorRows    int              `json:"error_rows"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	Truncated    bool             `json:"truncated"`
	TotalErrors  int              `json:"total_errors"`
}

// FromImportResult converts an importer result into its response form.
func FromImportResult(result *importer.ImportResult) ImportResponse {
	resp := ImportResponse{
		TotalRows:    result.TotalRows,
		ImportedRows: result.ImportedRows,
		ErrorRows:    result.ErrorRows,
		Truncated:    result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	}
	for _, rowErr := range result.Errors {
		resp.Errors = append(resp.Errors, ImportRowError{
			Row:     rowErr.Row,
			Column:  rowErr.Column,
			Code:    rowErr.Code,
			Message: rowErr.Message,
			Value:   rowErr.Value,
		})
	}
	return resp
}
