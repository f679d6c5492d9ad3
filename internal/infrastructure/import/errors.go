package csvimport

import (
	"errors"
	"fmt"
)

// Row-level error codes surfaced in import results.
const (
	ErrCodeImportRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidValue  = "ERR_IMPORT_INVALID_VALUE"
	ErrCodeImportReference     = "ERR_IMPORT_REFERENCE_NOT_FOUND"
)

// File-level errors that abort an import before any row is processed.
var (
	ErrEmptyFile     = errors.New("CSV file is empty")
	ErrMissingHeader = errors.New("CSV file missing header row")
	ErrNoDataRows    = errors.New("CSV file contains no data rows")
)

// RowError describes why a single row was rejected. Row numbers match
// the user's spreadsheet, header included.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a RowError without an offending value.
func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// ErrorCollection accumulates row errors up to a cap. The cap bounds
// the response payload, the true error count is still tracked.
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a collection keeping at most maxErrors
// entries, 100 when non-positive.
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records an error, keeping it only while under the cap.
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequiredError records a missing required field.
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeImportRequiredField, fmt.Sprintf("field '%s' is required", column)))
}

// AddValueError records an invalid field value.
func (ec *ErrorCollection) AddValueError(row int, column, message, value string) {
	ec.Add(RowError{Row: row, Column: column, Code: ErrCodeImportInvalidValue, Message: message, Value: value})
}

// AddReferenceError records a reference to an entity that does not
// exist.
func (ec *ErrorCollection) AddReferenceError(row int, column, value, refType string) {
	ec.Add(RowError{
		Row:     row,
		Column:  column,
		Code:    ErrCodeImportReference,
		Message: fmt.Sprintf("%s '%s' not found", refType, value),
		Value:   value,
	})
}

// Errors returns the kept errors.
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the number of errors seen, kept or not.
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors reports whether anything was recorded.
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated reports whether the cap dropped any errors.
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}
