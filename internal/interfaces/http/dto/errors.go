package dto

import "net/http"

// Standard error codes shared across handlers.
const (
	// Generic errors
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"

	// Account and contact errors
	ErrCodeAccountNotFound = "ERR_ACCOUNT_NOT_FOUND"
	ErrCodeContactNotFound = "ERR_CONTACT_NOT_FOUND"

	// Enrichment errors
	ErrCodeEnrichmentInProgress = "ERR_ENRICHMENT_IN_PROGRESS"
	ErrCodeAgentNotConfigured   = "ERR_AGENT_NOT_CONFIGURED"
	ErrCodeInvalidState         = "ERR_INVALID_STATE"

	// Attachment errors
	ErrCodeAttachmentLimit    = "ERR_ATTACHMENT_LIMIT_EXCEEDED"
	ErrCodeDisallowedFileType = "ERR_DISALLOWED_CONTENT_TYPE"
	ErrCodeFileTooLarge       = "ERR_FILE_TOO_LARGE"
	ErrCodeUploadNotFound     = "ERR_UPLOAD_NOT_FOUND"

	// Import errors
	ErrCodeImportInvalidFile = "ERR_IMPORT_INVALID_FILE"
	ErrCodeImportEmptyFile   = "ERR_IMPORT_EMPTY_FILE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeRateLimited:  http.StatusTooManyRequests,

	ErrCodeAccountNotFound: http.StatusNotFound,
	ErrCodeContactNotFound: http.StatusNotFound,

	ErrCodeEnrichmentInProgress: http.StatusConflict,
	ErrCodeAgentNotConfigured:   http.StatusUnprocessableEntity,
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,

	ErrCodeAttachmentLimit:    http.StatusUnprocessableEntity,
	ErrCodeDisallowedFileType: http.StatusUnsupportedMediaType,
	ErrCodeFileTooLarge:       http.StatusRequestEntityTooLarge,
	ErrCodeUploadNotFound:     http.StatusUnprocessableEntity,

	ErrCodeImportInvalidFile: http.StatusBadRequest,
	ErrCodeImportEmptyFile:   http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to 500.
func GetHTTPStatus(errorCode string) int {
	if status, ok := ErrorCodeHTTPStatus[errorCode]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping translates codes raised by the domain and
// application layers into the wire-level codes above.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND": ErrCodeNotFound,

	"INVALID_NAME":     ErrCodeValidation,
	"INVALID_INDUSTRY": ErrCodeValidation,
	"INVALID_REVENUE":  ErrCodeValidation,
	"INVALID_WEBSITE":  ErrCodeValidation,
	"INVALID_EMAIL":    ErrCodeValidation,
	"INVALID_ACCOUNT":  ErrCodeValidation,

	"INVALID_AGENT_URL": ErrCodeValidation,
	"INVALID_BASE_URL":  ErrCodeValidation,
	"INVALID_PASSWORD":  ErrCodeValidation,

	"INVALID_CREDENTIALS": ErrCodeUnauthorized,

	"AGENT_NOT_CONFIGURED":   ErrCodeAgentNotConfigured,
	"ENRICHMENT_IN_PROGRESS": ErrCodeEnrichmentInProgress,
	"INVALID_STATE":          ErrCodeInvalidState,

	"ATTACHMENT_LIMIT_EXCEEDED": ErrCodeAttachmentLimit,
	"DISALLOWED_CONTENT_TYPE":   ErrCodeDisallowedFileType,
	"FILE_TOO_LARGE":            ErrCodeFileTooLarge,
	"UPLOAD_NOT_FOUND":          ErrCodeUploadNotFound,

	"UPLOAD_URL_FAILED":    ErrCodeInternal,
	"DOWNLOAD_URL_FAILED":  ErrCodeInternal,
	"STORAGE_CHECK_FAILED": ErrCodeInternal,
	"PASSWORD_HASH_FAILED": ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to its wire-level
// equivalent. Codes without a mapping pass through unchanged.
func NormalizeErrorCode(code string) string {
	if normalized, ok := DomainErrorCodeMapping[code]; ok {
		return normalized
	}
	return code
}
