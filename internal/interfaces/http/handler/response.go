package handler

import "github.com/anycrm/backend/internal/interfaces/http/dto"

// APIResponse is the envelope every endpoint returns, typed for the
// OpenAPI generator.
// @Description Response envelope with a typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the envelope for failed requests.
// @Description Error envelope
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse acknowledges an operation that returns no data.
// @Description Bare success acknowledgement
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// StatusData reports a single status string.
// @Description Status payload
type StatusData struct {
	Status string `json:"status"`
}

// CountData reports a single count.
// @Description Count payload
type CountData struct {
	Count int64 `json:"count"`
}
