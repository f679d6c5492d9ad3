package shared

// DomainError is an error raised by domain logic. The code is a stable
// machine-readable identifier that the HTTP layer maps to a response.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a domain error with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")
