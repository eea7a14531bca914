// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validación", Fields: fields}
}

// ConflictError is returned with 409. ExistingID points at the record that
// caused a duplicate, when there is one.
type ConflictError struct {
	Detail     string `json:"detail"`
	ExistingID string `json:"existing_id,omitempty"`
}

func NewConflict(msg, existingID string) *ConflictError {
	return &ConflictError{Detail: msg, ExistingID: existingID}
}
