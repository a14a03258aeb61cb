// Package apierror holds the JSON envelopes for 4xx/5xx responses. Handlers
// never serialise raw errors, so driver and SQL details stay in the logs.
package apierror

type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError lists per-field problems of a rejected request body.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}
