package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeUnsafeTarget       = "UNSAFE_TARGET_URL"
	ErrCodeDNSFailure         = "DNS_FAILURE"
	ErrCodeFetchTransient     = "FETCH_TRANSIENT"
	ErrCodeBrowserUnavailable = "BROWSER_UNAVAILABLE"
	ErrCodeTimeout            = "ENRICH_TIMEOUT"

	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EnrichError is the internal error type carrying an error code. Stage
// failures are wrapped in EnrichError so the orchestrator can decide
// escalation; they never propagate past Enrich itself.
type EnrichError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *EnrichError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EnrichError) Unwrap() error {
	return e.Err
}

// NewEnrichError creates a new EnrichError.
func NewEnrichError(code, message string, err error) *EnrichError {
	return &EnrichError{Code: code, Message: message, Err: err}
}
