package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrValidation          = "VALIDATION_ERROR"
	ErrNotFound            = "NOT_FOUND"
	ErrUpstreamStatus      = "UPSTREAM_STATUS"
	ErrUpstreamFormat      = "UPSTREAM_FORMAT"
	ErrUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrRateLimit           = "RATE_LIMIT_EXCEEDED"
	ErrUnauthorized        = "UNAUTHORIZED"
	ErrInternalServer      = "INTERNAL_ERROR"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NetworkError is a transport or timeout failure reaching an upstream.
type NetworkError struct {
	Service string
	Op      string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Service, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamStatusError is a non-success HTTP status from an upstream. Body is
// kept verbatim.
type UpstreamStatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// UpstreamFormatError means the upstream answered but the payload lacks an
// expected field or shape.
type UpstreamFormatError struct {
	Service string
	Field   string
	Err     error
}

func (e *UpstreamFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: unexpected response format at %q: %v", e.Service, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: unexpected response format: missing %q", e.Service, e.Field)
}

func (e *UpstreamFormatError) Unwrap() error { return e.Err }

// NotFoundError is a well-formed "no such entity" answer.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ErrCircuitOpen is wrapped into a NetworkError when an upstream breaker
// rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker open")

// ErrNotConfigured is returned by optional upstreams that have no endpoint.
var ErrNotConfigured = errors.New("upstream is not configured")

// IsRetryable reports whether err is a transient upstream failure: transport
// errors, 429 and 5xx statuses. An open circuit is not retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var statusErr *UpstreamStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return false
}

// ErrorCode classifies err into one of the stable API error codes.
func ErrorCode(err error) string {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		statusErr     *UpstreamStatusError
		formatErr     *UpstreamFormatError
		netErr        *NetworkError
		apiErr        *APIError
	)
	switch {
	case errors.Is(err, ErrNotConfigured):
		return ErrUpstreamUnavailable
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &validationErr):
		return ErrValidation
	case errors.As(err, &notFoundErr):
		return ErrNotFound
	case errors.As(err, &statusErr):
		return ErrUpstreamStatus
	case errors.As(err, &formatErr):
		return ErrUpstreamFormat
	case errors.As(err, &netErr):
		return ErrUpstreamUnavailable
	default:
		return ErrInternalServer
	}
}

// HTTPStatusFor maps err onto the status code the HTTP surface answers with.
func HTTPStatusFor(err error) int {
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrNotConfigured) {
		return http.StatusServiceUnavailable
	}
	switch ErrorCode(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstreamStatus, ErrUpstreamFormat:
		return http.StatusBadGateway
	case ErrUpstreamUnavailable:
		return http.StatusGatewayTimeout
	case ErrRateLimit:
		return http.StatusTooManyRequests
	case ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
