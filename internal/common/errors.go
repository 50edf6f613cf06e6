package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of error categories the API can surface.
// Handlers dispatch on kind, never on concrete types.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindInvalidState        ErrorKind = "invalid_state"
	KindAmountExceeded      ErrorKind = "amount_exceeded"
	KindIdempotencyConflict ErrorKind = "idempotency_conflict"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindRateLimited         ErrorKind = "rate_limited"
	KindInternal            ErrorKind = "internal"
)

// AppError carries a kind, a stable error code and a client-safe message.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// NewValidation returns a validation error (HTTP 400)
func NewValidation(format string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Code: "BAD_REQUEST", Message: fmt.Sprintf(format, args...)}
}

// NewNotFound returns a not-found error (HTTP 404)
func NewNotFound(format string, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf(format, args...)}
}

// NewInvalidState returns an illegal-transition error (HTTP 422)
func NewInvalidState(format string, args ...any) *AppError {
	return &AppError{Kind: KindInvalidState, Code: "INVALID_PAYMENT_STATE", Message: fmt.Sprintf(format, args...)}
}

// NewAmountExceeded returns a refund-over-balance error (HTTP 400)
func NewAmountExceeded(format string, args ...any) *AppError {
	return &AppError{Kind: KindAmountExceeded, Code: "AMOUNT_EXCEEDED", Message: fmt.Sprintf(format, args...)}
}

// NewIdempotencyConflict returns a key-reuse conflict error (HTTP 409)
func NewIdempotencyConflict(format string, args ...any) *AppError {
	return &AppError{Kind: KindIdempotencyConflict, Code: "IDEMPOTENCY_CONFLICT", Message: fmt.Sprintf(format, args...)}
}

// NewUnauthorized returns an authentication error (HTTP 401)
func NewUnauthorized(format string, args ...any) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: "AUTHENTICATION_FAILED", Message: fmt.Sprintf(format, args...)}
}

// NewRateLimited returns a rate-limit error (HTTP 429)
func NewRateLimited(format string, args ...any) *AppError {
	return &AppError{Kind: KindRateLimited, Code: "RATE_LIMIT_EXCEEDED", Message: fmt.Sprintf(format, args...)}
}

// NewInternal wraps an unexpected error (HTTP 500); the cause is logged, never surfaced
func NewInternal(cause error) *AppError {
	return &AppError{Kind: KindInternal, Code: "INTERNAL_SERVER_ERROR", Message: "internal server error", cause: cause}
}

// KindOf extracts the ErrorKind from err, defaulting to KindInternal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf extracts the stable error code from err.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_SERVER_ERROR"
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindAmountExceeded:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindIdempotencyConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
