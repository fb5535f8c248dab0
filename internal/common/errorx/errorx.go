package errorx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the service's error categories.
// Every public operation of the dataset engine returns either a success
// value or exactly one *Error; raw storage errors never cross that boundary.
type Kind string

const (
	KindInvalidRequest   Kind = "invalid_request"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindValidationFailed Kind = "validation_failed"
	KindRateLimited      Kind = "rate_limited"
	KindInternal         Kind = "internal"
)

// httpStatus maps each kind to its wire-level status code.
var httpStatus = map[Kind]int{
	KindInvalidRequest:   http.StatusBadRequest,
	KindUnauthorized:     http.StatusUnauthorized,
	KindForbidden:        http.StatusForbidden,
	KindNotFound:         http.StatusNotFound,
	KindConflict:         http.StatusConflict,
	KindValidationFailed: http.StatusBadRequest,
	KindRateLimited:      http.StatusTooManyRequests,
	KindInternal:         http.StatusInternalServerError,
}

// Error is a structured service error with a kind, a message and
// optional machine-readable details.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// HTTPStatus returns the HTTP status code for the error's kind.
func (e *Error) HTTPStatus() int {
	if status, ok := httpStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithDetail adds a detail to the error and returns it for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidRequest(message string) *Error   { return New(KindInvalidRequest, message) }
func Unauthorized(message string) *Error     { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error        { return New(KindForbidden, message) }
func NotFound(message string) *Error         { return New(KindNotFound, message) }
func Conflict(message string) *Error         { return New(KindConflict, message) }
func ValidationFailed(message string) *Error { return New(KindValidationFailed, message) }
func RateLimited(message string) *Error      { return New(KindRateLimited, message) }
func Internal(message string) *Error         { return New(KindInternal, message) }

// From converts any error to *Error. Errors that are not already typed
// are classified as internal so nothing below the service boundary leaks.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal server error")
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
