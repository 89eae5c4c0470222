package apperrors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents common error identifiers reused across the API.
// Clients map codes to display text; messages are informational only.
type ErrorCode string

const (
	ErrValidation       ErrorCode = "validation_error"
	ErrConflict         ErrorCode = "conflict"
	ErrNotFound         ErrorCode = "not_found"
	ErrUnauthorized     ErrorCode = "unauthorized"
	ErrForbidden        ErrorCode = "forbidden"
	ErrPayloadTooLarge  ErrorCode = "payload_too_large"
	ErrUnsupportedMedia ErrorCode = "unsupported_media_type"
	ErrTooMany          ErrorCode = "too_many_requests"
	ErrInternal         ErrorCode = "internal_error"
	ErrUnavailable      ErrorCode = "service_unavailable"
)

// AppError carries additional metadata beyond a regular error.
type AppError struct {
	err        error
	message    string
	code       ErrorCode
	httpStatus int
	details    []string
}

// New creates a new AppError with supplied details.
func New(message string, status int, code ErrorCode, err error) *AppError {
	return &AppError{
		err:        err,
		message:    message,
		httpStatus: status,
		code:       code,
	}
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// Message returns a safe error message for clients.
func (e *AppError) Message() string {
	return e.message
}

// StatusCode returns the HTTP status to use for this error.
func (e *AppError) StatusCode() int {
	return e.httpStatus
}

// Code returns the application level error code.
func (e *AppError) Code() ErrorCode {
	return e.code
}

// WithDetails attaches itemized messages (usually per-field) to the AppError.
func (e *AppError) WithDetails(details []string) *AppError {
	copy := *e
	copy.details = details
	return &copy
}

// Details returns any itemized messages recorded on the AppError.
func (e *AppError) Details() []string {
	return e.details
}

// Validation builds a 400 error with itemized details.
func Validation(message string, details []string, err error) *AppError {
	return New(message, http.StatusBadRequest, ErrValidation, err).WithDetails(details)
}

// Unauthorized builds a 401 error.
func Unauthorized(message string, err error) *AppError {
	return New(message, http.StatusUnauthorized, ErrUnauthorized, err)
}

// Forbidden builds a 403 error.
func Forbidden(message string, err error) *AppError {
	return New(message, http.StatusForbidden, ErrForbidden, err)
}

// NotFound builds a 404 error.
func NotFound(message string, err error) *AppError {
	return New(message, http.StatusNotFound, ErrNotFound, err)
}

// Conflict builds a 409 error.
func Conflict(message string, err error) *AppError {
	return New(message, http.StatusConflict, ErrConflict, err)
}

// Internal builds a 500 error. The message must not leak internals.
func Internal(message string, err error) *AppError {
	return New(message, http.StatusInternalServerError, ErrInternal, err)
}
