// Package apperr defines the error taxonomy shared by services and handlers.
// Codes are string-based for debuggability and natural JSON serialization.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error condition.
type Code string

const (
	// CodeBadRequest indicates a malformed identifier or schema-invalid payload.
	CodeBadRequest Code = "BAD_REQUEST"

	// CodeNotAuthenticated indicates missing or invalid credentials or token.
	CodeNotAuthenticated Code = "NOT_AUTHENTICATED"

	// CodeForbidden indicates the caller is neither author nor editor of the target list.
	CodeForbidden Code = "FORBIDDEN"

	// CodeNotFound indicates the operation target does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict indicates a duplicate username at registration.
	CodeConflict Code = "CONFLICT"

	// CodeInternal indicates an unexpected storage or system failure.
	CodeInternal Code = "INTERNAL"
)

// Error is a classified error with a client-safe message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// New creates a classified error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a classified error. The cause is kept for logging
// and never serialized to the client.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, err: err}
}

// Internal wraps an unexpected failure without leaking detail to the client.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "internal error", err: err}
}

// CodeOf extracts the code from any error, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-safe message from any error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps a code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotAuthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
