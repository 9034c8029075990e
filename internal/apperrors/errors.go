// Package apperrors defines the stable error kinds surfaced by the services.
package apperrors

import "errors"

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error kind
	Message string // Message safe to show to the caller
	Cause   error  // Wrapped underlying error
}

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrInvalidArgument    = New(CodeInvalidArgument, "invalid argument")
	ErrDuplicateUsername  = New(CodeDuplicateUsername, "username already registered")
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid credentials")
	ErrInvalidToken       = New(CodeInvalidToken, "invalid token")
	ErrTokenExpired       = New(CodeTokenExpired, "token expired")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrStorageFailure     = New(CodeStorageFailure, "storage failure")
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Storage wraps an unclassified store error.
func Storage(message string, cause error) *Error {
	return Wrap(CodeStorageFailure, message, cause)
}

// CodeOf extracts the code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// PublicMessage returns the message that may be shown to API callers.
// Causes are never exposed.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
