// Package apperrors defines the error kinds shared by the workflows and the
// HTTP layer. Kinds are sentinels so callers can branch with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("invalid parameters")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("concurrent limit exceeded")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
)

// Error carries a stable machine-readable code alongside its kind.
type Error struct {
	Kind    error
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func Validation(message string) error {
	return &Error{Kind: ErrValidation, Code: "INVALID_PARAMETERS", Message: message}
}

func NotFound(code, message string) error {
	return &Error{Kind: ErrNotFound, Code: code, Message: message}
}

func Forbidden(message string) error {
	return &Error{Kind: ErrForbidden, Code: "UNAUTHORIZED", Message: message}
}

func Unauthorized(message string) error {
	return &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

func RateLimited(message string) error {
	return &Error{Kind: ErrRateLimited, Code: "CONCURRENT_LIMIT_EXCEEDED", Message: message}
}

func Conflict(code, message string) error {
	return &Error{Kind: ErrConflict, Code: code, Message: message}
}

func Upstream(code, message string, cause error) error {
	return &Error{Kind: ErrUpstream, Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or fallback.
func CodeOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return fallback
}
