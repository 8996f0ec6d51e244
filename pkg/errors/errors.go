// Package errors provides structured errors with stable machine-readable
// codes. Codes survive wrapping, so transport layers can map failures to
// protocol responses without parsing message strings.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure. The string values are part of the wire
// format of error responses and must not change between releases.
type ErrorCode string

const (
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed  ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInputUnavailable  ErrorCode = "INPUT_UNAVAILABLE"
	ErrCodeUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries an error code and optional key-value details
// alongside the human-readable message and the wrapped cause.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause so errors.Is and errors.As see through
// the structured layer.
func (e *StructuredError) Unwrap() error {
	return e.Err
}

// New creates a StructuredError without a cause.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a StructuredError wrapping cause.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// WrapWithContext creates a StructuredError wrapping cause with additional
// details for diagnostics and error responses.
func WrapWithContext(code ErrorCode, message string, cause error, details map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Details: details,
		Err:     cause,
	}
}

// AsStructured extracts a StructuredError from err's chain.
// Returns nil and false when the chain has none.
func AsStructured(err error) (*StructuredError, bool) {
	var serr *StructuredError
	if errors.As(err, &serr) {
		return serr, true
	}
	return nil, false
}
