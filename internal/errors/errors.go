package errors

import (
	"errors"
	"fmt"
)

// Common application error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a resource conflict, e.g. a duplicate cluster name
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrMultipleMatches indicates a lookup matched more than one entity
	// where at most one is possible
	ErrMultipleMatches = errors.New("multiple entities match")

	// ErrUnauthorized indicates the caller presented no or invalid credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrapf wraps an error with a formatted message while preserving the chain.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// ProviderError represents a failed call into the infrastructure provider.
type ProviderError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("provider %s timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error
func NewProviderError(op string, timeout bool, err error) *ProviderError {
	return &ProviderError{Op: op, Timeout: timeout, Err: err}
}

// ValidationError represents validation-specific errors. It unwraps to
// ErrInvalidInput so callers can classify it with errors.Is.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Error is the wire-level error body shared by every failing response:
// an integer code, a message, an optional help URL, and an optional nested
// cause forming a recursive chain for layered fault attribution.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	HelpURL string `json:"helpUrl,omitempty"`
	Cause   *Error `json:"cause,omitempty"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("error %d: %s: %s", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("error %d: %s", e.Code, e.Message)
}

// NewError creates a wire error with the given code and message.
func NewError(code int64, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause attaches a nested cause and returns the receiver.
func (e *Error) WithCause(cause *Error) *Error {
	e.Cause = cause
	return e
}

// FromError converts a Go error chain into a wire Error. The outermost
// message becomes the top-level entry; each wrapped error below it becomes
// a nested cause with the same code unless it carries its own classification.
func FromError(code int64, err error) *Error {
	if err == nil {
		return nil
	}
	top := &Error{Code: code, Message: err.Error()}
	if inner := errors.Unwrap(err); inner != nil {
		top.Cause = FromError(CodeFor(inner), inner)
	}
	return top
}

// HTTP-analogous codes used in wire errors.
const (
	CodeBadRequest = 400
	CodeNotFound   = 404
	CodeConflict   = 409
	CodeTimeout    = 504
	CodeInternal   = 500
)

// CodeFor maps an error chain to its wire code.
func CodeFor(err error) int64 {
	var perr *ProviderError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeBadRequest
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.As(err, &perr) && perr.Timeout:
		return CodeTimeout
	default:
		return CodeInternal
	}
}
