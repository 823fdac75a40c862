package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the session stores and the controller.
var (
	ErrNotFound       = errors.New("not found")
	ErrSessionExpired = errors.New("session expired")
)

// ValidationError reports user input that violates a local invariant.
// It is raised before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompletionError wraps a failed call to the remote completion service.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// ParseError reports a completion reply that could not be turned into recipes.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse recipes: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrorKind classifies err for logs and metric labels.
func ErrorKind(err error) string {
	var (
		validationErr *ValidationError
		completionErr *CompletionError
		parseErr      *ParseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &completionErr):
		return "completion"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSessionExpired):
		return "expired"
	default:
		return "error"
	}
}
