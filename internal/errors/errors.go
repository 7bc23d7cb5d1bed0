// Package errors provides a small structured error type used to classify the
// failures of style resolution, pipeline execution and derivative generation.
//
// None of the categories below are process fatal. Request-time callers degrade
// (serve the source, or answer with a bounded error response) and batch callers
// log and continue with the next entry.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Category classifies an Error.
type Category string

const (
	// Style catalog and pipeline definition errors
	CategoryUnknownStyle  Category = "unknown_style"
	CategoryInvalidMacro  Category = "invalid_macro"
	CategoryInvalidAction Category = "invalid_action"

	// Runtime errors
	CategoryPipelineExecution Category = "pipeline_execution"
	CategorySourceNotFound    Category = "source_not_found"
	CategoryGlobNoMatches     Category = "glob_no_matches"
	CategoryFileSystem        Category = "filesystem"

	// Configuration errors
	CategoryConfig   Category = "config"
	CategoryInternal Category = "internal"
)

// Severity indicates how the caller is expected to react.
type Severity string

const (
	SeverityError   Severity = "error"   // the entry or request fails
	SeverityWarning Severity = "warning" // continues with degraded behavior
)

// ContextFields carries structured context for an Error.
type ContextFields map[string]any

// Error is a categorised error with optional cause and context.
type Error struct {
	Category Category      `json:"category"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// Error implements the error interface. The message is meant to be shown to
// the caller as is, so the category is not part of it.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(category Category, severity Severity, message string) *Error {
	return &Error{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new Error wrapping cause.
func Wrap(cause error, category Category, severity Severity, message string) *Error {
	return &Error{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    cause,
	}
}

// IsCategory reports whether err, or any error it wraps, is an *Error of the
// given category.
func IsCategory(err error, category Category) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	if e.Category == category {
		return true
	}
	return e.Cause != nil && IsCategory(e.Cause, category)
}

// GetCategory extracts the category from err, or CategoryInternal when err is
// not an *Error.
func GetCategory(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}
