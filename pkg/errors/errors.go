// Package errors provides strata's chained error type: a package-scoped
// Code, a human message, an optional cause, and free-form context for
// debugging (partition, file, snapshot id, ...).
package errors

import (
	"fmt"
	"strings"
)

// Error is strata's error type. It carries a stable Code for programmatic
// matching (see Is, GetCode), a human Message, an optional wrapped Cause,
// and a bag of context key/value pairs attached after construction.
type Error struct {
	Code    Code
	Message string
	Cause   error
	context map[string]any
}

// New creates a new error with the given code and message. Pass a nil
// cause if no underlying error exists.
//
// Examples:
//
//	return errors.New(errs.SnapshotNotFound, "snapshot does not exist", nil)
//	return errors.New(errs.FormatError, "failed to parse manifest", parseErr)
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Newf creates a new error with a formatted message and no cause.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// AddContext attaches a key/value pair to err. If err is already an *Error
// its context is extended in place; otherwise err is wrapped in a new
// *Error under CommonInternal so the context isn't lost.
//
// Examples:
//
//	if err := readManifest(path); err != nil {
//	    return errors.AddContext(err, "path", path)
//	}
func AddContext(err error, key string, value any) *Error {
	if strataErr, ok := err.(*Error); ok {
		return strataErr.AddContext(key, value)
	}

	newErr := &Error{
		Code:    CommonInternal,
		Message: err.Error(),
		Cause:   err,
		context: make(map[string]any),
	}
	newErr.context[key] = value
	return newErr
}

// AddContext attaches a key/value pair to e and returns e for chaining.
//
// Examples:
//
//	return errors.New(errs.SnapshotNotFound, "snapshot does not exist", nil).
//	    AddContext("table", root).
//	    AddContext("snapshot", id)
func (e *Error) AddContext(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// Error implements the error interface. Context is appended in brackets
// after the message and cause.
func (e *Error) Error() string {
	var parts []string

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("%s: %v", e.Message, e.Cause))
	} else {
		parts = append(parts, e.Message)
	}

	if len(e.context) > 0 {
		contextParts := make([]string, 0, len(e.context))
		for key, value := range e.context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", key, value))
		}
		parts = append(parts, fmt.Sprintf("[%s]", strings.Join(contextParts, " ")))
	}

	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause, so Error works with the standard
// library's errors.Is/As. This package's Is and GetCode look only at the
// outermost *Error and do not follow its Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GetContext returns the value for the given context key, or nil if absent.
func (e *Error) GetContext(key string) any {
	if e.context == nil {
		return nil
	}
	return e.context[key]
}

// HasContext reports whether the given context key was attached.
func (e *Error) HasContext(key string) bool {
	if e.context == nil {
		return false
	}
	_, exists := e.context[key]
	return exists
}
