// Package errors provides the structured error types and error-wrapping
// helpers used across the tree-growing core, on top of
// github.com/cockroachdb/errors for stack traces and cause chains.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ValidationError reports a caller-supplied parameter or value that failed
// a validation check (a malformed dataset, an out-of-range hyperparameter,
// a shape mismatch).
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// NewValidationError builds a ValidationError and attaches a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// Is reports whether err matches target anywhere in its cause chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain assignable to target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with message, preserving the original as its cause.
// Used to propagate the first failure out of a fork-join worker region.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace attached.
func New(message string) error {
	return errors.New(message)
}

// Newf is New with a format string.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err if it doesn't already carry one.
func WithStack(err error) error {
	return errors.WithStack(err)
}
