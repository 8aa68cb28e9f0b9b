package models

import (
	"errors"
	"fmt"
)

// The pipeline's error taxonomy. Handlers, stores and the orchestrator all
// classify failures through these types; the HTTP layer maps them to status
// codes with the Is* helpers.

// ValidationError signals bad input: unsupported keys, empty key lists,
// a missing required id, or an update payload that sanitized down to
// nothing. Validation failures surface before any execution row is written.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError signals a missing action, entity or execution.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewNotFoundError builds a NotFoundError with a formatted message.
func NewNotFoundError(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError signals a state conflict: mutating a system-owned action,
// or applying an execution that is not applicable (wrong status, already
// applied, no proposal).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflictError builds a ConflictError with a formatted message.
func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ModelInvocationError wraps a failure of the generative model call. The
// failure is captured into the execution row as failed, then re-raised.
type ModelInvocationError struct {
	Err error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// NewModelInvocationError wraps err as a ModelInvocationError.
func NewModelInvocationError(err error) error {
	return &ModelInvocationError{Err: err}
}

// ApplyError wraps an entity-store write failure during apply. The
// execution row stays unapplied, so a retry of the apply is safe.
type ApplyError struct {
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply failed: %v", e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// NewApplyError wraps err as an ApplyError.
func NewApplyError(err error) error {
	return &ApplyError{Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsModelInvocation reports whether err is (or wraps) a
// ModelInvocationError.
func IsModelInvocation(err error) bool {
	var m *ModelInvocationError
	return errors.As(err, &m)
}

// IsApply reports whether err is (or wraps) an ApplyError.
func IsApply(err error) bool {
	var a *ApplyError
	return errors.As(err, &a)
}
