// Package apperr defines the typed error taxonomy shared by the workflow
// engine and the metric calculators. All errors support errors.Is/As so
// callers can branch without string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError reports that a referenced entity does not exist. It is never
// silently treated as a zero value.
type NotFoundError struct {
	Kind string // "sprint", "story", "task", "user", "project"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound creates a NotFoundError for the given entity kind and id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError reports malformed input, rejected before any write.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Invalid creates a field-level ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// Invalidf is a formatted variant of Invalid.
func Invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// CapacityError reports a WIP limit violation on a board move. It is a
// recoverable, user-facing condition, not a system fault.
type CapacityError struct {
	Column string
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("WIP limit exceeded: column %s is at its limit of %d", e.Column, e.Limit)
}

// CapacityExceeded creates a CapacityError for the given column and limit.
func CapacityExceeded(column string, limit int) error {
	return &CapacityError{Column: column, Limit: limit}
}

// PersistenceError wraps a storage failure. The caller owns retry policy.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// Persistence wraps err as a PersistenceError, or returns nil if err is nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Cause: err}
}

// HTTPStatus maps an error to the HTTP status code the dashboard layer
// should respond with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsValidation(err):
		return http.StatusBadRequest
	case IsCapacity(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCapacity reports whether err is or wraps a CapacityError.
func IsCapacity(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}

// IsPersistence reports whether err is or wraps a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
