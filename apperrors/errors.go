package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrNotFound          = errors.New("reservation not found")
	ErrRequiredField     = errors.New("required field missing")
)

// ValidationError is raised before any network call: a required field is
// missing or a status transition is not in the allowed set.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidation wraps err (usually one of the sentinels above) with a field name.
func NewValidation(field, reason string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

// TransientError covers timeouts, connectivity failures and 5xx answers.
// The caller may retry manually; nothing retries automatically.
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend unavailable (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RejectionError is a structurally valid request the backend refused on
// business grounds, e.g. the status was already changed by someone else.
type RejectionError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: rejected by backend (HTTP %d): %s", e.Op, e.StatusCode, e.Message)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsRejection(err error) bool {
	var r *RejectionError
	return errors.As(err, &r)
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsRetryable reports whether repeating the same request may succeed.
func IsRetryable(err error) bool {
	return IsTransient(err)
}

// HTTPStatus maps an error to the status code the floor API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case IsValidation(err):
		return http.StatusBadRequest
	case IsRejection(err):
		return http.StatusConflict
	case IsTransient(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
