package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrModelFailure      = errors.New("model failure")
	ErrExtractionFailure = errors.New("extraction failure")
	ErrInventoryConflict = errors.New("inventory conflict")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidInput      = errors.New("invalid input")
)

// ModelError wraps a failed call to an inference backend
type ModelError struct {
	Backend string
	Op      string
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *ModelError) Unwrap() []error {
	return []error{ErrModelFailure, e.Err}
}

// NewModelError builds a ModelError for the given backend operation
func NewModelError(backend, op string, err error) error {
	return &ModelError{Backend: backend, Op: op, Err: err}
}

// InventoryConflictError reports the stock that was actually available for
// every item that could not be reserved.
type InventoryConflictError struct {
	Available map[string]int
}

func (e *InventoryConflictError) Error() string {
	names := make([]string, 0, len(e.Available))
	for name := range e.Available {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d available)", name, e.Available[name])
	}
	return "inventory conflict: " + strings.Join(parts, ", ")
}

func (e *InventoryConflictError) Is(target error) bool {
	return target == ErrInventoryConflict
}

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"

	case errors.Is(err, ErrInventoryConflict):
		return "inventory_conflict"

	case errors.Is(err, ErrExtractionFailure):
		return "extraction_failure"

	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, ErrModelFailure):
		return "model_failure"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInventoryConflict):
		return http.StatusConflict

	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrExtractionFailure),
		errors.Is(err, context.Canceled):
		return http.StatusBadRequest

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, ErrModelFailure):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
