package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKind(t *testing.T) {
	t.Parallel()

	conflict := &InventoryConflictError{Available: map[string]int{"Club Sandwich": 1}}
	modelErr := NewModelError("openai", "complete", context.DeadlineExceeded)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not_found", err: ErrNotFound, want: "not_found"},
		{name: "not_found_wrapped", err: fmt.Errorf("order abc: %w", ErrNotFound), want: "not_found"},
		{name: "invalid_transition", err: ErrInvalidTransition, want: "invalid_transition"},
		{name: "inventory_conflict_typed", err: conflict, want: "inventory_conflict"},
		{name: "extraction", err: ErrExtractionFailure, want: "extraction_failure"},
		{name: "model_timeout", err: modelErr, want: "timeout"},
		{name: "model", err: NewModelError("genai", "embed", errors.New("boom")), want: "model_failure"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "unknown", err: errors.New("unknown"), want: "internal"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Kind(tt.err); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "not_found", err: fmt.Errorf("wrapped: %w", ErrNotFound), want: http.StatusNotFound},
		{name: "invalid_transition", err: ErrInvalidTransition, want: http.StatusConflict},
		{name: "inventory_conflict", err: &InventoryConflictError{}, want: http.StatusConflict},
		{name: "invalid_input", err: ErrInvalidInput, want: http.StatusBadRequest},
		{name: "deadline", err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{name: "model", err: NewModelError("openai", "complete", errors.New("500")), want: http.StatusBadGateway},
		{name: "unknown", err: errors.New("unknown"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestInventoryConflictErrorMessage(t *testing.T) {
	t.Parallel()

	err := &InventoryConflictError{Available: map[string]int{"Still Water": 0, "Club Sandwich": 2}}
	want := "inventory conflict: Club Sandwich (2 available), Still Water (0 available)"
	if got := err.Error(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if !errors.Is(fmt.Errorf("submit: %w", err), ErrInventoryConflict) {
		t.Fatal("expected wrapped conflict to match ErrInventoryConflict")
	}
}
