package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("blog", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("name", "name is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("account", "a@b.com"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("no session"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "NoSelection wraps ErrNoSelection",
			err:       NoSelection(),
			target:    ErrNoSelection,
			wantMatch: true,
		},
		{
			name:      "Persistence wraps ErrPersistence",
			err:       Persistence("write", errors.New("disk full")),
			target:    ErrPersistence,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("blog", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "NoSelection does NOT match ErrNotFound",
			err:       NoSelection(),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("blog", "abc123"),
			wantMessage: "blog not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "NoSelection has a fixed message",
			err:         NoSelection(),
			wantMessage: "no organization is currently selected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("blog", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}

// Wrapped errors keep matching through fmt.Errorf chains: the session store
// wraps repository errors with %w and handlers still need errors.Is to work.
func TestErrorsIsThroughWrapping(t *testing.T) {
	inner := NotFound("organization", "org-1")
	outer := fmt.Errorf("selecting organization: %w", inner)

	if !errors.Is(outer, ErrNotFound) {
		t.Error("errors.Is should match ErrNotFound through a wrapped chain")
	}

	var appErr *AppError
	if !errors.As(outer, &appErr) {
		t.Fatal("errors.As should extract *AppError from the chain")
	}
	if appErr.Message != "organization not found with id org-1" {
		t.Errorf("extracted message = %q", appErr.Message)
	}
}
