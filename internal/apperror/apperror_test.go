// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"io/fs"
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
			err:       NotFound("game", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("sport", "sport is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("game", "abc123"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "GameFull wraps ErrGameFull",
			err:       GameFull("abc123"),
			target:    ErrGameFull,
			wantMatch: true,
		},
		{
			name:      "AlreadyJoined wraps ErrAlreadyJoined",
			err:       AlreadyJoined("abc123", "u1"),
			target:    ErrAlreadyJoined,
			wantMatch: true,
		},
		{
			name:      "StorageFailed wraps ErrStorage",
			err:       StorageFailed("reading data file", fs.ErrPermission),
			target:    ErrStorage,
			wantMatch: true,
		},
		{
			name:      "StorageFailed also exposes its cause",
			err:       StorageFailed("reading data file", fs.ErrPermission),
			target:    fs.ErrPermission,
			wantMatch: true,
		},
		{
			name:      "GameFull does NOT match ErrAlreadyJoined",
			err:       GameFull("abc123"),
			target:    ErrAlreadyJoined,
			wantMatch: false,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("game", "abc123"),
			target:    ErrValidation,
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
			err:         NotFound("game", "abc123"),
			wantMessage: "game not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("sport", "sport is required"),
			wantMessage: "sport is required",
		},
		{
			name:        "GameFull message",
			err:         GameFull("abc123"),
			wantMessage: "Game is full",
		},
		{
			name:        "AlreadyJoined message",
			err:         AlreadyJoined("abc123", "u1"),
			wantMessage: "Player already in game",
		},
		{
			name:        "StorageFailed includes the cause",
			err:         StorageFailed("writing data file", errors.New("disk full")),
			wantMessage: "writing data file: disk full",
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

func TestErrorsAsThroughWrapping(t *testing.T) {
	wrapped := errors.Join(errors.New("joining game"), GameFull("g1"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() should find the *AppError")
	}
	if appErr.Message != "Game is full" {
		t.Errorf("Message = %q, want %q", appErr.Message, "Game is full")
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("maxPlayers", "maxPlayers must not be negative")

	if err.Field != "maxPlayers" {
		t.Errorf("Field = %q, want %q", err.Field, "maxPlayers")
	}
}
