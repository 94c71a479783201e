// Package apperror defines the error taxonomy shared by the service and
// handler layers. Services return these; only handlers turn them into HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("Validation Error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrGameFull      = errors.New("game full")
	ErrAlreadyJoined = errors.New("already joined")
	ErrStorage       = errors.New("storage failure")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure (storage errors)
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// GameFull is returned when a join is attempted against a game at capacity.
func GameFull(gameID string) *AppError {
	return &AppError{
		Err:     ErrGameFull,
		Message: "Game is full",
		Field:   gameID,
	}
}

// AlreadyJoined is returned when userID is already on the game's roster.
func AlreadyJoined(gameID, userID string) *AppError {
	return &AppError{
		Err:     ErrAlreadyJoined,
		Message: "Player already in game",
		Field:   userID,
	}
}

// StorageFailed wraps a read or write failure of the persisted document.
// op names what was being attempted, e.g. "reading data file".
func StorageFailed(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: op,
		Cause:   cause,
	}
}
