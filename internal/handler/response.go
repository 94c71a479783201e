package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON and every failure through
// writeError, so the API has one error shape:
//
//	{"error": "game_full", "message": "Game is full"}
//
// "error" is machine-readable and stable; "message" is for people.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/joinagame/internal/apperror"
)

// maxBodyBytes caps request bodies. Rosters and profiles are tiny.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// MessageResponse is the body of operations that have nothing else to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorMapping pairs a sentinel with its HTTP status and error type. Order
// matters only for errors that wrap more than one sentinel.
var errorMapping = []struct {
	target    error
	status    int
	errorType string
}{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrGameFull, http.StatusBadRequest, "game_full"},
	{apperror.ErrAlreadyJoined, http.StatusBadRequest, "already_joined"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrStorage, http.StatusInternalServerError, "storage_error"},
}

// writeError maps a domain error to an HTTP status and sends it.
//
// Services return apperror values and never know about HTTP; this is the
// only place the translation happens. Storage and unknown errors never leak
// their cause (file paths, SQL) to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, m := range errorMapping {
			if !errors.Is(err, m.target) {
				continue
			}
			message := appErr.Message
			if m.status >= http.StatusInternalServerError {
				message = "The data store could not be read or written"
			}
			writeJSON(w, m.status, ErrorResponse{Error: m.errorType, Message: message})
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a JSON body into dst. Failures are written to w as
// 400 invalid_json and reported as false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "Request body must be valid JSON"
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			msg = "Request body is empty"
		case errors.As(err, &maxErr):
			msg = fmt.Sprintf("Request body must not exceed %d bytes", maxErr.Limit)
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Message: msg})
		return false
	}
	return true
}
