package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/joinagame/internal/apperror"
)

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{"validation", apperror.ValidationFailed("sport", "sport is required"), 400, "validation_error", "sport is required"},
		{"game full", apperror.GameFull("g1"), 400, "game_full", "Game is full"},
		{"already joined", apperror.AlreadyJoined("g1", "u1"), 400, "already_joined", "Player already in game"},
		{"not found", apperror.NotFound("game", "g1"), 404, "not_found", "game not found with id g1"},
		{"forbidden", apperror.Forbidden("nope"), 403, "forbidden", "nope"},
		{"conflict", apperror.Conflict("game", "g1"), 409, "conflict", "game conflict with id g1"},
		{"wrapped", fmt.Errorf("joining: %w", apperror.GameFull("g1")), 400, "game_full", "Game is full"},
		{"storage hides cause", apperror.StorageFailed("writing data file /srv/data.json", errors.New("EIO")), 500, "storage_error", "The data store could not be read or written"},
		{"unknown", errors.New("boom"), 500, "internal_error", "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	big := make([]byte, maxBodyBytes+10)
	for i := range big {
		big[i] = ' '
	}
	big[0] = '"'
	big[len(big)-1] = '"'

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(big))
	var dst string
	ok := decodeJSON(rr, req, &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid_json")
}
