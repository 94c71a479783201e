package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/joinagame/internal/auth"
	"github.com/sakif/joinagame/internal/handler"
	"github.com/sakif/joinagame/internal/model"
	"github.com/sakif/joinagame/internal/repository/jsonfile"
	"github.com/sakif/joinagame/internal/roster"
	"github.com/sakif/joinagame/internal/service"
)

type testAPI struct {
	router http.Handler
	store  *jsonfile.Store
	tokens *auth.TokenService
}

// newTestAPI wires the handlers onto a chi router over a JSON store in a
// temporary directory. withTokens switches player tokens on.
func newTestAPI(t *testing.T, withTokens bool) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "data.json"), logger)
	require.NoError(t, err)

	var tokens *auth.TokenService
	if withTokens {
		tokens, err = auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
		require.NoError(t, err)
	}

	games := handler.NewGameHandler(service.NewGameService(store, roster.New(), nil, logger), logger)
	users := handler.NewUserHandler(service.NewUserService(store, logger), tokens, false, logger)
	system := handler.NewSystemHandler(store, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", system.HandleHealth)
		r.Get("/data", system.HandleData)
		r.Get("/sports", system.HandleSports)

		r.Get("/users", users.HandleList)
		r.Post("/users", users.HandleCreate)
		r.Get("/users/{userId}", users.HandleGetByID)
		r.Put("/users/{userId}", users.HandleUpdate)

		r.Get("/games", games.HandleList)
		r.Post("/games", games.HandleCreate)
		r.Get("/games/{sport}", games.HandleListBySport)
		r.Delete("/games/{gameId}", games.HandleDelete)

		r.Group(func(r chi.Router) {
			if tokens != nil {
				r.Use(auth.RequireAuth(tokens))
			}
			r.Post("/games/{gameId}/join", games.HandleJoin)
			r.Delete("/games/{gameId}/players/{userId}", games.HandleLeave)
		})
	})

	return &testAPI{router: r, store: store, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, method, path, body string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) createGame(t *testing.T, body string) model.Game {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/games", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var g model.Game
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&g))
	return g
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var e handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
	return e
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}
