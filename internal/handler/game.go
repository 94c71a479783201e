package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/joinagame/internal/auth"
	"github.com/sakif/joinagame/internal/model"
	"github.com/sakif/joinagame/internal/service"
)

// GameHandler serves the /api/games routes.
type GameHandler struct {
	games  *service.GameService
	logger *slog.Logger
}

func NewGameHandler(games *service.GameService, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, logger: logger}
}

type createGameRequest struct {
	Sport       string          `json:"sport"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	MaxPlayers  int             `json:"maxPlayers"`
	Players     []playerRequest `json:"players"`
}

type playerRequest struct {
	UserID     string `json:"userId"`
	PlayerName string `json:"playerName"`
}

type joinRequest struct {
	UserID     string `json:"userId"`
	PlayerName string `json:"playerName"`
}

// HandleList handles GET /api/games.
func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleListBySport handles GET /api/games/{sport}.
func (h *GameHandler) HandleListBySport(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.ListBySport(r.Context(), chi.URLParam(r, "sport"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleCreate handles POST /api/games.
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	players := make([]model.Player, 0, len(req.Players))
	for _, p := range req.Players {
		players = append(players, model.Player{UserID: p.UserID, PlayerName: p.PlayerName})
	}

	game, err := h.games.Create(r.Context(), service.CreateGameInput{
		Sport:       req.Sport,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Time:        req.Time,
		MaxPlayers:  req.MaxPlayers,
		Players:     players,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// HandleJoin handles POST /api/games/{gameId}/join with body
// {"userId": "...", "playerName": "..."}.
func (h *GameHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := auth.AuthorizeUser(r.Context(), req.UserID); err != nil {
		writeError(w, err)
		return
	}

	game, err := h.games.Join(r.Context(), chi.URLParam(r, "gameId"), req.UserID, req.PlayerName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// HandleLeave handles DELETE /api/games/{gameId}/players/{userId}.
func (h *GameHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := auth.AuthorizeUser(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	game, err := h.games.Leave(r.Context(), chi.URLParam(r, "gameId"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// HandleDelete handles DELETE /api/games/{gameId}.
func (h *GameHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.games.Delete(r.Context(), chi.URLParam(r, "gameId")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Game deleted successfully"})
}
