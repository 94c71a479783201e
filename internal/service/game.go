// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the persisted document
//
// Services take repository interfaces, never a concrete store, so tests run
// against in-memory fakes and main.go picks the JSON or sqlite store.
//
// Every roster change goes through repository.MutateGames. The store holds its
// write lock for the whole load→engine→save cycle, which is what guarantees a
// game never ends up with more players than maxPlayers when joins race.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/joinagame/internal/apperror"
	"github.com/sakif/joinagame/internal/metrics"
	"github.com/sakif/joinagame/internal/model"
	"github.com/sakif/joinagame/internal/repository"
	"github.com/sakif/joinagame/internal/roster"
)

// CreateGameInput carries the host-supplied fields of a new game.
// MaxPlayers == 0 means "use the default".
type CreateGameInput struct {
	Sport       string
	Name        string
	Description string
	Location    string
	Date        string
	Time        string
	MaxPlayers  int
	Players     []model.Player
}

// GameService handles game creation and roster changes.
type GameService struct {
	repo    repository.GameRepository
	engine  *roster.Engine
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewGameService wires a GameService. rec may be nil to disable metrics.
func NewGameService(
	repo repository.GameRepository,
	engine *roster.Engine,
	rec *metrics.Recorder,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		repo:    repo,
		engine:  engine,
		metrics: rec,
		logger:  logger,
	}
}

// Create validates in, builds the game with the roster engine and appends it.
func (s *GameService) Create(ctx context.Context, in CreateGameInput) (*model.Game, error) {
	sport := strings.ToLower(strings.TrimSpace(in.Sport))
	if sport == "" {
		return nil, apperror.ValidationFailed("sport", "sport is required")
	}
	if in.MaxPlayers < 0 {
		return nil, apperror.ValidationFailed("maxPlayers", "maxPlayers must not be negative")
	}

	capacity := in.MaxPlayers
	if capacity == 0 {
		capacity = model.DefaultMaxPlayers
	}
	if len(in.Players) > capacity {
		return nil, apperror.ValidationFailed("players",
			fmt.Sprintf("a game for %d players cannot start with %d", capacity, len(in.Players)))
	}

	players := make([]model.Player, 0, len(in.Players))
	seen := make(map[string]bool, len(in.Players))
	for _, p := range in.Players {
		p.UserID = strings.TrimSpace(p.UserID)
		if p.UserID == "" {
			return nil, apperror.ValidationFailed("players", "every initial player needs a userId")
		}
		if seen[p.UserID] {
			return nil, apperror.ValidationFailed("players",
				fmt.Sprintf("player %s is listed more than once", p.UserID))
		}
		seen[p.UserID] = true
		p.PlayerName = strings.TrimSpace(p.PlayerName)
		players = append(players, p)
	}

	game := s.engine.NewGame(roster.Input{
		Sport:       sport,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Date:        strings.TrimSpace(in.Date),
		Time:        strings.TrimSpace(in.Time),
		MaxPlayers:  in.MaxPlayers,
		Players:     players,
	})

	err := s.repo.MutateGames(ctx, func(games []model.Game) ([]model.Game, error) {
		return append(games, game), nil
	})
	if err != nil {
		s.logger.Error("failed to create game",
			slog.String("sport", sport),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating game: %w", err)
	}

	s.metrics.GameCreated(sport)
	s.logger.Info("game created",
		slog.String("id", game.ID),
		slog.String("sport", game.Sport),
		slog.Int("maxPlayers", game.MaxPlayers),
	)

	return &game, nil
}

// GetByID returns apperror.ErrNotFound if the game doesn't exist.
func (s *GameService) GetByID(ctx context.Context, id string) (*model.Game, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "game ID is required")
	}
	return s.repo.FindGameByID(ctx, id)
}

// List returns every game in creation order.
func (s *GameService) List(ctx context.Context) ([]model.Game, error) {
	games, err := s.repo.LoadGames(ctx)
	if err != nil {
		s.logger.Error("failed to list games", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}

// ListBySport returns the games of one sport. Matching is case-insensitive;
// an unknown sport yields an empty list, not an error.
func (s *GameService) ListBySport(ctx context.Context, sport string) ([]model.Game, error) {
	games, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	sport = strings.TrimSpace(sport)
	filtered := make([]model.Game, 0, len(games))
	for _, g := range games {
		if strings.EqualFold(g.Sport, sport) {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

// Join adds userID to the roster of gameID.
//
// Errors: ErrValidation for missing ids, ErrNotFound for an unknown game,
// ErrGameFull and ErrAlreadyJoined from the roster engine.
func (s *GameService) Join(ctx context.Context, gameID, userID, playerName string) (*model.Game, error) {
	gameID = strings.TrimSpace(gameID)
	userID = strings.TrimSpace(userID)
	if gameID == "" {
		return nil, apperror.ValidationFailed("gameId", "game ID is required")
	}
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "userId is required")
	}

	var (
		updated model.Game
		sport   string
	)
	err := s.repo.MutateGames(ctx, func(games []model.Game) ([]model.Game, error) {
		i := indexOfGame(games, gameID)
		if i < 0 {
			return nil, apperror.NotFound("game", gameID)
		}
		sport = games[i].Sport

		g, err := s.engine.Join(games[i], userID, strings.TrimSpace(playerName))
		if err != nil {
			return nil, err
		}
		games[i] = g
		updated = g
		return games, nil
	})

	switch {
	case err == nil:
		s.metrics.JoinAttempt(sport, metrics.OutcomeJoined)
	case errors.Is(err, apperror.ErrGameFull):
		s.metrics.JoinAttempt(sport, metrics.OutcomeFull)
	case errors.Is(err, apperror.ErrAlreadyJoined):
		s.metrics.JoinAttempt(sport, metrics.OutcomeAlreadyJoined)
	}

	if err != nil {
		s.logFailure("join rejected", err,
			slog.String("gameId", gameID),
			slog.String("userId", userID),
		)
		return nil, err
	}

	s.logger.Info("player joined game",
		slog.String("gameId", gameID),
		slog.String("userId", userID),
		slog.Int("players", len(updated.Players)),
		slog.String("status", string(updated.Status)),
	)
	return &updated, nil
}

// Leave removes userID from the roster of gameID. Leaving a game the user is
// not on is not an error; the game still reopens.
func (s *GameService) Leave(ctx context.Context, gameID, userID string) (*model.Game, error) {
	gameID = strings.TrimSpace(gameID)
	userID = strings.TrimSpace(userID)
	if gameID == "" {
		return nil, apperror.ValidationFailed("gameId", "game ID is required")
	}

	var updated model.Game
	err := s.repo.MutateGames(ctx, func(games []model.Game) ([]model.Game, error) {
		i := indexOfGame(games, gameID)
		if i < 0 {
			return nil, apperror.NotFound("game", gameID)
		}
		games[i] = s.engine.Leave(games[i], userID)
		updated = games[i]
		return games, nil
	})
	if err != nil {
		s.logFailure("leave rejected", err,
			slog.String("gameId", gameID),
			slog.String("userId", userID),
		)
		return nil, err
	}

	s.metrics.PlayerLeft(updated.Sport)
	s.logger.Info("player left game",
		slog.String("gameId", gameID),
		slog.String("userId", userID),
		slog.Int("players", len(updated.Players)),
	)
	return &updated, nil
}

// Delete removes a game. Returns apperror.ErrNotFound if it doesn't exist.
func (s *GameService) Delete(ctx context.Context, gameID string) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return apperror.ValidationFailed("gameId", "game ID is required")
	}

	err := s.repo.MutateGames(ctx, func(games []model.Game) ([]model.Game, error) {
		i := indexOfGame(games, gameID)
		if i < 0 {
			return nil, apperror.NotFound("game", gameID)
		}
		return append(games[:i], games[i+1:]...), nil
	})
	if err != nil {
		s.logFailure("delete rejected", err, slog.String("gameId", gameID))
		return err
	}

	s.logger.Info("game deleted", slog.String("id", gameID))
	return nil
}

// logFailure logs client errors quietly and storage failures loudly.
func (s *GameService) logFailure(msg string, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || errors.Is(err, apperror.ErrStorage) {
		level = slog.LevelError
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func indexOfGame(games []model.Game, id string) int {
	for i := range games {
		if games[i].ID == id {
			return i
		}
	}
	return -1
}
