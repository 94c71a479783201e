// Package roster applies create, join and leave to a single game.
//
// The engine is pure: it takes a model.Game value, returns a new one, and never
// touches storage, logs or retries. Loading the game, persisting the result and
// serializing concurrent mutations are the store's and the service's job.
//
// Status rules:
//
//	open --(join fills the roster)--> full
//	full --(any leave)-------------> open
//	open --(leave)-----------------> open
//
// completed and cancelled are never entered here.
package roster

import (
	"time"

	"github.com/rs/xid"

	"github.com/sakif/joinagame/internal/apperror"
	"github.com/sakif/joinagame/internal/model"
)

// Input carries the host-supplied fields for a new game.
// MaxPlayers <= 0 means "use the default".
type Input struct {
	Sport       string
	Name        string
	Description string
	Location    string
	Date        string
	Time        string
	MaxPlayers  int
	Players     []model.Player
}

// Engine holds the two non-deterministic inputs of the roster rules: the clock
// and the ID generator. Both are swappable for tests.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how game IDs are generated.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// New returns an Engine using UTC wall-clock time and xid identifiers.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return xid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewGame builds a fresh game from in. It never fails: missing optional fields
// are filled with defaults and the status always starts as open.
func (e *Engine) NewGame(in Input) model.Game {
	now := e.now()

	maxPlayers := in.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = model.DefaultMaxPlayers
	}

	players := make([]model.Player, 0, len(in.Players))
	for _, p := range in.Players {
		if p.JoinedAt.IsZero() {
			p.JoinedAt = now
		}
		players = append(players, p)
	}

	return model.Game{
		ID:          e.newID(),
		Sport:       in.Sport,
		Name:        in.Name,
		Description: in.Description,
		Location:    in.Location,
		Date:        in.Date,
		Time:        in.Time,
		MaxPlayers:  maxPlayers,
		Players:     players,
		Status:      model.GameStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Join appends userID to the roster.
//
// Capacity is checked before membership, so a user retrying a join on a game
// that is already full gets apperror.ErrGameFull rather than ErrAlreadyJoined.
// On error the game is returned unchanged.
func (e *Engine) Join(game model.Game, userID, playerName string) (model.Game, error) {
	if game.IsFull() {
		return game, apperror.GameFull(game.ID)
	}
	if game.HasPlayer(userID) {
		return game, apperror.AlreadyJoined(game.ID, userID)
	}

	now := e.now()

	players := make([]model.Player, len(game.Players), len(game.Players)+1)
	copy(players, game.Players)
	game.Players = append(players, model.Player{
		UserID:     userID,
		PlayerName: playerName,
		JoinedAt:   now,
	})
	game.UpdatedAt = now
	game.Status = Status(game)

	return game, nil
}

// Leave removes every roster entry for userID.
//
// It is not an error for userID to be absent. The timestamp is refreshed and
// the status reset to open in every case, including that no-op one: there is
// no "almost full" state, so any departure reopens the game.
func (e *Engine) Leave(game model.Game, userID string) model.Game {
	players := make([]model.Player, 0, len(game.Players))
	for _, p := range game.Players {
		if p.UserID != userID {
			players = append(players, p)
		}
	}

	game.Players = players
	game.UpdatedAt = e.now()
	game.Status = model.GameStatusOpen

	return game
}

// Status derives the open/full status from the roster size. Reserved statuses
// (completed, cancelled) are left alone.
func Status(game model.Game) model.GameStatus {
	switch game.Status {
	case model.GameStatusCompleted, model.GameStatusCancelled:
		return game.Status
	}
	if game.IsFull() {
		return model.GameStatusFull
	}
	return model.GameStatusOpen
}
