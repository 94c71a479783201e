package model

import "time"

// DefaultMaxPlayers is the capacity a game gets when the host leaves it unset.
const DefaultMaxPlayers = 4

// GameStatus is the lifecycle state of a game.
//
// Only Open and Full are driven by roster changes. Completed and Cancelled are
// reserved: nothing in this service transitions a game into them yet.
type GameStatus string

const (
	GameStatusOpen      GameStatus = "open"
	GameStatusFull      GameStatus = "full"
	GameStatusCompleted GameStatus = "completed"
	GameStatusCancelled GameStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusOpen, GameStatusFull, GameStatusCompleted, GameStatusCancelled:
		return true
	}
	return false
}

// Game is a hostable, joinable meetup for a sport.
//
// Players is ordered by join time. The roster engine (internal/roster) is the
// only code that should append to or remove from it.
type Game struct {
	ID          string     `json:"id"`
	Sport       string     `json:"sport"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Date        string     `json:"date,omitempty"`
	Time        string     `json:"time,omitempty"`
	MaxPlayers  int        `json:"maxPlayers"`
	Players     []Player   `json:"players"`
	Status      GameStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Player is one roster entry. PlayerName is captured at join time and is not
// kept in sync with the user's profile name.
type Player struct {
	UserID     string    `json:"userId"`
	PlayerName string    `json:"playerName"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// HasPlayer reports whether userID is on the roster.
func (g *Game) HasPlayer(userID string) bool {
	for _, p := range g.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the roster has reached capacity.
func (g *Game) IsFull() bool {
	return len(g.Players) >= g.MaxPlayers
}
