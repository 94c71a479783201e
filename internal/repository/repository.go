// Package repository declares the storage contracts the services depend on.
//
// The store is whole-collection oriented: games and users are loaded and saved
// as complete slices, mirroring the single persisted document. Mutate* calls
// hold the store's write lock across load, fn and save, which is what keeps the
// roster capacity invariant intact under concurrent requests in one process.
package repository

import (
	"context"

	"github.com/sakif/joinagame/internal/model"
)

// GameMutator receives the current games and returns the collection to persist.
// Returning an error aborts the write.
type GameMutator func(games []model.Game) ([]model.Game, error)

// UserMutator is GameMutator for users.
type UserMutator func(users []model.User) ([]model.User, error)

type GameRepository interface {
	LoadGames(ctx context.Context) ([]model.Game, error)
	// SaveGames overwrites the whole games collection.
	SaveGames(ctx context.Context, games []model.Game) error
	// FindGameByID returns apperror.ErrNotFound when no game has id.
	FindGameByID(ctx context.Context, id string) (*model.Game, error)
	MutateGames(ctx context.Context, fn GameMutator) error
}

type UserRepository interface {
	LoadUsers(ctx context.Context) ([]model.User, error)
	SaveUsers(ctx context.Context, users []model.User) error
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	MutateUsers(ctx context.Context, fn UserMutator) error
}

// Store is the full persisted document.
type Store interface {
	GameRepository
	UserRepository
	Sports(ctx context.Context) ([]string, error)
	// Snapshot returns a copy of the whole document.
	Snapshot(ctx context.Context) (*model.Document, error)
	Close() error
}
