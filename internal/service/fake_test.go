package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/sakif/joinagame/internal/apperror"
	"github.com/sakif/joinagame/internal/model"
	"github.com/sakif/joinagame/internal/repository"
)

var (
	_ repository.GameRepository = (*fakeStore)(nil)
	_ repository.UserRepository = (*fakeStore)(nil)
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore keeps both collections in memory and serializes Mutate* with one
// mutex, the same contract the real stores honour. failNext makes the next
// store call return a storage error.

type fakeStore struct {
	mu       sync.Mutex
	games    []model.Game
	users    []model.User
	failNext bool
}

var errDiskFull = errors.New("disk full")

func (f *fakeStore) fail() error {
	if f.failNext {
		f.failNext = false
		return apperror.StorageFailed("writing data file", errDiskFull)
	}
	return nil
}

func (f *fakeStore) LoadGames(_ context.Context) ([]model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	return slices.Clone(f.games), nil
}

func (f *fakeStore) SaveGames(_ context.Context, games []model.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.games = slices.Clone(games)
	return nil
}

func (f *fakeStore) FindGameByID(_ context.Context, id string) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.games {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, apperror.NotFound("game", id)
}

func (f *fakeStore) MutateGames(_ context.Context, fn repository.GameMutator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	games, err := fn(slices.Clone(f.games))
	if err != nil {
		return err
	}
	f.games = games
	return nil
}

func (f *fakeStore) LoadUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	return slices.Clone(f.users), nil
}

func (f *fakeStore) SaveUsers(_ context.Context, users []model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = slices.Clone(users)
	return nil
}

func (f *fakeStore) FindUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeStore) MutateUsers(_ context.Context, fn repository.UserMutator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	users, err := fn(slices.Clone(f.users))
	if err != nil {
		return err
	}
	f.users = users
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func ptr[T any](v T) *T { return &v }

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
