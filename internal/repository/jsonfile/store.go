// Package jsonfile implements repository.Store on top of a single JSON document.
//
// The whole document is read on every call and rewritten on every mutation.
// Writes go through atomicwriter (temp file + rename), so a failed or
// interrupted write leaves the previous document intact instead of a truncated
// one. A single mutex serializes every access from this process; nothing
// protects the file from other processes writing to it.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/sakif/joinagame/internal/apperror"
	"github.com/sakif/joinagame/internal/model"
	"github.com/sakif/joinagame/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store is the JSON-file backed store.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// Open prepares the document at path, creating the parent directory and an
// initial document (with the default sports) when it does not exist yet.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperror.StorageFailed("creating data directory", err)
	}

	s := &Store{path: path, logger: logger}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.write(model.NewDocument()); err != nil {
			return nil, err
		}
		logger.Info("created initial data file", slog.String("path", path))
	case err != nil:
		return nil, apperror.StorageFailed("checking data file", err)
	default:
		// Fail fast on a corrupt file rather than on the first request.
		if _, err := s.read(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Path returns the location of the backing document.
func (s *Store) Path() string {
	return s.path
}

// Close is a no-op; the file is not held open between calls.
func (s *Store) Close() error {
	return nil
}

func (s *Store) LoadGames(ctx context.Context) ([]model.Game, error) {
	doc, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Games, nil
}

func (s *Store) SaveGames(ctx context.Context, games []model.Game) error {
	return s.update(ctx, func(doc *model.Document) error {
		doc.Games = games
		return nil
	})
}

func (s *Store) FindGameByID(ctx context.Context, id string) (*model.Game, error) {
	doc, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Games {
		if doc.Games[i].ID == id {
			return &doc.Games[i], nil
		}
	}
	return nil, apperror.NotFound("game", id)
}

func (s *Store) MutateGames(ctx context.Context, fn repository.GameMutator) error {
	return s.update(ctx, func(doc *model.Document) error {
		games, err := fn(doc.Games)
		if err != nil {
			return err
		}
		doc.Games = games
		return nil
	})
}

func (s *Store) LoadUsers(ctx context.Context) ([]model.User, error) {
	doc, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (s *Store) SaveUsers(ctx context.Context, users []model.User) error {
	return s.update(ctx, func(doc *model.Document) error {
		doc.Users = users
		return nil
	})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	doc, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Users {
		if doc.Users[i].ID == id {
			return &doc.Users[i], nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (s *Store) MutateUsers(ctx context.Context, fn repository.UserMutator) error {
	return s.update(ctx, func(doc *model.Document) error {
		users, err := fn(doc.Users)
		if err != nil {
			return err
		}
		doc.Users = users
		return nil
	})
}

func (s *Store) Sports(ctx context.Context) ([]string, error) {
	doc, err := s.view(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Sports, nil
}

func (s *Store) Snapshot(ctx context.Context) (*model.Document, error) {
	return s.view(ctx)
}

// view reads the document under the lock. Every call decodes a fresh copy, so
// callers may keep or modify what they get back.
func (s *Store) view(ctx context.Context) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// update runs fn against the current document and writes the result back,
// holding the lock for the whole read-modify-write.
func (s *Store) update(ctx context.Context, fn func(doc *model.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.write(doc)
}

func (s *Store) read() (*model.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apperror.StorageFailed("reading data file", err)
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperror.StorageFailed("parsing data file", err)
	}

	// Hand-edited or legacy files may carry nulls; the API always returns arrays.
	if doc.Users == nil {
		doc.Users = []model.User{}
	}
	if doc.Games == nil {
		doc.Games = []model.Game{}
	}
	if doc.Sports == nil {
		doc.Sports = []string{}
	}
	for i := range doc.Games {
		if doc.Games[i].Players == nil {
			doc.Games[i].Players = []model.Player{}
		}
	}

	return &doc, nil
}

func (s *Store) write(doc *model.Document) error {
	doc.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperror.StorageFailed("encoding data file", err)
	}

	if err := atomicwriter.WriteFile(s.path, data, 0o644); err != nil {
		return apperror.StorageFailed(fmt.Sprintf("writing data file %s", s.path), err)
	}

	s.logger.Debug("data file written",
		slog.String("path", s.path),
		slog.Int("games", len(doc.Games)),
		slog.Int("users", len(doc.Users)),
	)
	return nil
}
