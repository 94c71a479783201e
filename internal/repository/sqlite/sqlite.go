// Package sqlite implements repository.Store using SQLite as the storage backend.
//
// It is the alternative to the JSON document store for deployments that want
// a real database file. The contract stays whole-collection: SaveGames and
// SaveUsers replace the table contents inside one transaction, and the
// Mutate* calls run load, fn and save in that same transaction.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed to build or cross-compile the server.
//
// The pool is capped at one connection. That makes ":memory:" databases work
// (every new connection would otherwise get its own empty database) and it
// serializes every transaction, which is what keeps the roster capacity
// invariant intact under concurrent joins.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/joinagame/internal/apperror"
	"github.com/sakif/joinagame/internal/model"
	"github.com/sakif/joinagame/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

const metaLastUpdated = "last_updated"

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx, so the read helpers can
// run inside or outside a transaction.
//
// Inside a transaction always pass the tx: with a single pooled connection,
// going back to db.conn would wait forever for the connection the tx holds.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/joinagame.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers from other processes (backups, sqlite3 CLI) proceed
	// while the server writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn, logger: logger}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema and, on a fresh database, seeds the default
// sports. CREATE TABLE IF NOT EXISTS keeps it safe to run on every start.
func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			position    INTEGER NOT NULL,
			name        TEXT NOT NULL,
			phone       TEXT NOT NULL DEFAULT '',
			skill_level TEXT NOT NULL DEFAULT '',
			profile     TEXT NOT NULL DEFAULT '{}',
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_users_position ON users(position);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// players is the roster as a JSON array. It is only ever read and written
	// together with its game, so a join table would buy nothing.
	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id          TEXT PRIMARY KEY,
			position    INTEGER NOT NULL,
			sport       TEXT NOT NULL,
			name        TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			location    TEXT NOT NULL DEFAULT '',
			date        TEXT NOT NULL DEFAULT '',
			time        TEXT NOT NULL DEFAULT '',
			max_players INTEGER NOT NULL,
			players     TEXT NOT NULL DEFAULT '[]',
			status      TEXT NOT NULL,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_games_position ON games(position);
		CREATE INDEX IF NOT EXISTS idx_games_sport ON games(sport);
	`)
	if err != nil {
		return fmt.Errorf("creating games table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sports (
			position INTEGER PRIMARY KEY,
			name     TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating sports/meta tables: %w", err)
	}

	// A missing last_updated row means the database has never been written:
	// seed it the same way the JSON store seeds a new document.
	fresh := false
	if _, err := db.lastUpdated(ctx, db.conn); errors.Is(err, sql.ErrNoRows) {
		fresh = true
	} else if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		for i, sport := range model.DefaultSports {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO sports (position, name) VALUES (?, ?)`, i, sport,
			); err != nil {
				return fmt.Errorf("seeding sport %s: %w", sport, err)
			}
		}
		db.logger.Info("seeded new database", slog.Int("sports", len(model.DefaultSports)))
		return touch(ctx, tx)
	})
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error. Errors from fn are returned untouched so domain errors survive.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.StorageFailed("sqlite: beginning transaction", err)
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperror.StorageFailed("sqlite: committing transaction", err)
	}
	return nil
}

// touch records the time of the latest write.
func touch(ctx context.Context, q querier) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		metaLastUpdated, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return apperror.StorageFailed("sqlite: updating last_updated", err)
	}
	return nil
}

func (db *DB) lastUpdated(ctx context.Context, q querier) (time.Time, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaLastUpdated).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, err
		}
		return time.Time{}, apperror.StorageFailed("sqlite: reading last_updated", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, apperror.StorageFailed("sqlite: parsing last_updated", err)
	}
	return ts, nil
}

// Sports returns the configured sports in seed order.
func (db *DB) Sports(ctx context.Context) ([]string, error) {
	return loadSports(ctx, db.conn)
}

func loadSports(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM sports ORDER BY position`)
	if err != nil {
		return nil, apperror.StorageFailed("sqlite: listing sports", err)
	}
	defer rows.Close()

	sports := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperror.StorageFailed("sqlite: scanning sport", err)
		}
		sports = append(sports, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StorageFailed("sqlite: iterating sports", err)
	}
	return sports, nil
}

// Snapshot assembles the whole document inside one read transaction so the
// collections are consistent with each other.
func (db *DB) Snapshot(ctx context.Context) (*model.Document, error) {
	doc := &model.Document{}
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if doc.Users, err = loadUsers(ctx, tx); err != nil {
			return err
		}
		if doc.Games, err = loadGames(ctx, tx); err != nil {
			return err
		}
		if doc.Sports, err = loadSports(ctx, tx); err != nil {
			return err
		}
		doc.LastUpdated, err = db.lastUpdated(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
