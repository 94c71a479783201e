package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/joinagame/internal/apperror"
	"github.com/sakif/joinagame/internal/model"
	"github.com/sakif/joinagame/internal/repository"
)

var _ repository.GameRepository = (*DB)(nil)

const gameColumns = `id, sport, name, description, location, date, time,
	max_players, players, status, created_at, updated_at`

// rowScanner is the part of *sql.Row and *sql.Rows that scanGame needs.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(s rowScanner) (model.Game, error) {
	var (
		g       model.Game
		players string
		status  string
	)
	err := s.Scan(
		&g.ID,
		&g.Sport,
		&g.Name,
		&g.Description,
		&g.Location,
		&g.Date,
		&g.Time,
		&g.MaxPlayers,
		&players,
		&status,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return g, err
	}
	g.Status = model.GameStatus(status)
	if err := json.Unmarshal([]byte(players), &g.Players); err != nil {
		return g, fmt.Errorf("decoding players of game %s: %w", g.ID, err)
	}
	if g.Players == nil {
		g.Players = []model.Player{}
	}
	return g, nil
}

func (db *DB) LoadGames(ctx context.Context) ([]model.Game, error) {
	return loadGames(ctx, db.conn)
}

func loadGames(ctx context.Context, q querier) ([]model.Game, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY position`)
	if err != nil {
		return nil, apperror.StorageFailed("sqlite: listing games", err)
	}
	defer rows.Close()

	games := []model.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, apperror.StorageFailed("sqlite: scanning game", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StorageFailed("sqlite: iterating games", err)
	}
	return games, nil
}

// FindGameByID returns apperror.ErrNotFound if no game exists with that ID.
func (db *DB) FindGameByID(ctx context.Context, id string) (*model.Game, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("game", id)
		}
		return nil, apperror.StorageFailed(fmt.Sprintf("sqlite: getting game %s", id), err)
	}
	return &g, nil
}

// SaveGames replaces the games table with games, preserving slice order.
func (db *DB) SaveGames(ctx context.Context, games []model.Game) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return replaceGames(ctx, tx, games)
	})
}

// MutateGames loads, applies fn and saves in a single transaction.
func (db *DB) MutateGames(ctx context.Context, fn repository.GameMutator) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		games, err := loadGames(ctx, tx)
		if err != nil {
			return err
		}
		games, err = fn(games)
		if err != nil {
			return err
		}
		return replaceGames(ctx, tx, games)
	})
}

func replaceGames(ctx context.Context, tx *sql.Tx, games []model.Game) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM games`); err != nil {
		return apperror.StorageFailed("sqlite: clearing games", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO games (`+gameColumns+`, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperror.StorageFailed("sqlite: preparing game insert", err)
	}
	defer stmt.Close()

	for i, g := range games {
		players := g.Players
		if players == nil {
			players = []model.Player{}
		}
		encoded, err := json.Marshal(players)
		if err != nil {
			return apperror.StorageFailed(fmt.Sprintf("sqlite: encoding players of game %s", g.ID), err)
		}
		_, err = stmt.ExecContext(ctx,
			g.ID,
			g.Sport,
			g.Name,
			g.Description,
			g.Location,
			g.Date,
			g.Time,
			g.MaxPlayers,
			string(encoded),
			string(g.Status),
			g.CreatedAt,
			g.UpdatedAt,
			i,
		)
		if err != nil {
			return apperror.StorageFailed(fmt.Sprintf("sqlite: inserting game %s", g.ID), err)
		}
	}

	return touch(ctx, tx)
}
