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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, phone, skill_level, profile, created_at, updated_at`

func scanUser(s rowScanner) (model.User, error) {
	var (
		u       model.User
		profile string
	)
	err := s.Scan(
		&u.ID,
		&u.Name,
		&u.Phone,
		&u.SkillLevel,
		&profile,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal([]byte(profile), &u.Profile); err != nil {
		return u, fmt.Errorf("decoding profile of user %s: %w", u.ID, err)
	}
	// An empty profile round-trips as nil so JSON output omits it, matching
	// the document store.
	if len(u.Profile) == 0 {
		u.Profile = nil
	}
	return u, nil
}

func (db *DB) LoadUsers(ctx context.Context) ([]model.User, error) {
	return loadUsers(ctx, db.conn)
}

func loadUsers(ctx context.Context, q querier) ([]model.User, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY position`)
	if err != nil {
		return nil, apperror.StorageFailed("sqlite: listing users", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperror.StorageFailed("sqlite: scanning user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StorageFailed("sqlite: iterating users", err)
	}
	return users, nil
}

// FindUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.StorageFailed(fmt.Sprintf("sqlite: getting user %s", id), err)
	}
	return &u, nil
}

func (db *DB) SaveUsers(ctx context.Context, users []model.User) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return replaceUsers(ctx, tx, users)
	})
}

func (db *DB) MutateUsers(ctx context.Context, fn repository.UserMutator) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		users, err := loadUsers(ctx, tx)
		if err != nil {
			return err
		}
		users, err = fn(users)
		if err != nil {
			return err
		}
		return replaceUsers(ctx, tx, users)
	})
}

func replaceUsers(ctx context.Context, tx *sql.Tx, users []model.User) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return apperror.StorageFailed("sqlite: clearing users", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (`+userColumns+`, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperror.StorageFailed("sqlite: preparing user insert", err)
	}
	defer stmt.Close()

	for i, u := range users {
		profile := u.Profile
		if profile == nil {
			profile = map[string]string{}
		}
		encoded, err := json.Marshal(profile)
		if err != nil {
			return apperror.StorageFailed(fmt.Sprintf("sqlite: encoding profile of user %s", u.ID), err)
		}
		_, err = stmt.ExecContext(ctx,
			u.ID,
			u.Name,
			u.Phone,
			u.SkillLevel,
			string(encoded),
			u.CreatedAt,
			u.UpdatedAt,
			i,
		)
		if err != nil {
			return apperror.StorageFailed(fmt.Sprintf("sqlite: inserting user %s", u.ID), err)
		}
	}

	return touch(ctx, tx)
}
