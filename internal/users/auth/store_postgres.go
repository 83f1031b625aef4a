// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/addressbook/internal/platform/apperr"
	"github.com/taibuivan/addressbook/internal/platform/constants"
	"github.com/taibuivan/addressbook/internal/platform/database/schema"
	"github.com/taibuivan/addressbook/internal/platform/dberr"
	"github.com/taibuivan/addressbook/internal/platform/sec"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

var (
	accountTable = schema.UserAccount.Table
	tokenTable   = schema.UserAuthToken.Table
	userColumns  = schema.List(schema.UserAccount.Columns())
)

/*
Create persists a new user record into the users.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist, ID already assigned)

Returns:
  - error: ErrUsernameTaken on a duplicate username, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := `INSERT INTO ` + accountTable + ` (` + userColumns + `) VALUES ($1, $2, $3, $4, $5)`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := repository.pool.Exec(context, query, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if dberr.IsUniqueViolation(err, schema.UserAccount.UsernameKey) {
		return ErrUsernameTaken
	}

	return dberr.Wrap(err, "create_user")
}

// FindByUsername returns the account with the given username.
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	return repository.findOne(context, `SELECT `+userColumns+` FROM `+accountTable+` WHERE username = $1`, username)
}

// FindByID returns the account with the given ID.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, `SELECT `+userColumns+` FROM `+accountTable+` WHERE id = $1`, id)
}

// List returns every account ordered by creation time.
func (repository *PostgresUserRepository) List(context context.Context) ([]*User, error) {
	rows, err := repository.pool.Query(context, `SELECT `+userColumns+` FROM `+accountTable+` ORDER BY createdat, id`)
	if err != nil {
		return nil, dberr.Wrap(err, "list_users")
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_user")
		}
		users = append(users, user)
	}

	return users, dberr.Wrap(rows.Err(), "list_users")
}

// Delete removes the account row.
func (repository *PostgresUserRepository) Delete(context context.Context, id string) error {
	_, err := repository.pool.Exec(context, `DELETE FROM `+accountTable+` WHERE id = $1`, id)
	return dberr.Wrap(err, "delete_user")
}

func (repository *PostgresUserRepository) findOne(context context.Context, query string, arg string) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("User")
	}
	if err != nil {
		return nil, dberr.Wrap(err, "get_user")
	}
	return user, nil
}

// # Token Store

// issueAttempts bounds retries when a generated key collides with another user's key.
const issueAttempts = 3

// PostgresTokenStore implements [TokenStore] over the users.authtoken table.
type PostgresTokenStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTokenStore creates a token store sharing the application pool.
func NewPostgresTokenStore(pool *pgxpool.Pool) *PostgresTokenStore {
	return &PostgresTokenStore{pool: pool}
}

/*
Issue creates a fresh token for userID, replacing any previous one.

Description: The upsert on the unique userid column swaps the key in a single
statement, so there is no moment where both tokens resolve.
*/
func (store *PostgresTokenStore) Issue(context context.Context, userID string) (string, error) {
	query := `
		INSERT INTO ` + tokenTable + ` (key, userid, createdat)
		VALUES ($1, $2, NOW())
		ON CONFLICT (userid) DO UPDATE SET key = EXCLUDED.key, createdat = EXCLUDED.createdat`

	for attempt := 1; ; attempt++ {
		token, err := sec.GenerateSecureToken(constants.AuthTokenBytes)
		if err != nil {
			return "", apperr.Internal(err)
		}

		_, err = store.pool.Exec(context, query, token, userID)
		if err == nil {
			return token, nil
		}

		if !dberr.IsUniqueViolation(err, schema.UserAuthToken.PrimaryKey) || attempt == issueAttempts {
			return "", dberr.Wrap(err, "issue_token")
		}
	}
}

// Resolve returns the user bound to token.
func (store *PostgresTokenStore) Resolve(context context.Context, token string) (string, error) {
	var userID string
	err := store.pool.QueryRow(context, `SELECT userid FROM `+tokenTable+` WHERE key = $1`, token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("Token")
	}
	if err != nil {
		return "", dberr.Wrap(err, "resolve_token")
	}
	return userID, nil
}

// Revoke deletes token.
func (store *PostgresTokenStore) Revoke(context context.Context, token string) error {
	tag, err := store.pool.Exec(context, `DELETE FROM `+tokenTable+` WHERE key = $1`, token)
	if err != nil {
		return dberr.Wrap(err, "revoke_token")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Token")
	}
	return nil
}

// RevokeUser deletes the token of userID, if any.
func (store *PostgresTokenStore) RevokeUser(context context.Context, userID string) error {
	_, err := store.pool.Exec(context, `DELETE FROM `+tokenTable+` WHERE userid = $1`, userID)
	return dberr.Wrap(err, "revoke_user_token")
}
