// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holotask/internal/auth"
	"github.com/holomush/holotask/internal/store"
)

const emailConstraint = "users_email_key"

// selectUser loads a user and its sessions in append order in one round trip.
const selectUser = `
	SELECT u.id, u.email, u.password_hash, u.created_at,
	       COALESCE(array_agg(s.token ORDER BY s.seq) FILTER (WHERE s.token IS NOT NULL), '{}') AS tokens,
	       COALESCE(array_agg(s.purpose ORDER BY s.seq) FILTER (WHERE s.token IS NOT NULL), '{}') AS purposes
	FROM users u
	LEFT JOIN user_sessions s ON s.user_id = u.id
`

// UserRepository implements auth.UserRepository using PostgreSQL.
// Sessions live in user_sessions, one row per token, so appends and
// removals are single statements and never race with each other.
type UserRepository struct {
	pool store.Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID.String(), user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if store.IsUniqueViolation(err, emailConstraint) {
			return oops.Code("USER_EMAIL_TAKEN").
				With("email", user.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+`
		WHERE u.id = $1
		GROUP BY u.id
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, selectUser+`
		WHERE u.email = $1
		GROUP BY u.id
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// AppendSession inserts one session row.
func (r *UserRepository) AppendSession(ctx context.Context, userID ulid.ULID, session auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_sessions (token, user_id, purpose, created_at)
		VALUES ($1, $2, $3, $4)
	`, session.Token, userID.String(), session.Purpose, time.Now().UTC())
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return oops.Code("USER_NOT_FOUND").
				With("id", userID.String()).
				Wrap(auth.ErrNotFound)
		}
		return oops.Code("SESSION_APPEND_FAILED").
			With("operation", "insert session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// RemoveSession deletes one session row. Deleting nothing is not an error.
func (r *UserRepository) RemoveSession(ctx context.Context, userID ulid.ULID, token string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM user_sessions WHERE user_id = $1 AND token = $2
	`, userID.String(), token)
	if err != nil {
		return oops.Code("SESSION_REMOVE_FAILED").
			With("operation", "delete session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`, userID.String(), passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", userID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a selectUser row.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr        string
		email        string
		passwordHash string
		createdAt    time.Time
		tokens       []string
		purposes     []string
	)
	if err := row.Scan(&idStr, &email, &passwordHash, &createdAt, &tokens, &purposes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with lookup context
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}
	if len(tokens) != len(purposes) {
		return nil, oops.Code("USER_SCAN_FAILED").
			With("tokens", len(tokens)).
			With("purposes", len(purposes)).
			Errorf("session columns are misaligned")
	}

	sessions := make([]auth.Session, len(tokens))
	for i := range tokens {
		sessions[i] = auth.Session{Token: tokens[i], Purpose: purposes[i]}
	}

	return &auth.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Sessions:     sessions,
		CreatedAt:    createdAt,
	}, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
