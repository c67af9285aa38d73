// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionPurposeAuth is the only session purpose currently issued.
const SessionPurposeAuth = "auth"

// Password length constraints.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

var emailRegex = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// Session is one issued token tracked on its user.
type Session struct {
	Token   string
	Purpose string
}

// User represents a registered account.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	// Sessions is in append order, most recent last.
	Sessions  []Session
	CreatedAt time.Time
}

// NewUser creates a validated User with no sessions.
// The email is trimmed before validation.
func NewUser(email, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, oops.Code(CodeInvalidInput).With("field", "email").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		Sessions:     []Session{},
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NormalizeEmail trims surrounding whitespace. Case is preserved.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// ValidateRegistration checks an (already normalized) email and a password.
// All field problems are reported together in the "fields" context key.
func ValidateRegistration(email, password string) error {
	fields := make(map[string]string)
	check := func(cond bool, key, msg string) {
		if cond {
			return
		}
		if _, ok := fields[key]; !ok {
			fields[key] = msg
		}
	}

	check(email != "", "email", "must be provided")
	check(emailRegex.MatchString(email), "email", "must be a valid email address")
	check(password != "", "password", "must be provided")
	check(len(password) >= MinPasswordLength, "password", "must be at least 6 characters long")
	check(len(password) <= MaxPasswordLength, "password", "must be at most 72 characters long")

	if len(fields) == 0 {
		return nil
	}
	return oops.Code(CodeInvalidInput).
		With("fields", fields).
		Errorf("invalid registration input")
}

// UserRepository manages user persistence.
// Session mutations must be atomic per user: concurrent appends are never lost.
type UserRepository interface {
	// Create stores a new user. Sessions are not stored; use AppendSession.
	// Returns an error wrapping ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user, including sessions, by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user, including sessions, by exact email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// AppendSession adds a session to the end of the user's session list.
	// Returns an error wrapping ErrNotFound if the user does not exist.
	AppendSession(ctx context.Context, userID ulid.ULID, session Session) error

	// RemoveSession removes the session with the given token.
	// Removing an absent token is not an error.
	RemoveSession(ctx context.Context, userID ulid.ULID, token string) error

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, userID ulid.ULID, passwordHash string) error
}
