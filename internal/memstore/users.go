// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

// Package memstore provides in-memory implementations of the auth and task
// repositories. Each operation holds the store mutex for its whole
// read-check-write, which gives the same per-record atomicity as the
// PostgreSQL repositories. Records are copied on the way in and out.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holotask/internal/auth"
)

// Users implements auth.UserRepository in memory.
type Users struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
	tokens  map[string]ulid.ULID
}

// NewUsers creates an empty user store.
func NewUsers() *Users {
	return &Users{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
		tokens:  make(map[string]ulid.ULID),
	}
}

// Create stores a copy of user with no sessions.
func (s *Users) Create(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return oops.Code("USER_EMAIL_TAKEN").
			With("email", user.Email).
			Wrap(auth.ErrDuplicateEmail)
	}
	if _, exists := s.byID[user.ID]; exists {
		return oops.Code("USER_CREATE_FAILED").
			With("id", user.ID.String()).
			Errorf("user id already exists")
	}

	stored := cloneUser(user)
	stored.Sessions = []auth.Session{}
	s.byID[user.ID] = stored
	s.byEmail[user.Email] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (s *Users) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return cloneUser(user), nil
}

// GetByEmail retrieves a user by exact email.
func (s *Users) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	return cloneUser(s.byID[id]), nil
}

// AppendSession adds session to the end of the user's list.
func (s *Users) AppendSession(_ context.Context, userID ulid.ULID, session auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", userID.String()).Wrap(auth.ErrNotFound)
	}
	if _, dup := s.tokens[session.Token]; dup {
		return oops.Code("SESSION_APPEND_FAILED").
			With("user_id", userID.String()).
			Errorf("session token already exists")
	}
	user.Sessions = append(user.Sessions, session)
	s.tokens[session.Token] = userID
	return nil
}

// RemoveSession drops the session with token. Absent tokens are ignored.
func (s *Users) RemoveSession(_ context.Context, userID ulid.ULID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return nil
	}
	before := len(user.Sessions)
	user.Sessions = slices.DeleteFunc(user.Sessions, func(sess auth.Session) bool {
		return sess.Token == token
	})
	if len(user.Sessions) != before {
		delete(s.tokens, token)
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (s *Users) UpdatePasswordHash(_ context.Context, userID ulid.ULID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", userID.String()).Wrap(auth.ErrNotFound)
	}
	user.PasswordHash = passwordHash
	return nil
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	c.Sessions = slices.Clone(u.Sessions)
	if c.Sessions == nil {
		c.Sessions = []auth.Session{}
	}
	return &c
}

var _ auth.UserRepository = (*Users)(nil)
