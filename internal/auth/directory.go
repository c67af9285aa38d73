// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holotask/pkg/errutil"
)

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Directory provides account operations: registration, login, logout and lookup.
type Directory struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
}

// NewDirectory creates a new Directory using the default logger.
func NewDirectory(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) (*Directory, error) {
	return NewDirectoryWithLogger(users, hasher, tokens, slog.Default())
}

// NewDirectoryWithLogger creates a new Directory with an explicit logger.
func NewDirectoryWithLogger(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) (*Directory, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Directory{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}, nil
}

// Register creates a user and its first session.
// Returns the stored user and the plaintext token of the new session.
func (d *Directory) Register(ctx context.Context, email, password string) (*User, string, error) {
	email = NormalizeEmail(email)
	if err := ValidateRegistration(email, password); err != nil {
		return nil, "", err
	}

	// Pre-check gives a clean error in the common case; the storage
	// uniqueness constraint below is what actually guarantees it.
	_, lookupErr := d.users.GetByEmail(ctx, email)
	switch {
	case lookupErr == nil:
		return nil, "", errDuplicateEmail(email)
	case !errors.Is(lookupErr, ErrNotFound):
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, hash)
	if err != nil {
		return nil, "", err
	}

	if err := d.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", errDuplicateEmail(email)
		}
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	token, err := d.startSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	d.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return user, token, nil
}

// Login authenticates a user and starts an additional session. Existing
// sessions stay valid. Unknown emails and wrong passwords produce the same
// AUTH_INVALID_CREDENTIALS error.
func (d *Directory) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = NormalizeEmail(email)

	user, lookupErr := d.users.GetByEmail(ctx, email)

	var targetHash string
	var userExists bool

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
		targetHash = dummyPasswordHash
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify, so unknown emails take as long as wrong passwords.
	valid, verifyErr := d.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, "", errInvalidCredentials()
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return nil, "", errInvalidCredentials()
	}

	if d.hasher.NeedsUpgrade(user.PasswordHash) {
		d.upgradeHash(ctx, user, password)
	}

	token, err := d.startSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	d.logger.DebugContext(ctx, "user logged in",
		"user_id", user.ID.String(),
		"sessions", len(user.Sessions),
	)
	return user, token, nil
}

// Logout revokes exactly one session. Other sessions stay valid.
// Revoking a token that is not listed is a no-op.
func (d *Directory) Logout(ctx context.Context, user *User, token string) error {
	if user == nil {
		return oops.Code("AUTH_LOGOUT_FAILED").Errorf("user is required")
	}
	if err := d.users.RemoveSession(ctx, user.ID, token); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "remove session").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	kept := user.Sessions[:0]
	for _, s := range user.Sessions {
		if s.Token != token {
			kept = append(kept, s)
		}
	}
	user.Sessions = kept
	return nil
}

// FindByID returns the user with the given ID, or an error wrapping
// ErrNotFound.
func (d *Directory) FindByID(ctx context.Context, id ulid.ULID) (*User, error) {
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		return nil, oops.With("operation", "find user by id").
			With("user_id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// startSession issues a token and appends it to the user's sessions.
// The user must already be persisted.
func (d *Directory) startSession(ctx context.Context, user *User) (string, error) {
	token, err := d.tokens.Issue(user.ID)
	if err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "issue token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	session := Session{Token: token, Purpose: SessionPurposeAuth}
	if err := d.users.AppendSession(ctx, user.ID, session); err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "append session").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	user.Sessions = append(user.Sessions, session)
	return token, nil
}

// upgradeHash rehashes the password with current parameters.
// Login succeeds regardless of the outcome.
func (d *Directory) upgradeHash(ctx context.Context, user *User, password string) {
	newHash, err := d.hasher.Hash(password)
	if err != nil {
		errutil.LogErrorContext(ctx, d.logger, "password hash upgrade failed", err)
		return
	}
	if err := d.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		errutil.LogErrorContext(ctx, d.logger, "password hash upgrade not persisted", err)
		return
	}
	user.PasswordHash = newHash
}

func errDuplicateEmail(email string) error {
	return oops.Code(CodeDuplicateEmail).
		With("email", email).
		Errorf("email is already registered")
}
