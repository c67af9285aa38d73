// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package auth

import (
	"context"
	"errors"
	"slices"

	"github.com/samber/oops"
)

// Identity is an authenticated (user, session) pair.
type Identity struct {
	User  *User
	Token string
}

// Resolver turns a raw bearer token into an Identity. A token resolves only
// if its signature is valid and it is still listed in the user's sessions.
type Resolver struct {
	tokens TokenVerifier
	users  UserRepository
}

// NewResolver creates a Resolver.
func NewResolver(tokens TokenVerifier, users UserRepository) (*Resolver, error) {
	if tokens == nil {
		return nil, oops.Errorf("token verifier is required")
	}
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	return &Resolver{tokens: tokens, users: users}, nil
}

// Resolve verifies rawToken and confirms it is a live session.
// Failure codes: AUTH_MISSING, AUTH_INVALID_SIGNATURE, AUTH_MALFORMED,
// AUTH_UNKNOWN_SUBJECT, AUTH_REVOKED. Storage faults are returned
// with AUTH_RESOLVE_FAILED.
func (r *Resolver) Resolve(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, oops.Code(CodeTokenMissing).Errorf("token is missing")
	}

	claims, err := r.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeTokenUnknownSubject).
				With("user_id", claims.UserID.String()).
				Errorf("token subject does not exist")
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get user by id").
			With("user_id", claims.UserID.String()).
			Wrap(err)
	}

	live := slices.ContainsFunc(user.Sessions, func(s Session) bool {
		return s.Token == rawToken
	})
	if !live {
		return nil, oops.Code(CodeTokenRevoked).
			With("user_id", user.ID.String()).
			Errorf("token is no longer a live session")
	}

	return &Identity{User: user, Token: rawToken}, nil
}
