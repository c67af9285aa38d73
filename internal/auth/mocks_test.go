// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/holotask/internal/auth"
)

// mockUserRepository is a mock for auth.UserRepository.
type mockUserRepository struct {
	mock.Mock
}

func newMockUserRepository(t *testing.T) *mockUserRepository {
	m := new(mockUserRepository)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *mockUserRepository) AppendSession(ctx context.Context, userID ulid.ULID, session auth.Session) error {
	args := m.Called(ctx, userID, session)
	return args.Error(0)
}

func (m *mockUserRepository) RemoveSession(ctx context.Context, userID ulid.ULID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePasswordHash(ctx context.Context, userID ulid.ULID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

// mockPasswordHasher is a mock for auth.PasswordHasher.
type mockPasswordHasher struct {
	mock.Mock
}

func newMockPasswordHasher(t *testing.T) *mockPasswordHasher {
	m := new(mockPasswordHasher)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

func (m *mockPasswordHasher) NeedsUpgrade(hash string) bool {
	args := m.Called(hash)
	return args.Bool(0)
}

// mockTokenIssuer is a mock for auth.TokenIssuer.
type mockTokenIssuer struct {
	mock.Mock
}

func newMockTokenIssuer(t *testing.T) *mockTokenIssuer {
	m := new(mockTokenIssuer)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockTokenIssuer) Issue(userID ulid.ULID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

// mockTokenVerifier is a mock for auth.TokenVerifier.
type mockTokenVerifier struct {
	mock.Mock
}

func newMockTokenVerifier(t *testing.T) *mockTokenVerifier {
	m := new(mockTokenVerifier)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockTokenVerifier) Verify(token string) (*auth.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenClaims), args.Error(1)
}

var (
	_ auth.UserRepository = (*mockUserRepository)(nil)
	_ auth.PasswordHasher = (*mockPasswordHasher)(nil)
	_ auth.TokenIssuer    = (*mockTokenIssuer)(nil)
	_ auth.TokenVerifier  = (*mockTokenVerifier)(nil)
)
