// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinTokenSecretLength is the minimum accepted signing secret length in bytes.
const MinTokenSecretLength = 32

// TokenClaims are the verified contents of a bearer token.
type TokenClaims struct {
	UserID  ulid.ULID
	Purpose string
}

// TokenIssuer issues bearer tokens for a user.
type TokenIssuer interface {
	Issue(userID ulid.ULID) (string, error)
}

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// tokenClaims is the JWT payload.
type tokenClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// TokenService signs and verifies HS256 bearer tokens. Tokens carry no
// expiry; revocation is handled by the user's session list.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_INVALID_SECRET").Errorf("token secret is required")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenService{secret: key, now: time.Now}, nil
}

// Issue produces a signed token for userID with purpose "auth".
// Every call yields a distinct token.
func (s *TokenService) Issue(userID ulid.ULID) (string, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return "", oops.Code("TOKEN_INVALID_SUBJECT").Errorf("user ID cannot be zero")
	}

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			IssuedAt: jwt.NewNumericDate(s.now()),
			ID:       ulid.Make().String(),
		},
		Purpose: SessionPurposeAuth,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return signed, nil
}

// Verify checks the token signature and required claims.
// Returns an AUTH_INVALID_SIGNATURE error when the signature does not match
// and an AUTH_MALFORMED error for any other problem.
func (s *TokenService) Verify(token string) (*TokenClaims, error) {
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, oops.Code(CodeTokenInvalidSignature).Errorf("token signature is invalid")
		}
		return nil, oops.Code(CodeTokenMalformed).
			With("cause", err.Error()).
			Errorf("token is malformed")
	}

	if parsed.Purpose != SessionPurposeAuth {
		return nil, oops.Code(CodeTokenMalformed).
			With("purpose", parsed.Purpose).
			Errorf("token purpose is not %q", SessionPurposeAuth)
	}

	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return nil, oops.Code(CodeTokenMalformed).Errorf("token subject is missing")
	}
	userID, err := ulid.ParseStrict(subject)
	if err != nil {
		return nil, oops.Code(CodeTokenMalformed).
			With("subject", subject).
			Errorf("token subject is not a valid id")
	}

	return &TokenClaims{UserID: userID, Purpose: parsed.Purpose}, nil
}

var (
	_ TokenIssuer   = (*TokenService)(nil)
	_ TokenVerifier = (*TokenService)(nil)
)
