// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/holotask/pkg/errutil"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by repositories when the email is already taken.
var ErrDuplicateEmail = errors.New("duplicate email")

// Error codes for user input and credential failures.
const (
	CodeInvalidInput       = "USER_INVALID_INPUT"
	CodeDuplicateEmail     = "USER_DUPLICATE_EMAIL"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
)

// Error codes for token resolution failures. Callers outside this package
// must treat all of them as a single unauthenticated outcome.
const (
	CodeTokenMissing          = "AUTH_MISSING"
	CodeTokenInvalidSignature = "AUTH_INVALID_SIGNATURE"
	CodeTokenMalformed        = "AUTH_MALFORMED"
	CodeTokenUnknownSubject   = "AUTH_UNKNOWN_SUBJECT"
	CodeTokenRevoked          = "AUTH_REVOKED"
)

var failureReasons = map[string]string{
	CodeTokenMissing:          "missing",
	CodeTokenInvalidSignature: "invalid_signature",
	CodeTokenMalformed:        "malformed",
	CodeTokenUnknownSubject:   "unknown_subject",
	CodeTokenRevoked:          "revoked",
}

// FailureReason returns the diagnostic reason for a token resolution
// failure ("missing", "invalid_signature", "malformed", "unknown_subject"
// or "revoked"). It returns false for any other error.
func FailureReason(err error) (string, bool) {
	reason, ok := failureReasons[errutil.ErrorCode(err)]
	return reason, ok
}

// IsUnauthenticated reports whether err is a token resolution failure.
func IsUnauthenticated(err error) bool {
	_, ok := FailureReason(err)
	return ok
}

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}
