// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

// Package auth provides accounts, password hashing and token sessions for HoloTask.
//
// # Domain Types
//
// User records are plain data. Create them with NewUser, which validates the
// email and password hash; direct struct initialization bypasses validation.
// A user's Sessions list holds every token that is currently accepted for it.
//
// # Services
//
//   - Argon2idHasher - password hashing (PasswordHasher)
//   - TokenService - signs and verifies bearer tokens (TokenIssuer, TokenVerifier)
//   - Directory - register, login, logout, lookup
//   - Resolver - raw token to (user, session), checking signature and revocation
//
// A token is accepted only while it is both correctly signed and still listed
// in its user's sessions, so logging out one session leaves the others valid.
// The distinct failure codes returned by Resolver are for logs and metrics;
// callers must present them to clients as one unauthenticated outcome.
package auth
