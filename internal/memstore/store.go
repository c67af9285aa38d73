// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package memstore

import "context"

// Store bundles the in-memory repositories.
type Store struct {
	Users *Users
	Tasks *Tasks
}

// New creates an empty Store.
func New() *Store {
	return &Store{Users: NewUsers(), Tasks: NewTasks()}
}

// Ping always succeeds; it lets Store stand in for a database in readiness checks.
func (s *Store) Ping(context.Context) error {
	return nil
}
