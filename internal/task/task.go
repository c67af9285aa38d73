// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

// Package task provides owner-scoped todo items.
//
// Every operation takes the owner's id. Repositories filter on it in the
// same statement that reads or writes the record, so a task belonging to
// someone else is indistinguishable from one that does not exist.
package task

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned by repositories when no task matches both the id
// and the owner.
var ErrNotFound = errors.New("task not found")

// Error codes.
const (
	CodeEmptyText = "TASK_EMPTY_TEXT"
	CodeNotFound  = "TASK_NOT_FOUND"
)

// Task is a single todo item.
type Task struct {
	ID        ulid.ULID
	OwnerID   ulid.ULID
	Text      string
	Completed bool
	// CompletedAt is set iff Completed is true.
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// Patch is a caller's partial update. Nil fields are left unchanged.
type Patch struct {
	Text      *string
	Completed *bool
}

// Change is a validated Patch ready for storage. When Completed is set,
// CompletedAt carries the value to store alongside it (nil to clear).
type Change struct {
	Text        *string
	Completed   *bool
	CompletedAt *time.Time
}

// Repository persists tasks. Implementations must apply the owner filter
// and the write in one atomic step.
type Repository interface {
	// Create stores a new task.
	Create(ctx context.Context, t *Task) error

	// ListByOwner returns the owner's tasks in creation order.
	ListByOwner(ctx context.Context, owner ulid.ULID) ([]*Task, error)

	// GetOwned returns the task if it exists and belongs to owner.
	GetOwned(ctx context.Context, owner, id ulid.ULID) (*Task, error)

	// UpdateOwned applies change and returns the updated task.
	UpdateOwned(ctx context.Context, owner, id ulid.ULID, change Change) (*Task, error)

	// DeleteOwned removes the task and returns it as it was.
	DeleteOwned(ctx context.Context, owner, id ulid.ULID) (*Task, error)
}
