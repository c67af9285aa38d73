// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holotask/internal/task"
)

// Tasks implements task.Repository in memory.
type Tasks struct {
	mu    sync.RWMutex
	byID  map[ulid.ULID]*task.Task
	order []ulid.ULID
}

// NewTasks creates an empty task store.
func NewTasks() *Tasks {
	return &Tasks{byID: make(map[ulid.ULID]*task.Task)}
}

// Create stores a copy of t.
func (s *Tasks) Create(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[t.ID]; exists {
		return oops.Code("TASK_CREATE_FAILED").
			With("task_id", t.ID.String()).
			Errorf("task id already exists")
	}
	s.byID[t.ID] = cloneTask(t)
	s.order = append(s.order, t.ID)
	return nil
}

// ListByOwner returns owner's tasks in creation order.
func (s *Tasks) ListByOwner(_ context.Context, owner ulid.ULID) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*task.Task{}
	for _, id := range s.order {
		if t := s.byID[id]; t.OwnerID == owner {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

// GetOwned returns the task if owner owns it.
func (s *Tasks) GetOwned(_ context.Context, owner, id ulid.ULID) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.owned(owner, id)
	if err != nil {
		return nil, err
	}
	return cloneTask(t), nil
}

// UpdateOwned applies change if owner owns the task.
func (s *Tasks) UpdateOwned(_ context.Context, owner, id ulid.ULID, change task.Change) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.owned(owner, id)
	if err != nil {
		return nil, err
	}
	if change.Text != nil {
		t.Text = *change.Text
	}
	if change.Completed != nil {
		t.Completed = *change.Completed
		t.CompletedAt = nil
		if t.Completed && change.CompletedAt != nil {
			at := *change.CompletedAt
			t.CompletedAt = &at
		}
	}
	return cloneTask(t), nil
}

// DeleteOwned removes the task if owner owns it.
func (s *Tasks) DeleteOwned(_ context.Context, owner, id ulid.ULID) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.owned(owner, id)
	if err != nil {
		return nil, err
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(other ulid.ULID) bool { return other == id })
	return t, nil
}

// owned must be called with s.mu held.
func (s *Tasks) owned(owner, id ulid.ULID) (*task.Task, error) {
	t, ok := s.byID[id]
	if !ok || t.OwnerID != owner {
		return nil, oops.Code("TASK_NOT_FOUND").
			With("task_id", id.String()).
			Wrap(task.ErrNotFound)
	}
	return t, nil
}

func cloneTask(t *task.Task) *task.Task {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

var _ task.Repository = (*Tasks)(nil)
