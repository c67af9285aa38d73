// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package web

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/holotask/internal/task"
)

// mockTaskRepository is a mock for task.Repository.
type mockTaskRepository struct {
	mock.Mock
}

func newMockTaskRepository(t *testing.T) *mockTaskRepository {
	m := new(mockTaskRepository)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTaskRepository) ListByOwner(ctx context.Context, owner ulid.ULID) ([]*task.Task, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *mockTaskRepository) GetOwned(ctx context.Context, owner, id ulid.ULID) (*task.Task, error) {
	args := m.Called(ctx, owner, id)
	return mockTaskResult(args)
}

func (m *mockTaskRepository) UpdateOwned(ctx context.Context, owner, id ulid.ULID, change task.Change) (*task.Task, error) {
	args := m.Called(ctx, owner, id, change)
	return mockTaskResult(args)
}

func (m *mockTaskRepository) DeleteOwned(ctx context.Context, owner, id ulid.ULID) (*task.Task, error) {
	args := m.Called(ctx, owner, id)
	return mockTaskResult(args)
}

func mockTaskResult(args mock.Arguments) (*task.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

var _ task.Repository = (*mockTaskRepository)(nil)
