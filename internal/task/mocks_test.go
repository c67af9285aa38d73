// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package task_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/holotask/internal/task"
)

// mockRepository is a mock for task.Repository.
type mockRepository struct {
	mock.Mock
}

func newMockRepository(t *testing.T) *mockRepository {
	m := new(mockRepository)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepository) ListByOwner(ctx context.Context, owner ulid.ULID) ([]*task.Task, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *mockRepository) GetOwned(ctx context.Context, owner, id ulid.ULID) (*task.Task, error) {
	args := m.Called(ctx, owner, id)
	return taskResult(args)
}

func (m *mockRepository) UpdateOwned(ctx context.Context, owner, id ulid.ULID, change task.Change) (*task.Task, error) {
	args := m.Called(ctx, owner, id, change)
	return taskResult(args)
}

func (m *mockRepository) DeleteOwned(ctx context.Context, owner, id ulid.ULID) (*task.Task, error) {
	args := m.Called(ctx, owner, id)
	return taskResult(args)
}

func taskResult(args mock.Arguments) (*task.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

var _ task.Repository = (*mockRepository)(nil)
