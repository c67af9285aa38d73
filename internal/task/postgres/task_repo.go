// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

// Package postgres implements task.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holotask/internal/store"
	"github.com/holomush/holotask/internal/task"
)

const taskColumns = `id, owner_id, text, completed, completed_at, created_at`

// TaskRepository implements task.Repository using PostgreSQL. Every
// statement that touches an existing task filters on both id and owner_id.
type TaskRepository struct {
	pool store.Querier
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool store.Querier) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create stores a new task.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, owner_id, text, completed, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID.String(), t.OwnerID.String(), t.Text, t.Completed, t.CompletedAt, t.CreatedAt)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return oops.Code("TASK_OWNER_NOT_FOUND").
				With("owner_id", t.OwnerID.String()).
				Wrap(err)
		}
		return oops.Code("TASK_INSERT_FAILED").
			With("operation", "insert task").
			With("task_id", t.ID.String()).
			Wrap(err)
	}
	return nil
}

// ListByOwner returns the owner's tasks ordered by creation time, then id.
func (r *TaskRepository) ListByOwner(ctx context.Context, owner ulid.ULID) ([]*task.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, owner.String())
	if err != nil {
		return nil, oops.With("operation", "list tasks").With("owner_id", owner.String()).Wrap(err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate tasks").With("owner_id", owner.String()).Wrap(err)
	}
	return tasks, nil
}

// GetOwned returns the task if it belongs to owner.
func (r *TaskRepository) GetOwned(ctx context.Context, owner, id ulid.ULID) (*task.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND owner_id = $2
	`, id.String(), owner.String())
	return r.one(row, "get task", owner, id)
}

// UpdateOwned applies change in a single conditional UPDATE.
func (r *TaskRepository) UpdateOwned(ctx context.Context, owner, id ulid.ULID, change task.Change) (*task.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			text = COALESCE($3, text),
			completed = COALESCE($4, completed),
			completed_at = CASE WHEN $4::boolean IS NULL THEN completed_at ELSE $5 END
		WHERE id = $1 AND owner_id = $2
		RETURNING `+taskColumns,
		id.String(), owner.String(), change.Text, change.Completed, change.CompletedAt)
	return r.one(row, "update task", owner, id)
}

// DeleteOwned removes the task and returns the deleted row.
func (r *TaskRepository) DeleteOwned(ctx context.Context, owner, id ulid.ULID) (*task.Task, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM tasks
		WHERE id = $1 AND owner_id = $2
		RETURNING `+taskColumns,
		id.String(), owner.String())
	return r.one(row, "delete task", owner, id)
}

func (r *TaskRepository) one(row pgx.Row, op string, owner, id ulid.ULID) (*task.Task, error) {
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TASK_NOT_FOUND").
			With("task_id", id.String()).
			Wrap(task.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", op).
			With("task_id", id.String()).
			With("owner_id", owner.String()).
			Wrap(err)
	}
	return t, nil
}

// scanTask scans one row of taskColumns.
// Callers are responsible for handling pgx.ErrNoRows.
func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		idStr       string
		ownerStr    string
		text        string
		completed   bool
		completedAt *time.Time
		createdAt   time.Time
	)
	if err := row.Scan(&idStr, &ownerStr, &text, &completed, &completedAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with lookup context
		}
		return nil, oops.Code("TASK_SCAN_FAILED").With("operation", "scan task").Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TASK_INVALID_ID").With("id", idStr).Wrap(err)
	}
	owner, err := ulid.Parse(ownerStr)
	if err != nil {
		return nil, oops.Code("TASK_INVALID_OWNER_ID").With("owner_id", ownerStr).Wrap(err)
	}

	return &task.Task{
		ID:          id,
		OwnerID:     owner,
		Text:        text,
		Completed:   completed,
		CompletedAt: completedAt,
		CreatedAt:   createdAt,
	}, nil
}

// Compile-time interface check.
var _ task.Repository = (*TaskRepository)(nil)
