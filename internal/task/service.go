// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package task

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service validates task input, applies the completion rule and delegates
// to a Repository.
type Service struct {
	repo   Repository
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for completion stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service over repo.
func NewService(repo Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, oops.Errorf("task repository is required")
	}
	s := &Service{repo: repo, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.now == nil {
		return nil, oops.Errorf("clock is required")
	}
	if s.logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return s, nil
}

// Create stores a new incomplete task for owner. The text is trimmed.
func (s *Service) Create(ctx context.Context, owner ulid.ULID, text string) (*Task, error) {
	text, err := validText(text)
	if err != nil {
		return nil, err
	}
	t := &Task{
		ID:        ulid.Make(),
		OwnerID:   owner,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, oops.Code("TASK_CREATE_FAILED").
			With("owner_id", owner.String()).
			Wrap(err)
	}
	s.logger.DebugContext(ctx, "task created", "task_id", t.ID.String(), "owner_id", owner.String())
	return t, nil
}

// ListByOwner returns all of owner's tasks in creation order.
func (s *Service) ListByOwner(ctx context.Context, owner ulid.ULID) ([]*Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, oops.Code("TASK_LIST_FAILED").
			With("owner_id", owner.String()).
			Wrap(err)
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	return tasks, nil
}

// GetOwned returns the task rawID if owner owns it. Unparsable ids, absent
// ids and other owners' ids all yield TASK_NOT_FOUND.
func (s *Service) GetOwned(ctx context.Context, owner ulid.ULID, rawID string) (*Task, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.GetOwned(ctx, owner, id)
	if err != nil {
		return nil, s.lookupError("get", owner, rawID, err)
	}
	return t, nil
}

// UpdateOwned applies patch to the task rawID if owner owns it.
//
// The task is resolved the way GetOwned does before the patch is validated,
// so a task the caller cannot see is TASK_NOT_FOUND whatever the patch holds.
// Completed=true stamps CompletedAt with the current time on every call,
// including when the task is already complete. Completed=false clears it.
func (s *Service) UpdateOwned(ctx context.Context, owner ulid.ULID, rawID string, patch Patch) (*Task, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetOwned(ctx, owner, id); err != nil {
		return nil, s.lookupError("update", owner, rawID, err)
	}

	var change Change
	if patch.Text != nil {
		text, err := validText(*patch.Text)
		if err != nil {
			return nil, err
		}
		change.Text = &text
	}
	if patch.Completed != nil {
		completed := *patch.Completed
		change.Completed = &completed
		if completed {
			stamp := s.now().UTC().Truncate(time.Millisecond)
			change.CompletedAt = &stamp
		}
	}

	t, err := s.repo.UpdateOwned(ctx, owner, id, change)
	if err != nil {
		return nil, s.lookupError("update", owner, rawID, err)
	}
	return t, nil
}

// DeleteOwned removes the task rawID if owner owns it and returns it as it
// was before deletion.
func (s *Service) DeleteOwned(ctx context.Context, owner ulid.ULID, rawID string) (*Task, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.DeleteOwned(ctx, owner, id)
	if err != nil {
		return nil, s.lookupError("delete", owner, rawID, err)
	}
	s.logger.DebugContext(ctx, "task deleted", "task_id", t.ID.String(), "owner_id", owner.String())
	return t, nil
}

func (s *Service) lookupError(op string, owner ulid.ULID, rawID string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return errNotFound(rawID)
	}
	return oops.Code("TASK_"+strings.ToUpper(op)+"_FAILED").
		With("owner_id", owner.String()).
		With("task_id", rawID).
		Wrap(err)
}

func validText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", oops.Code(CodeEmptyText).With("field", "text").Errorf("text cannot be empty")
	}
	return text, nil
}

func parseID(rawID string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(rawID)
	if err != nil {
		return ulid.ULID{}, errNotFound(rawID)
	}
	return id, nil
}

func errNotFound(rawID string) error {
	return oops.Code(CodeNotFound).With("task_id", rawID).Errorf("task not found")
}
