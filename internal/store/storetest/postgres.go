// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

//go:build integration

// Package storetest starts disposable PostgreSQL containers for
// integration suites.
package storetest

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/holotask/internal/store"
)

// StartPostgres runs a postgres:16-alpine container and returns its DSN
// and a cleanup function that terminates it.
func StartPostgres(ctx context.Context) (string, func(), error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("holotask_test"),
		postgres.WithUsername("holotask"),
		postgres.WithPassword("holotask"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return "", nil, err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return "", nil, err
	}

	cleanup := func() {
		_ = container.Terminate(context.Background())
	}
	return dsn, cleanup, nil
}

// Migrate applies every migration to dsn.
func Migrate(dsn string) error {
	migrator, err := store.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()
	return migrator.Up()
}
