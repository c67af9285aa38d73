// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package main

import (
	"context"
	"io"
	"net"

	"github.com/holomush/holotask/internal/observability"
	"github.com/holomush/holotask/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolOpener connects to PostgreSQL.
	// Default: store.Open
	PoolOpener func(ctx context.Context, dsn string, opts store.ConnectOptions) (Pool, error)

	// MigratorFactory creates a migrator for startup migrations.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (AutoMigrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// LogWriter receives log output.
	// Default: os.Stderr
	LogWriter io.Writer

	// OnReady is called with the API address once it accepts connections.
	OnReady func(addr string)
}

// MigrateDeps contains injectable dependencies for the migrate command.
type MigrateDeps struct {
	// MigratorFactory creates a migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Pool wraps the methods used from pgxpool.Pool.
type Pool interface {
	store.Querier
	Ping(ctx context.Context) error
	Close()
}

// AutoMigrator wraps the methods used at startup from store.Migrator.
type AutoMigrator interface {
	Up() error
	Close() error
}

// Migrator wraps the methods used by the migrate command from store.Migrator.
type Migrator interface {
	AutoMigrator
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Pending() ([]uint, error)
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

var (
	_ Migrator            = (*store.Migrator)(nil)
	_ ObservabilityServer = (*observability.Server)(nil)
)
