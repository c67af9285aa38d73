// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holotask/internal/auth"
	authpg "github.com/holomush/holotask/internal/auth/postgres"
	"github.com/holomush/holotask/internal/config"
	"github.com/holomush/holotask/internal/logging"
	"github.com/holomush/holotask/internal/memstore"
	"github.com/holomush/holotask/internal/observability"
	"github.com/holomush/holotask/internal/store"
	"github.com/holomush/holotask/internal/task"
	taskpg "github.com/holomush/holotask/internal/task/postgres"
	"github.com/holomush/holotask/internal/web"
	"github.com/holomush/holotask/pkg/errutil"
)

// HTTP server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HoloTask API server",
		Long: `Start the HTTP API server. Configuration is read from flag defaults,
the --config YAML file (default: $XDG_CONFIG_HOME/holotask/config.yaml
when present), explicit flags, and HOLOTASK_* secret variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, err := resolveConfigFile(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(cmd.Flags(), config.LoadOptions{File: configFile})
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// backend is the storage chosen by configuration.
type backend struct {
	users auth.UserRepository
	tasks task.Repository
	ping  func(ctx context.Context) error
	close func()
}

// runServeWithDeps starts the API server with injectable dependencies.
// If deps is nil, default implementations are used. It returns after a
// shutdown signal, context cancellation or a fatal server error.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.PoolOpener == nil {
		deps.PoolOpener = func(ctx context.Context, dsn string, opts store.ConnectOptions) (Pool, error) {
			return store.Open(ctx, dsn, opts)
		}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(databaseURL string) (AutoMigrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}

	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: "holotask",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Writer:  deps.LogWriter,
	})
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}

	if cfg.Storage == config.StorageMemory {
		generated, err := cfg.EnsureTokenSecret()
		if err != nil {
			return err
		}
		if generated {
			logger.Warn("no token secret configured; generated one for this process")
		}
	}

	logger.Info("starting holotask",
		"http_addr", cfg.HTTPAddr,
		"storage", cfg.Storage,
		"log_format", cfg.LogFormat,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, deps, logger)
	if err != nil {
		return err
	}
	defer be.close()

	hasher, err := auth.NewArgon2idHasher(cfg.Argon2())
	if err != nil {
		return oops.With("operation", "create password hasher").Wrap(err)
	}
	tokens, err := auth.NewTokenService([]byte(cfg.Secrets.TokenSecret))
	if err != nil {
		return oops.With("operation", "create token service").Wrap(err)
	}
	directory, err := auth.NewDirectoryWithLogger(be.users, hasher, tokens, logger)
	if err != nil {
		return oops.With("operation", "create user directory").Wrap(err)
	}
	resolver, err := auth.NewResolver(tokens, be.users)
	if err != nil {
		return oops.With("operation", "create token resolver").Wrap(err)
	}
	tasks, err := task.NewService(be.tasks, task.WithLogger(logger))
	if err != nil {
		return oops.With("operation", "create task service").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	webOpts := []web.Option{
		web.WithLogger(logger),
		web.WithReadiness(be.ping),
		web.WithCORSOrigins(cfg.CORSOrigins...),
		web.WithVersion(version),
	}

	var obsServer ObservabilityServer
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, be.ping)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		if m := obsServer.Metrics(); m != nil {
			webOpts = append(webOpts, web.WithMetrics(m))
		}
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	api, err := web.NewServer(directory, resolver, tasks, webOpts...)
	if err != nil {
		stopObservability(obsServer, cfg.ShutdownTimeout)
		return oops.With("operation", "create api server").Wrap(err)
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTPAddr)
	if err != nil {
		stopObservability(obsServer, cfg.ShutdownTimeout)
		return oops.Code("LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	addr := listener.Addr().String()
	cmd.Printf("HoloTask listening on %s\n", addr)
	logger.Info("api server ready", "addr", addr)
	if deps.OnReady != nil {
		deps.OnReady(addr)
	}

	var serveErr error
	select {
	case serveErr = <-errChan:
		errutil.LogError(logger, "api server error", serveErr)
	case <-ctx.Done():
		logger.Info("shutdown requested", "cause", context.Cause(ctx))
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	stopObservability(obsServer, cfg.ShutdownTimeout)

	logger.Info("shutdown complete")
	if serveErr != nil {
		return oops.Code("SERVE_FAILED").Wrap(serveErr)
	}
	return nil
}

// openBackend builds the configured storage. For postgres it connects with
// retry and, when enabled, applies pending migrations first.
func openBackend(ctx context.Context, cfg *config.Config, deps *ServeDeps, logger *slog.Logger) (*backend, error) {
	if cfg.Storage == config.StorageMemory {
		mem := memstore.New()
		logger.Warn("using in-memory storage; data is lost on exit")
		return &backend{
			users: mem.Users,
			tasks: mem.Tasks,
			ping:  mem.Ping,
			close: func() {},
		}, nil
	}

	pool, err := deps.PoolOpener(ctx, cfg.Secrets.DatabaseURL, store.ConnectOptions{
		Attempts: cfg.DBConnectAttempts,
		Logger:   logger,
	})
	if err != nil {
		return nil, oops.With("operation", "connect to database").Wrap(err)
	}
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		if err := autoMigrate(cfg.Secrets.DatabaseURL, deps, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &backend{
		users: authpg.NewUserRepository(pool),
		tasks: taskpg.NewTaskRepository(pool),
		ping:  pool.Ping,
		close: pool.Close,
	}, nil
}

func autoMigrate(databaseURL string, deps *ServeDeps, logger *slog.Logger) error {
	migrator, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("database migrations applied")
	return nil
}

func stopObservability(obsServer ObservabilityServer, timeout time.Duration) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports an error.
// It exits when an error is received, the channel is closed, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
