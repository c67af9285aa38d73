// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holotask/internal/config"
	"github.com/holomush/holotask/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmdWithDeps(nil)
}

func newMigrateCmdWithDeps(deps *MigrateDeps) *cobra.Command {
	if deps == nil {
		deps = &MigrateDeps{}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Manage PostgreSQL schema migrations. Without a subcommand, applies all
pending migrations. Requires HOLOTASK_DATABASE_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(deps, func(m Migrator) error { return runMigrateUp(cmd, m) })
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(deps, func(m Migrator) error { return runMigrateUp(cmd, m) })
		},
	})

	var confirm bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops all data)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return oops.Code("CONFIRMATION_REQUIRED").
					Errorf("migrate down drops every table; re-run with --yes to confirm")
			}
			return withMigrator(deps, func(m Migrator) error {
				if err := m.Down(); err != nil {
					return oops.With("operation", "roll back migrations").Wrap(err)
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().BoolVar(&confirm, "yes", false, "confirm dropping all data")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(deps, func(m Migrator) error { return runMigrateVersion(cmd, m) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Long:  `Record VERSION as the applied schema version and clear the dirty flag. Use after fixing a failed migration by hand.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(deps, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return oops.With("operation", "force version").Wrap(err)
				}
				cmd.Printf("Schema version forced to %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator opens a migrator from the environment, runs fn and closes it.
func withMigrator(deps *MigrateDeps, fn func(Migrator) error) (err error) {
	secrets, err := config.LoadSecrets(deps.Environment)
	if err != nil {
		return err
	}
	if secrets.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("%sDATABASE_URL environment variable is required", config.EnvPrefix)
	}

	m, err := deps.MigratorFactory(secrets.DatabaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = oops.With("operation", "close migrator").Wrap(closeErr)
		}
	}()

	return fn(m)
}

func runMigrateUp(cmd *cobra.Command, m Migrator) error {
	pending, err := m.Pending()
	if err != nil {
		return oops.With("operation", "list pending migrations").Wrap(err)
	}
	if len(pending) == 0 {
		cmd.Println("Database is up to date")
		return nil
	}

	for _, v := range pending {
		name, err := store.MigrationName(v)
		if err != nil {
			return err
		}
		cmd.Printf("Applying %s\n", name)
	}
	if err := m.Up(); err != nil {
		return oops.With("operation", "apply migrations").Wrap(err)
	}
	cmd.Printf("Applied %d migration(s)\n", len(pending))
	return nil
}

func runMigrateVersion(cmd *cobra.Command, m Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return oops.With("operation", "read schema version").Wrap(err)
	}
	pending, err := m.Pending()
	if err != nil {
		return oops.With("operation", "list pending migrations").Wrap(err)
	}

	status := "clean"
	if dirty {
		status = "dirty"
	}
	cmd.Printf("Schema version: %d (%s)\n", v, status)
	if len(pending) > 0 {
		versions := make([]string, len(pending))
		for i, p := range pending {
			versions[i] = fmt.Sprintf("%d", p)
		}
		cmd.Printf("Pending: %s\n", strings.Join(versions, ", "))
	}
	return nil
}

// parseForceVersion parses the force argument as a non-negative integer.
func parseForceVersion(arg string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").
			With("input", arg).
			Errorf("version must be an integer")
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").
			With("input", arg).
			Errorf("version must be non-negative")
	}
	return v, nil
}
