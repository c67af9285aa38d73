// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the HoloTask CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holotask",
		Short: "HoloTask - multi-user todo service",
		Long: `HoloTask serves a JSON API for per-user todo lists with
token sessions, backed by PostgreSQL or in-memory storage.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("holotask %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
