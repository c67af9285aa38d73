// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/holotask/internal/config"
	"github.com/holomush/holotask/internal/xdg"
	"github.com/holomush/holotask/pkg/errutil"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML (secrets omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, err := resolveConfigFile(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(cmd.Flags(), config.LoadOptions{File: configFile})
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
			}
			cmd.Print(string(out))
			return nil
		},
	}
	config.RegisterFlags(show.Flags())
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(schema))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [FILE]",
		Short: "Validate a config file against the schema",
		Long: `Validate FILE, or the --config file, or the default config file in the
XDG config directory, against the config schema.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				var err error
				if path, err = resolveConfigFile(cmd); err != nil {
					return err
				}
			}
			if path == "" {
				return oops.Code("CONFIG_NOT_FOUND").Errorf("no config file given and none found in the XDG config directory")
			}

			data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
			if err != nil {
				return oops.Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
			}
			if err := config.ValidateFile(data); err != nil {
				return oops.With("file", path).Wrap(err)
			}
			cmd.Printf("%s is valid\n", path)
			return nil
		},
	})

	return cmd
}

// resolveConfigFile returns the --config flag value, or the XDG default
// config file when the flag is unset. Returns "" when neither exists.
func resolveConfigFile(cmd *cobra.Command) (string, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}
	if configFile != "" {
		return configFile, nil
	}
	path, err := xdg.DefaultConfigFile()
	if err != nil {
		if errutil.ErrorCode(err) == "XDG_NO_HOME" {
			return "", nil
		}
		return "", err
	}
	return path, nil
}
