// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jeranaias/promptguard-tui/internal/config"
)

func newInitCommand(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write promptguard.toml with default values. The --store, --store-path and
--log-level flags are written into the file. An existing file is kept
unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				if err := config.EnsureConfigDir(); err != nil {
					return err
				}
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return &ValidationError{
					Field:   "config",
					Reason:  fmt.Sprintf("%s already exists", path),
					Example: "promptguard init --force",
				}
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg := config.Default()
			if opts.backend != "" {
				cfg.Store.Backend = strings.ToLower(opts.backend)
			}
			if opts.storePath != "" {
				cfg.Store.Path = opts.storePath
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return &ValidationError{Field: "flags", Reason: err.Error()}
			}

			if err := config.SaveTOML(cfg, path); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
