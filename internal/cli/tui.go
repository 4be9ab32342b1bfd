// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/promptguard-tui/internal/storage"
	"github.com/jeranaias/promptguard-tui/internal/ui/settings"
	"github.com/jeranaias/promptguard-tui/internal/ui/styles"
)

// errNoTerminal is returned when the panel is started without a terminal.
var errNoTerminal = errors.New("the settings panel needs an interactive terminal; use 'promptguard get' or 'promptguard set' in scripts")

func newTUICommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive settings panel (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

// runTUI starts the settings panel.
func runTUI(_ *cobra.Command, opts *globalOptions) error {
	if !IsTTY() || !IsStdoutTTY() {
		return errNoTerminal
	}

	env, err := opts.open()
	if err != nil {
		return err
	}
	defer env.Close()

	watcher := storage.NewWatcher(env.store, env.pollInterval(), env.logger)
	defer watcher.Close()

	m := settings.New(settings.Options{
		Store:    env.store,
		Watcher:  watcher,
		Catalog:  env.catalog,
		Logger:   env.logger,
		Theme:    styles.NewThemeFor(env.cfg.UI.Theme),
		Backend:  env.cfg.Store.Backend,
		MaxWidth: env.cfg.UI.Width,
	})

	env.logger.WithField("version", Version).Info("settings panel started")
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running promptguard: %w", err)
	}
	env.logger.Info("settings panel closed")
	return nil
}
