// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/promptguard-tui/internal/config"
	"github.com/jeranaias/promptguard-tui/internal/logging"
	"github.com/jeranaias/promptguard-tui/internal/security"
	"github.com/jeranaias/promptguard-tui/internal/storage"
)

// Version information (set at build time via -ldflags)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// catalogTTL is how long a fetched model list is reused.
const catalogTTL = 5 * time.Minute

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	backend    string
	storePath  string
	logLevel   string
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// NewRootCommand builds the promptguard command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "promptguard",
		Short: "Edit prompt-injection detection settings",
		Long: `promptguard edits the prompt-injection detection settings of an agent
runtime: detection on/off, the detection threshold, ML-based detection and
the ML model. Run without a subcommand for the interactive panel.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default ~/.promptguard/promptguard.toml)")
	flags.StringVar(&opts.backend, "store", "", "Settings store backend: toml or sqlite")
	flags.StringVar(&opts.storePath, "store-path", "", "Settings store file")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newTUICommand(opts),
		newGetCommand(opts),
		newSetCommand(opts),
		newUnsetCommand(opts),
		newModelsCommand(opts),
		newInitCommand(opts),
	)
	return root
}

// =============================================================================
// SHARED ENVIRONMENT
// =============================================================================

// environment is what every command needs: config, a file logger and the
// settings store with environment overrides applied.
type environment struct {
	cfg     *config.Config
	logger  *logrus.Logger
	store   *storage.EnvOverlay
	catalog security.Catalog
	closers []io.Closer
}

// open loads configuration, applies flag overrides and opens the store.
func (o *globalOptions) open() (*environment, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.backend != "" {
		cfg.Store.Backend = strings.ToLower(o.backend)
	}
	if o.storePath != "" {
		cfg.Store.Path = o.storePath
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ValidationError{Field: "flags", Reason: err.Error()}
	}

	env := &environment{
		cfg:     cfg,
		catalog: security.NewCachedCatalog(security.DefaultCatalog(), catalogTTL),
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := logging.Setup(cfg.Log.Level, logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	env.logger = logger
	env.closers = append(env.closers, logCloser)

	storePath, err := cfg.StorePath()
	if err != nil {
		env.Close()
		return nil, err
	}
	store, err := storage.Open(cfg.Store.Backend, storePath)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	env.store = storage.NewEnvOverlay(store, security.Keys)
	env.closers = append(env.closers, store)

	logger.WithFields(logrus.Fields{
		"backend": cfg.Store.Backend,
		"path":    storePath,
	}).Debug("settings store opened")
	return env, nil
}

// Close releases the store and log file, newest first.
func (e *environment) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}

// pollInterval converts the configured poll interval.
func (e *environment) pollInterval() time.Duration {
	return time.Duration(e.cfg.Store.PollIntervalMs) * time.Millisecond
}
