// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides application configuration loading for promptguard.
//
// Configuration file location (in order of precedence):
//   - PROMPTGUARD_* environment variables (a .env file is honoured)
//   - ~/.promptguard/promptguard.toml
//   - Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete promptguard configuration.
type Config struct {
	// Settings store configuration
	Store StoreConfig `toml:"store"`

	// Diagnostic log configuration
	Log LogConfig `toml:"log"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// StoreConfig selects where the security settings are persisted.
type StoreConfig struct {
	// Backend is "toml" or "sqlite"
	Backend string `toml:"backend"`
	// Path is the store file (empty = default under the config directory)
	Path string `toml:"path"`
	// PollIntervalMs is how often non-file backends are re-read for changes
	PollIntervalMs int `toml:"poll_interval_ms"`
}

// LogConfig controls the diagnostic log.
type LogConfig struct {
	// Level is a logrus level name: trace, debug, info, warn, error
	Level string `toml:"level"`
	// File is the log path (empty = default under the config directory).
	// The TUI owns stdout, so logs always go to a file.
	File string `toml:"file"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme"`
	// Width caps the panel width in columns (0 = terminal width)
	Width int `toml:"width"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:        "toml",
			PollIntervalMs: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "auto",
			Width: 72,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the promptguard configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".promptguard"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "promptguard.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// StorePath returns the configured store path, or the default file for the
// backend inside the config directory.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if strings.EqualFold(c.Store.Backend, "sqlite") {
		return filepath.Join(dir, "settings.db"), nil
	}
	return filepath.Join(dir, "settings.toml"), nil
}

// LogPath returns the configured log file, or the default one.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "promptguard.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default file, falling back to defaults
// when it does not exist. A .env file in the working directory is loaded
// into the environment first; environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file. A missing file
// yields defaults.
func LoadFromPath(path string) (*Config, error) {
	loadDotEnv()

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads ./.env without overriding variables already set.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Debug("ignoring unreadable .env file")
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# promptguard configuration file")
	fmt.Fprintln(file, "#")
	fmt.Fprintln(file, "# Security settings themselves live in the store configured below.")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch strings.ToLower(c.Store.Backend) {
	case "toml", "sqlite":
	default:
		errs = append(errs, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: toml, sqlite", c.Store.Backend),
		})
	}

	if c.Store.PollIntervalMs < 100 || c.Store.PollIntervalMs > 60000 {
		errs = append(errs, ValidationError{
			Field:   "store.poll_interval_ms",
			Message: fmt.Sprintf("must be between 100 and 60000, got %d", c.Store.PollIntervalMs),
		})
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.Width < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.width",
			Message: "must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	if c.Store.PollIntervalMs == 0 {
		c.Store.PollIntervalMs = defaults.Store.PollIntervalMs
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies PROMPTGUARD_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PROMPTGUARD_STORE_BACKEND"); v != "" {
		c.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PROMPTGUARD_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("PROMPTGUARD_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Store.PollIntervalMs = ms
		}
	}
	if v := os.Getenv("PROMPTGUARD_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PROMPTGUARD_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("PROMPTGUARD_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
}
