// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides application configuration loading for promptguard.
//
// The application config says where settings are stored and how the tool
// logs and renders. The security settings edited in the TUI live in the
// store itself (see package storage), not here.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - StoreConfig: Settings store backend and path
//   - LogConfig: Diagnostic log level and file
//   - UIConfig: Theme and width
//
// # Configuration Precedence
//
//   - Environment variables (PROMPTGUARD_*), including those from ./.env
//   - ~/.promptguard/promptguard.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	path, err := cfg.StorePath()
package config
