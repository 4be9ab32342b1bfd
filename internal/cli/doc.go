// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the promptguard command line.
//
// Commands:
//
//	promptguard [tui]            Interactive settings panel
//	promptguard get [key]        Effective settings, or one value
//	promptguard set <key> <val>  Validated write of one setting
//	promptguard unset <key>      Remove a setting
//	promptguard models           List the ML model catalog
//
// Global flags --config, --store, --store-path and --log-level override
// the config file. Diagnostics go to the log file, never to stdout.
package cli
