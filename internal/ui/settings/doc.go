// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings provides the full-screen settings view of the TUI.
//
// The Model reads the store once on start, subscribes to a storage.Watcher
// for external edits, and merges each successful upsert reported by the
// security panel back into its snapshot.
package settings
