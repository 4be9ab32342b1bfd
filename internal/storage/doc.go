// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the settings stores promptguard reads and writes.
//
// Two backends implement Store with upsert semantics:
//
//   - FileStore: TOML params file plus a sibling secrets.toml
//   - SQLiteStore: a single settings table in a SQLite database
//
// EnvOverlay layers environment variables over any Store, and Watcher
// reports snapshots after the store changes on disk.
//
// # Usage
//
//	store, err := storage.Open(storage.BackendTOML, path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	err = store.Upsert(ctx, "security_prompt_enabled", true, false)
//	values, err := store.Values(ctx)
//
// # Watching
//
//	w := storage.NewWatcher(store, time.Second, logger)
//	snapshots, err := w.Watch(ctx)
//	for values := range snapshots {
//	    ...
//	}
package storage
