// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security holds the prompt-injection detection settings and the
// catalog of ML detection models they can select.
//
// # Key Types
//
//   - Settings: typed view of the four security_* store keys
//   - Catalog: source of selectable models (StaticCatalog, CachedCatalog)
//
// # Threshold Rules
//
// Typed threshold text is accepted on commit only inside
// [ThresholdInputMin, ThresholdInputMax]; the accepted value is then clamped
// to [0, 1] before it is written:
//
//	if v, ok := security.ParseThreshold(text); ok {
//	    store.Upsert(ctx, security.KeyPromptThreshold, security.ClampThreshold(v), false)
//	}
package security
