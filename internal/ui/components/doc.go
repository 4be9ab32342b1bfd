// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the UI components of the promptguard TUI.

Components are built on Bubble Tea and Lip Gloss and take a *styles.Theme so
they render consistently.

# Components

SecurityToggle (security_toggle.go) - The prompt-injection settings panel:
detection on/off, the detection threshold, ML detection on/off and the ML
model. Every change is written through an Upserter as a tea.Cmd that yields
SettingUpsertedMsg.

Header (header.go) - Title bar showing the store backend and path.

StatusBar (statusbar.go) - Outcome of the most recent save or reload.

# Data flow

The panel never mutates its own snapshot. A host owns the store values,
applies successful upserts and external reloads, and hands the result back
with SetValues or a ConfigChangedMsg:

	toggle := components.NewSecurityToggle(theme, store, catalog, logger)
	toggle.SetValues(values)
	cmd := toggle.Init() // loads the model catalog

	// in the host's Update
	cmd, handled := toggle.Update(msg)

The threshold field is the only local state. Its text is committed when
focus leaves the field and is overwritten whenever the persisted threshold
changes.
*/
package components
