// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/promptguard-tui/internal/ui/components"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the screen-level bindings. Panel bindings live in
// components.SecurityKeyMap.
type KeyMap struct {
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
	Force  key.Binding
}

// DefaultKeyMap returns the default screen bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "reload"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
		Force: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// helpKeys joins panel and screen bindings for bubbles/help.
type helpKeys struct {
	panel  components.SecurityKeyMap
	screen KeyMap
}

// ShortHelp implements help.KeyMap.
func (h helpKeys) ShortHelp() []key.Binding {
	return []key.Binding{h.panel.Next, h.panel.Toggle, h.screen.Help, h.screen.Quit}
}

// FullHelp implements help.KeyMap.
func (h helpKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		h.panel.ShortHelp(),
		{h.screen.Reload, h.screen.Help, h.screen.Quit},
	}
}
