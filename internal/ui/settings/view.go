// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"github.com/charmbracelet/lipgloss"
)

// View renders the screen: header, panel, status line and help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	panel := m.toggle.View()
	if !m.loaded {
		panel = m.theme.Description.Render("Loading settings...")
	}

	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.theme.Panel.Render(panel),
		m.status.View(),
		m.help.View(helpKeys{panel: m.toggle.KeyMap(), screen: m.keys}),
	))
}
