// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/promptguard-tui/internal/ui/components"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case valuesLoadedMsg:
		return m.handleValuesLoaded(msg)

	case watchStartedMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).Warn("live reload disabled")
			return m, nil
		}
		m.changes = msg.changes
		m.cancel = msg.cancel
		return m, waitForChange(m.changes)

	case watchClosedMsg:
		m.logger.Debug("settings watcher stopped")
		m.changes = nil
		return m, nil

	case components.ConfigChangedMsg:
		m.values = copyValues(msg.Values)
		m.toggle.SetValues(copyValues(m.values))
		m.status.Reloaded()
		return m, waitForChange(m.changes)

	case components.SettingUpsertedMsg:
		return m.handleUpserted(msg)
	}

	cmd, _ := m.toggle.Update(msg)
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	width := msg.Width
	if m.maxWidth > 0 && width > m.maxWidth {
		width = m.maxWidth
	}
	m.header.SetWidth(width)
	m.status.SetWidth(width)
	// Panel border and padding
	m.toggle.SetWidth(width - 6)
	m.help.Width = width
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Force) {
		return m.quit()
	}

	// Until the first snapshot arrives the panel shows defaults, not stored values.
	if m.loaded {
		if cmd, handled := m.toggle.Update(msg); handled {
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		return m, tea.Batch(loadValues(m.store), m.toggle.ReloadCatalog())
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

func (m Model) handleValuesLoaded(msg valuesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.WithError(msg.err).Error("failed to read settings store")
		m.status.Failed("load", msg.err)
		return m, nil
	}
	m.loaded = true
	m.values = copyValues(msg.values)
	m.toggle.SetValues(copyValues(m.values))
	return m, nil
}

// handleUpserted re-reads the store after a successful write so the panel
// shows the effective value, which an environment override may pin.
// Failures are logged and shown; the snapshot keeps the last confirmed value.
func (m Model) handleUpserted(msg components.SettingUpsertedMsg) (tea.Model, tea.Cmd) {
	entry := m.logger.WithFields(logrus.Fields{
		"op":  msg.Op,
		"key": msg.Key,
	})
	if msg.Err != nil {
		entry.WithError(msg.Err).Error("failed to save setting")
		m.status.Failed(msg.Key, msg.Err)
		return m, nil
	}

	entry.WithField("value", msg.Value).Debug("setting saved")
	m.status.Saved(msg.Key)
	return m, loadValues(m.store)
}

func copyValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
