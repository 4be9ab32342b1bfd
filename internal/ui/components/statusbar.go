// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/promptguard-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT - Outcome of the last save
// =============================================================================

// Status represents the state shown in the status bar.
type Status int

const (
	StatusReady Status = iota
	StatusSaved
	StatusError
	StatusReloaded
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusSaved:
		return "Saved"
	case StatusError:
		return "Error"
	case StatusReloaded:
		return "Reloaded"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status.
// Distinct shapes alongside colors for colorblind users.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return "-"
	case StatusSaved:
		return "✓"
	case StatusError:
		return "✗"
	case StatusReloaded:
		return "↻"
	default:
		return "?"
	}
}

// StatusBar represents the bottom status line.
type StatusBar struct {
	Status Status
	Detail string
	Width  int
	theme  *styles.Theme
	now    func() time.Time
	at     time.Time
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
		now:    time.Now,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// Saved records a successful upsert of key.
func (s *StatusBar) Saved(key string) {
	s.set(StatusSaved, key)
}

// Failed records a failed operation on key.
func (s *StatusBar) Failed(key string, err error) {
	s.set(StatusError, fmt.Sprintf("%s: %v", key, err))
}

// Reloaded records that the store changed underneath the panel.
func (s *StatusBar) Reloaded() {
	if s.Status == StatusError {
		return
	}
	s.set(StatusReloaded, "")
}

func (s *StatusBar) set(status Status, detail string) {
	s.Status = status
	s.Detail = detail
	s.at = s.now()
}

// View renders the status bar.
func (s *StatusBar) View() string {
	theme := s.theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	style := theme.StatusOK
	switch s.Status {
	case StatusError:
		style = theme.StatusError
	case StatusReady:
		style = theme.Help
	}

	text := s.Status.Icon() + " " + s.Status.String()
	if s.Detail != "" {
		text += " " + s.Detail
	}
	if !s.at.IsZero() {
		text += " " + theme.Help.Render(s.at.Format("15:04:05"))
	}

	width := s.Width
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(style.Render(text))
}
