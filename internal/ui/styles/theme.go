// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderPath  lipgloss.Style
	Panel       lipgloss.Style

	// ==========================================================================
	// SETTINGS ROW STYLES
	// ==========================================================================

	Label         lipgloss.Style
	LabelFocused  lipgloss.Style
	LabelDisabled lipgloss.Style
	Description   lipgloss.Style
	FocusMarker   lipgloss.Style

	ToggleOn       lipgloss.Style
	ToggleOff      lipgloss.Style
	ToggleDisabled lipgloss.Style

	InputValue    lipgloss.Style
	InputDirty    lipgloss.Style
	InputDisabled lipgloss.Style
	InputHint     lipgloss.Style

	SelectValue    lipgloss.Style
	SelectDisabled lipgloss.Style

	// ==========================================================================
	// FOOTER STYLES
	// ==========================================================================

	StatusOK    lipgloss.Style
	StatusError lipgloss.Style
	Help        lipgloss.Style
}

// NewTheme creates a theme using the terminal's detected background.
func NewTheme() *Theme {
	return NewThemeFor("auto")
}

// NewThemeFor creates a theme for mode "dark", "light" or "auto".
// Forcing a mode tells lipgloss which side of each AdaptiveColor to use.
func NewThemeFor(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	isDark := termenv.HasDarkBackground()
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderPath = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(1, 2)

	// Rows
	t.Label = lipgloss.NewStyle().Foreground(TextPrimary)
	t.LabelFocused = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.LabelDisabled = lipgloss.NewStyle().Foreground(TextMuted)
	t.Description = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
	t.FocusMarker = lipgloss.NewStyle().Foreground(FocusRing).Bold(true)

	// Toggles
	t.ToggleOn = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.ToggleOff = lipgloss.NewStyle().Foreground(OverlayDim)
	t.ToggleDisabled = lipgloss.NewStyle().Foreground(TextMuted).Faint(true)

	// Threshold field
	t.InputValue = lipgloss.NewStyle().Foreground(Cyan)
	t.InputDirty = lipgloss.NewStyle().Foreground(Amber)
	t.InputDisabled = lipgloss.NewStyle().Foreground(TextMuted).Faint(true)
	t.InputHint = lipgloss.NewStyle().Foreground(TextMuted)

	// Model selector
	t.SelectValue = lipgloss.NewStyle().Foreground(TextPrimary)
	t.SelectDisabled = lipgloss.NewStyle().Foreground(TextMuted).Faint(true)

	// Footer
	t.StatusOK = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Help = lipgloss.NewStyle().Foreground(TextMuted)
}
