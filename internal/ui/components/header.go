// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/promptguard-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT - Title bar naming the settings store
// =============================================================================

// Header represents the title bar above the settings panel.
type Header struct {
	Title     string // Main title (default: "promptguard")
	Backend   string // Store backend name, e.g. "toml"
	StorePath string // Store location shown under the title
	Width     int    // Available width
	theme     *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "promptguard",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetStore updates the backend and path shown in the header.
func (h *Header) SetStore(backend, path string) {
	h.Backend = backend
	h.StorePath = path
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}
	// Borders and padding
	innerWidth := width - 6

	theme := h.theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	accent := lipgloss.NewStyle().Foreground(styles.Purple)
	title := accent.Render("< ") + theme.HeaderTitle.Render(h.Title) + accent.Render(" >") +
		" " + theme.Description.Render("security settings")

	if h.Backend != "" {
		badge := lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true).
			Render("[" + strings.ToUpper(h.Backend) + "]")
		gap := innerWidth - lipgloss.Width(title) - lipgloss.Width(badge)
		if gap < 1 {
			gap = 1
		}
		title += strings.Repeat(" ", gap) + badge
	}

	lines := []string{title}
	if h.StorePath != "" {
		lines = append(lines, theme.HeaderPath.Render(truncatePath(h.StorePath, innerWidth)))
	}

	return theme.Header.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// truncatePath shortens p from the left so the file name stays visible.
func truncatePath(p string, width int) string {
	if width <= 1 || runewidth.StringWidth(p) <= width {
		return p
	}
	runes := []rune(p)
	for i := range runes {
		rest := string(runes[i:])
		if runewidth.StringWidth(rest) <= width-1 {
			return "…" + rest
		}
	}
	return "…"
}
