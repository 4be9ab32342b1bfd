// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the promptguard TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection; NewThemeFor can force either side.

# Color System (colors.go)

  - Purple - Titles and header border
  - Cyan - Focus ring and committed values
  - Emerald - Enabled toggles and successful saves
  - Amber - Unsaved threshold edits
  - Rose - Errors

# Theme (theme.go)

Theme groups the lipgloss styles used by the settings panel:

	theme := styles.NewThemeFor(cfg.UI.Theme)
	row := theme.Label.Render("Prompt injection detection")

Disabled controls use the Muted/Faint variants (LabelDisabled,
ToggleDisabled, InputDisabled, SelectDisabled).
*/
package styles
