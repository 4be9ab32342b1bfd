// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/promptguard-tui/internal/security"
	"github.com/jeranaias/promptguard-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// Upserter persists one setting. secret is always false for this panel.
type Upserter interface {
	Upsert(ctx context.Context, key string, value any, secret bool) error
}

// SettingUpsertedMsg reports the outcome of an upsert issued by the panel.
// The panel itself ignores it; the host decides what to do with Err.
type SettingUpsertedMsg struct {
	Op    string
	Key   string
	Value any
	Err   error
}

// ConfigChangedMsg carries a fresh store snapshot to the panel.
type ConfigChangedMsg struct {
	Values map[string]any
}

// catalogLoadedMsg delivers the model list fetched by Init.
type catalogLoadedMsg struct {
	models []security.ModelOption
	err    error
}

// =============================================================================
// CONTROLS & KEYS
// =============================================================================

// SecurityControl identifies one focusable row of the panel.
type SecurityControl int

const (
	ControlPromptToggle SecurityControl = iota
	ControlThreshold
	ControlMLToggle
	ControlModelSelect
	controlCount
)

// SecurityKeyMap defines the panel's key bindings.
type SecurityKeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Toggle   key.Binding
	Cycle    key.Binding
	CycleRev key.Binding
	StepUp   key.Binding
	StepDown key.Binding
}

// DefaultSecurityKeyMap returns the default bindings.
func DefaultSecurityKeyMap() SecurityKeyMap {
	return SecurityKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-tab/↑", "prev"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("right", " ", "enter"),
			key.WithHelp("←/→", "model"),
		),
		CycleRev: key.NewBinding(
			key.WithKeys("left"),
		),
		StepUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp/PgDn", "step"),
		),
		StepDown: key.NewBinding(
			key.WithKeys("pgdown"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k SecurityKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Toggle, k.Cycle, k.StepUp}
}

// FullHelp implements help.KeyMap.
func (k SecurityKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// =============================================================================
// SECURITY TOGGLE
// =============================================================================

// SecurityToggle renders the prompt-injection settings and writes each change
// through an Upserter. It holds a snapshot of the store plus one piece of
// local state: the threshold text being typed.
type SecurityToggle struct {
	upserter Upserter
	catalog  security.Catalog
	models   []security.ModelOption
	logger   logrus.FieldLogger
	theme    *styles.Theme
	keys     SecurityKeyMap

	settings security.Settings

	threshold textinput.Model
	focus     SecurityControl
	width     int
}

// NewSecurityToggle creates the panel with default settings. Call SetValues
// with the store snapshot and run Init to load the model catalog.
func NewSecurityToggle(theme *styles.Theme, upserter Upserter, catalog security.Catalog, logger logrus.FieldLogger) *SecurityToggle {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if catalog == nil {
		catalog = security.DefaultCatalog()
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 16
	ti.Width = 8
	ti.Placeholder = security.FormatThreshold(security.DefaultThreshold)
	ti.Cursor.SetMode(cursor.CursorStatic)
	if theme != nil {
		ti.TextStyle = theme.InputValue
		ti.PlaceholderStyle = theme.InputHint
	}

	s := &SecurityToggle{
		upserter:  upserter,
		catalog:   catalog,
		logger:    logger,
		theme:     theme,
		keys:      DefaultSecurityKeyMap(),
		settings:  security.DefaultSettings(),
		threshold: ti,
		focus:     ControlPromptToggle,
		width:     72,
	}
	s.setThresholdText(security.FormatThreshold(s.settings.PromptThreshold))
	return s
}

// Init loads the model catalog.
func (s *SecurityToggle) Init() tea.Cmd {
	catalog := s.catalog
	return func() tea.Msg {
		models, err := catalog.Models(context.Background())
		return catalogLoadedMsg{models: models, err: err}
	}
}

// ReloadCatalog drops any cached model list and fetches it again.
func (s *SecurityToggle) ReloadCatalog() tea.Cmd {
	if c, ok := s.catalog.(interface{ Invalidate() }); ok {
		c.Invalidate()
	}
	return s.Init()
}

// SetWidth sets the rendering width.
func (s *SecurityToggle) SetWidth(width int) {
	s.width = width
}

// KeyMap returns the panel's bindings for help rendering.
func (s *SecurityToggle) KeyMap() SecurityKeyMap {
	return s.keys
}

// =============================================================================
// STATE
// =============================================================================

// SetValues replaces the store snapshot. If the persisted threshold changed,
// the threshold text is overwritten, discarding any unsaved edit. A focused
// control that becomes disabled hands focus to the prompt toggle; an edit in
// the threshold field is dropped without saving.
func (s *SecurityToggle) SetValues(values map[string]any) {
	prev := s.settings
	s.settings = security.SettingsFromValues(values)
	persisted := security.FormatThreshold(s.settings.PromptThreshold)

	if s.settings.PromptThreshold != prev.PromptThreshold {
		s.setThresholdText(persisted)
	}

	if !s.enabled(s.focus) {
		if s.focus == ControlThreshold {
			s.threshold.Blur()
			s.setThresholdText(persisted)
		}
		s.focus = ControlPromptToggle
	}
}

// Settings returns the settings derived from the current snapshot.
func (s *SecurityToggle) Settings() security.Settings {
	return s.settings
}

// Models returns the loaded catalog.
func (s *SecurityToggle) Models() []security.ModelOption {
	return s.models
}

// ThresholdText returns the threshold field's current text.
func (s *SecurityToggle) ThresholdText() string {
	return s.threshold.Value()
}

// Focused returns the focused control.
func (s *SecurityToggle) Focused() SecurityControl {
	return s.focus
}

// Editing reports whether the threshold field has keyboard focus.
func (s *SecurityToggle) Editing() bool {
	return s.focus == ControlThreshold
}

// ThresholdEnabled reports whether the threshold field is interactive.
func (s *SecurityToggle) ThresholdEnabled() bool {
	return s.settings.PromptEnabled
}

// MLToggleEnabled reports whether the ML detection toggle is interactive.
func (s *SecurityToggle) MLToggleEnabled() bool {
	return s.settings.PromptEnabled
}

// ModelSelectEnabled reports whether the model selector is interactive.
func (s *SecurityToggle) ModelSelectEnabled() bool {
	return s.settings.PromptEnabled && s.settings.MLEnabled
}

func (s *SecurityToggle) enabled(c SecurityControl) bool {
	switch c {
	case ControlPromptToggle:
		return true
	case ControlThreshold:
		return s.ThresholdEnabled()
	case ControlMLToggle:
		return s.MLToggleEnabled()
	case ControlModelSelect:
		return s.ModelSelectEnabled()
	}
	return false
}

func (s *SecurityToggle) setThresholdText(text string) {
	s.threshold.SetValue(text)
	s.threshold.CursorEnd()
}

// =============================================================================
// OPERATIONS
// =============================================================================

// TogglePrompt flips prompt-injection detection.
func (s *SecurityToggle) TogglePrompt() tea.Cmd {
	return s.upsert(security.KeyPromptEnabled, !s.settings.PromptEnabled)
}

// EditThreshold replaces the threshold text without persisting it.
// It does nothing while the field is disabled.
func (s *SecurityToggle) EditThreshold(text string) {
	if !s.ThresholdEnabled() {
		return
	}
	s.setThresholdText(text)
}

// CommitThreshold persists the typed threshold if it parses inside the input
// bounds; otherwise the text reverts to the persisted value and nothing is
// written.
func (s *SecurityToggle) CommitThreshold() tea.Cmd {
	v, ok := security.ParseThreshold(s.threshold.Value())
	if !ok {
		s.setThresholdText(security.FormatThreshold(s.settings.PromptThreshold))
		return nil
	}
	v = security.ClampThreshold(v)
	s.setThresholdText(security.FormatThreshold(v))
	return s.upsert(security.KeyPromptThreshold, v)
}

// ToggleML flips ML-based detection. It does nothing while disabled.
func (s *SecurityToggle) ToggleML() tea.Cmd {
	if !s.MLToggleEnabled() {
		return nil
	}
	enabled := !s.settings.MLEnabled
	op := uuid.NewString()
	s.logger.WithFields(logrus.Fields{
		"op":      op,
		"enabled": enabled,
		"model":   s.settings.MLModel,
	}).Info("ML-based prompt injection detection toggled")
	return s.upsertOp(op, security.KeyMLEnabled, enabled)
}

// SelectModel switches the ML model. It does nothing while disabled or when
// value is already selected.
func (s *SecurityToggle) SelectModel(value string) tea.Cmd {
	if !s.ModelSelectEnabled() || value == s.settings.MLModel {
		return nil
	}
	from := security.LabelFor(s.models, s.settings.MLModel)
	to := security.LabelFor(s.models, value)
	op := uuid.NewString()
	s.logger.WithFields(logrus.Fields{
		"op":   op,
		"from": from,
		"to":   to,
	}).Infof("ML model changed from %s to %s", from, to)
	return s.upsertOp(op, security.KeyMLModel, value)
}

// cycleModel selects the next (dir=1) or previous (dir=-1) catalog entry.
func (s *SecurityToggle) cycleModel(dir int) tea.Cmd {
	n := len(s.models)
	if n == 0 {
		return nil
	}
	idx := security.IndexOf(s.models, s.settings.MLModel)
	var next int
	switch {
	case idx < 0 && dir > 0:
		next = 0
	case idx < 0:
		next = n - 1
	default:
		next = (idx + dir + n) % n
	}
	return s.SelectModel(s.models[next].Value)
}

func (s *SecurityToggle) upsert(key string, value any) tea.Cmd {
	return s.upsertOp(uuid.NewString(), key, value)
}

// upsertOp runs the write off the event loop. The result is reported but
// not acted on here.
func (s *SecurityToggle) upsertOp(op, key string, value any) tea.Cmd {
	upserter := s.upserter
	if upserter == nil {
		return nil
	}
	return func() tea.Msg {
		err := upserter.Upsert(context.Background(), key, value, false)
		return SettingUpsertedMsg{Op: op, Key: key, Value: value, Err: err}
	}
}

// =============================================================================
// FOCUS
// =============================================================================

// moveFocus moves to the next enabled control in dir. Leaving the threshold
// field commits it.
func (s *SecurityToggle) moveFocus(dir int) tea.Cmd {
	next := s.focus
	for i := 0; i < int(controlCount); i++ {
		next = SecurityControl((int(next) + dir + int(controlCount)) % int(controlCount))
		if s.enabled(next) {
			break
		}
	}
	return s.focusControl(next)
}

func (s *SecurityToggle) focusControl(c SecurityControl) tea.Cmd {
	if c == s.focus {
		return nil
	}

	var cmds []tea.Cmd
	if s.focus == ControlThreshold {
		s.threshold.Blur()
		cmds = append(cmds, s.CommitThreshold())
	}
	s.focus = c
	if c == ControlThreshold {
		cmds = append(cmds, s.threshold.Focus())
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update handles messages for the panel. handled is false for keys the panel
// does not use, so the host can act on them.
func (s *SecurityToggle) Update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	switch msg := msg.(type) {
	case catalogLoadedMsg:
		if msg.err != nil {
			s.logger.WithError(msg.err).Warn("failed to load model catalog")
			return nil, true
		}
		s.models = msg.models
		return nil, true

	case ConfigChangedMsg:
		s.SetValues(msg.Values)
		return nil, true

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.focus == ControlThreshold {
		var c tea.Cmd
		s.threshold, c = s.threshold.Update(msg)
		return c, c != nil
	}
	return nil, false
}

func (s *SecurityToggle) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, s.keys.Next):
		return s.moveFocus(1), true
	case key.Matches(msg, s.keys.Prev):
		return s.moveFocus(-1), true
	}

	switch s.focus {
	case ControlPromptToggle:
		if key.Matches(msg, s.keys.Toggle) {
			return s.TogglePrompt(), true
		}

	case ControlThreshold:
		switch {
		case msg.Type == tea.KeyEnter:
			return s.moveFocus(1), true
		case msg.Type == tea.KeyEsc:
			return s.focusControl(ControlPromptToggle), true
		case key.Matches(msg, s.keys.StepUp):
			s.EditThreshold(security.StepThreshold(s.threshold.Value(), security.ThresholdStep))
			return nil, true
		case key.Matches(msg, s.keys.StepDown):
			s.EditThreshold(security.StepThreshold(s.threshold.Value(), -security.ThresholdStep))
			return nil, true
		}
		var c tea.Cmd
		s.threshold, c = s.threshold.Update(msg)
		return c, true

	case ControlMLToggle:
		if key.Matches(msg, s.keys.Toggle) {
			return s.ToggleML(), true
		}

	case ControlModelSelect:
		switch {
		case key.Matches(msg, s.keys.CycleRev):
			return s.cycleModel(-1), true
		case key.Matches(msg, s.keys.Cycle):
			return s.cycleModel(1), true
		}
	}
	return nil, false
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

const labelWidth = 30

// View renders the panel.
func (s *SecurityToggle) View() string {
	theme := s.theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	var b strings.Builder

	b.WriteString(s.row(theme, ControlPromptToggle, "Prompt injection detection",
		s.renderToggle(theme, s.settings.PromptEnabled, true)))
	b.WriteString("\n")
	b.WriteString(s.describe(theme, "Scan tool calls for prompt injection before they run"))
	b.WriteString("\n\n")

	b.WriteString(s.row(theme, ControlThreshold, "Detection threshold", s.renderThreshold(theme)))
	b.WriteString("\n")
	b.WriteString(s.describe(theme, "Findings at or above this confidence are flagged"))
	b.WriteString("\n\n")

	b.WriteString(s.row(theme, ControlMLToggle, "ML-based detection",
		s.renderToggle(theme, s.settings.MLEnabled, s.MLToggleEnabled())))
	b.WriteString("\n")
	b.WriteString(s.describe(theme, "Combine pattern matching with a classifier model"))
	b.WriteString("\n\n")

	b.WriteString(s.row(theme, ControlModelSelect, "ML model", s.renderModel(theme)))
	b.WriteString("\n")
	b.WriteString(s.describe(theme, s.modelDescription()))

	return b.String()
}

// row renders the focus marker, aligned label and control.
func (s *SecurityToggle) row(theme *styles.Theme, c SecurityControl, label, control string) string {
	marker := "  "
	labelStyle := theme.Label
	switch {
	case !s.enabled(c):
		labelStyle = theme.LabelDisabled
	case s.focus == c:
		marker = theme.FocusMarker.Render("▸ ")
		labelStyle = theme.LabelFocused
	}
	return marker + labelStyle.Render(runewidth.FillRight(label, labelWidth)) + control
}

func (s *SecurityToggle) describe(theme *styles.Theme, text string) string {
	if text == "" {
		return ""
	}
	width := s.width - labelWidth - 2
	if width < 20 {
		width = 20
	}
	return strings.Repeat(" ", 2+labelWidth) + theme.Description.Render(runewidth.Truncate(text, width, "…"))
}

func (s *SecurityToggle) renderToggle(theme *styles.Theme, on, enabled bool) string {
	text := "[   OFF]"
	style := theme.ToggleOff
	if on {
		text = "[ON    ]"
		style = theme.ToggleOn
	}
	if !enabled {
		style = theme.ToggleDisabled
	}
	return style.Render(text)
}

func (s *SecurityToggle) renderThreshold(theme *styles.Theme) string {
	hint := theme.InputHint.Render("  (" +
		security.FormatThreshold(security.ThresholdInputMin) + " – " +
		security.FormatThreshold(security.ThresholdInputMax) + ")")

	if !s.ThresholdEnabled() {
		return theme.InputDisabled.Render(s.threshold.Value()) + hint
	}
	if s.focus == ControlThreshold {
		return s.threshold.View() + hint
	}

	style := theme.InputValue
	if s.threshold.Value() != security.FormatThreshold(s.settings.PromptThreshold) {
		style = theme.InputDirty
	}
	return style.Render(s.threshold.Value()) + hint
}

func (s *SecurityToggle) renderModel(theme *styles.Theme) string {
	label := security.LabelFor(s.models, s.settings.MLModel)
	if !s.ModelSelectEnabled() {
		return theme.SelectDisabled.Render("‹ " + label + " ›")
	}
	return theme.SelectValue.Render("‹ " + label + " ›")
}

func (s *SecurityToggle) modelDescription() string {
	for _, m := range s.models {
		if m.Value == s.settings.MLModel {
			return m.Description
		}
	}
	return ""
}
