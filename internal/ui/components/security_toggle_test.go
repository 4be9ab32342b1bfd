// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/promptguard-tui/internal/security"
	"github.com/jeranaias/promptguard-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

type upsertCall struct {
	Key    string
	Value  any
	Secret bool
}

type recordingUpserter struct {
	mu    sync.Mutex
	calls []upsertCall
	err   error
}

func (r *recordingUpserter) Upsert(_ context.Context, key string, value any, secret bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, upsertCall{Key: key, Value: value, Secret: secret})
	return r.err
}

// Reset forgets recorded calls, such as the commit made when tabbing past
// the threshold field.
func (r *recordingUpserter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *recordingUpserter) Calls() []upsertCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]upsertCall(nil), r.calls...)
}

type failingCatalog struct{}

func (failingCatalog) Models(context.Context) ([]security.ModelOption, error) {
	return nil, errors.New("catalog offline")
}

var twoModels = security.StaticCatalog{
	{Value: security.DefaultModel, Label: "DeBERTa Prompt Injection v2"},
	{Value: "llama-guard-3", Label: "Llama Guard 3"},
}

// run executes cmd, expanding batches, and returns every message produced.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func upserted(msgs []tea.Msg) []SettingUpsertedMsg {
	var out []SettingUpsertedMsg
	for _, m := range msgs {
		if u, ok := m.(SettingUpsertedMsg); ok {
			out = append(out, u)
		}
	}
	return out
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys in order and collects every resulting message.
func press(s *SecurityToggle, keys ...string) []tea.Msg {
	var out []tea.Msg
	for _, k := range keys {
		cmd, _ := s.Update(keyPress(k))
		out = append(out, run(cmd)...)
	}
	return out
}

// typeThreshold clears the focused field and types text.
func typeThreshold(s *SecurityToggle, text string) {
	for range s.ThresholdText() {
		press(s, "backspace")
	}
	for _, r := range text {
		press(s, string(r))
	}
}

func newToggle(t *testing.T, catalog security.Catalog) (*SecurityToggle, *recordingUpserter, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	rec := &recordingUpserter{}
	s := NewSecurityToggle(styles.NewTheme(), rec, catalog, logger)
	for _, msg := range run(s.Init()) {
		s.Update(msg)
	}
	return s, rec, hook
}

func enabledValues() map[string]any {
	return map[string]any{security.KeyPromptEnabled: true}
}

// =============================================================================
// INITIAL STATE
// =============================================================================

func TestSecurityToggle_EmptyConfig(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	s.SetValues(map[string]any{})

	assert.Equal(t, "0.7", s.ThresholdText())
	assert.False(t, s.Settings().PromptEnabled)
	assert.False(t, s.Settings().MLEnabled)
	assert.Equal(t, security.DefaultModel, s.Settings().MLModel)

	assert.False(t, s.ThresholdEnabled())
	assert.False(t, s.MLToggleEnabled())
	assert.False(t, s.ModelSelectEnabled())
	assert.Empty(t, rec.Calls())
}

func TestSecurityToggle_InitLoadsCatalog(t *testing.T) {
	s, _, _ := newToggle(t, nil)
	require.Len(t, s.Models(), 1)
	assert.Equal(t, security.DefaultModel, s.Models()[0].Value)
}

func TestSecurityToggle_CatalogErrorLogged(t *testing.T) {
	s, _, hook := newToggle(t, failingCatalog{})
	assert.Empty(t, s.Models())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)

	s.SetValues(map[string]any{
		security.KeyPromptEnabled: true,
		security.KeyMLEnabled:     true,
	})
	assert.Contains(t, s.View(), security.DefaultModel, "raw id is shown when the label is unknown")
}

func TestSecurityToggle_EnablementRules(t *testing.T) {
	tests := []struct {
		name            string
		values          map[string]any
		threshold, ml   bool
		modelSelectable bool
	}{
		{"all off", map[string]any{}, false, false, false},
		{"prompt on", map[string]any{security.KeyPromptEnabled: true}, true, true, false},
		{"ml without prompt", map[string]any{security.KeyMLEnabled: true}, false, false, false},
		{"both on", map[string]any{security.KeyPromptEnabled: true, security.KeyMLEnabled: true}, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newToggle(t, nil)
			s.SetValues(tt.values)
			assert.Equal(t, tt.threshold, s.ThresholdEnabled())
			assert.Equal(t, tt.ml, s.MLToggleEnabled())
			assert.Equal(t, tt.modelSelectable, s.ModelSelectEnabled())
		})
	}
}

// =============================================================================
// PROMPT TOGGLE
// =============================================================================

func TestSecurityToggle_TogglePrompt(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	s.SetValues(map[string]any{})

	msgs := press(s, " ")
	require.Equal(t, []upsertCall{{Key: security.KeyPromptEnabled, Value: true}}, rec.Calls())

	ups := upserted(msgs)
	require.Len(t, ups, 1)
	assert.NoError(t, ups[0].Err)
	assert.NotEmpty(t, ups[0].Op)

	// The panel waits for the store to report back before showing the change.
	assert.False(t, s.Settings().PromptEnabled)

	s.SetValues(enabledValues())
	press(s, "enter")
	assert.Equal(t, upsertCall{Key: security.KeyPromptEnabled, Value: false}, rec.Calls()[1])
}

func TestSecurityToggle_UpsertErrorReported(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	rec.err = errors.New("disk full")

	ups := upserted(run(s.TogglePrompt()))
	require.Len(t, ups, 1)
	assert.EqualError(t, ups[0].Err, "disk full")
	assert.Equal(t, security.KeyPromptEnabled, ups[0].Key)
}

// =============================================================================
// THRESHOLD
// =============================================================================

func TestSecurityToggle_InvalidThresholdReverts(t *testing.T) {
	for _, text := range []string{"abc", "", "1.5", "0", "-0.2", "0.005", "NaN", "0.5x", "0x1p-1"} {
		t.Run(text, func(t *testing.T) {
			s, rec, _ := newToggle(t, nil)
			s.SetValues(enabledValues())

			press(s, "tab")
			require.Equal(t, ControlThreshold, s.Focused())
			typeThreshold(s, text)
			assert.Equal(t, text, s.ThresholdText())

			press(s, "tab")
			assert.Equal(t, "0.7", s.ThresholdText())
			assert.Empty(t, rec.Calls())
		})
	}
}

func TestSecurityToggle_ValidThresholdCommits(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	s.SetValues(enabledValues())

	press(s, "tab")
	typeThreshold(s, "0.95")
	msgs := press(s, "tab")

	assert.Equal(t, []upsertCall{{Key: security.KeyPromptThreshold, Value: 0.95}}, rec.Calls())
	assert.Equal(t, "0.95", s.ThresholdText())
	assert.Equal(t, ControlMLToggle, s.Focused())

	ups := upserted(msgs)
	require.Len(t, ups, 1)
	assert.Equal(t, 0.95, ups[0].Value)
}

func TestSecurityToggle_BlurKeysCommit(t *testing.T) {
	for _, k := range []string{"tab", "shift+tab", "up", "down", "enter", "esc"} {
		t.Run(k, func(t *testing.T) {
			s, rec, _ := newToggle(t, nil)
			s.SetValues(enabledValues())

			press(s, "tab")
			typeThreshold(s, "0.42")
			press(s, k)

			assert.NotEqual(t, ControlThreshold, s.Focused())
			assert.Equal(t, []upsertCall{{Key: security.KeyPromptThreshold, Value: 0.42}}, rec.Calls())
		})
	}
}

func TestSecurityToggle_ThresholdNormalisedOnCommit(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	s.SetValues(enabledValues())

	press(s, "tab")
	typeThreshold(s, " 1.000 ")
	press(s, "tab")

	require.Len(t, rec.Calls(), 1)
	assert.Equal(t, 1.0, rec.Calls()[0].Value)
	assert.Equal(t, "1", s.ThresholdText())
}

func TestSecurityToggle_ThresholdStepping(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	s.SetValues(enabledValues())

	press(s, "tab", "pgup")
	assert.Equal(t, "0.71", s.ThresholdText())
	press(s, "pgdown", "pgdown")
	assert.Equal(t, "0.69", s.ThresholdText())
	assert.Empty(t, rec.Calls(), "stepping edits the text only")

	typeThreshold(s, "0.01")
	press(s, "pgdown")
	assert.Equal(t, "0.01", s.ThresholdText())

	typeThreshold(s, "1")
	press(s, "pgup")
	assert.Equal(t, "1", s.ThresholdText())
}

func TestSecurityToggle_QuitKeyTypedIntoField(t *testing.T) {
	s, _, _ := newToggle(t, nil)
	s.SetValues(enabledValues())

	_, handled := s.Update(keyPress("q"))
	assert.False(t, handled, "q is free for the host outside the field")

	press(s, "tab")
	_, handled = s.Update(keyPress("q"))
	assert.True(t, handled)
	assert.Equal(t, "0.7q", s.ThresholdText())
}

func TestSecurityToggle_ExternalThresholdWins(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	s.SetValues(map[string]any{
		security.KeyPromptEnabled:   true,
		security.KeyPromptThreshold: 0.7,
	})

	press(s, "tab")
	typeThreshold(s, "0.5")

	s.SetValues(map[string]any{
		security.KeyPromptEnabled:   true,
		security.KeyPromptThreshold: 0.3,
	})
	assert.Equal(t, "0.3", s.ThresholdText())
	assert.Empty(t, rec.Calls())
}

func TestSecurityToggle_UnrelatedChangeKeepsEdit(t *testing.T) {
	s, _, _ := newToggle(t, nil)
	s.SetValues(enabledValues())

	press(s, "tab")
	typeThreshold(s, "0.5")

	s.Update(ConfigChangedMsg{Values: map[string]any{
		security.KeyPromptEnabled: true,
		security.KeyMLEnabled:     true,
	}})
	assert.Equal(t, "0.5", s.ThresholdText())
	assert.Equal(t, ControlThreshold, s.Focused())
}

func TestSecurityToggle_DisabledWhileEditing(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	s.SetValues(enabledValues())

	press(s, "tab")
	typeThreshold(s, "0.5")
	s.SetValues(map[string]any{})

	assert.Equal(t, ControlPromptToggle, s.Focused())
	assert.Empty(t, rec.Calls(), "losing the field to an external change does not save it")
	assert.Equal(t, "0.7", s.ThresholdText(), "the unsaved edit is dropped")

	s.EditThreshold("0.9")
	assert.Equal(t, "0.7", s.ThresholdText())

	s.SetValues(enabledValues())
	press(s, "tab")
	press(s, "tab")
	require.Len(t, rec.Calls(), 1)
	assert.Equal(t, 0.7, rec.Calls()[0].Value)
}

// =============================================================================
// ML DETECTION
// =============================================================================

func TestSecurityToggle_ToggleMLDisabled(t *testing.T) {
	s, rec, hook := newToggle(t, nil)
	s.SetValues(map[string]any{})

	assert.Nil(t, s.ToggleML())
	assert.Empty(t, rec.Calls())
	assert.Empty(t, hook.AllEntries())
}

func TestSecurityToggle_ToggleMLLogs(t *testing.T) {
	s, rec, hook := newToggle(t, nil)
	s.SetValues(enabledValues())

	press(s, "tab", "tab")
	require.Equal(t, ControlMLToggle, s.Focused())
	rec.Reset()
	msgs := press(s, " ")

	assert.Equal(t, []upsertCall{{Key: security.KeyMLEnabled, Value: true}}, rec.Calls())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, true, entry.Data["enabled"])

	ups := upserted(msgs)
	require.Len(t, ups, 1)
	assert.Equal(t, entry.Data["op"], ups[0].Op, "log entry and result share an op id")
}

func TestSecurityToggle_SelectModel(t *testing.T) {
	s, rec, hook := newToggle(t, twoModels)
	s.SetValues(map[string]any{
		security.KeyPromptEnabled: true,
		security.KeyMLEnabled:     true,
	})

	press(s, "tab", "tab", "tab")
	require.Equal(t, ControlModelSelect, s.Focused())
	rec.Reset()
	press(s, "right")

	assert.Equal(t, []upsertCall{{Key: security.KeyMLModel, Value: "llama-guard-3"}}, rec.Calls())
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "DeBERTa Prompt Injection v2", entry.Data["from"])
	assert.Equal(t, "Llama Guard 3", entry.Data["to"])
	assert.Contains(t, entry.Message, "Llama Guard 3")
}

func TestSecurityToggle_SelectModelWrapsBackwards(t *testing.T) {
	s, rec, _ := newToggle(t, twoModels)
	s.SetValues(map[string]any{
		security.KeyPromptEnabled: true,
		security.KeyMLEnabled:     true,
	})

	press(s, "tab", "tab", "tab")
	rec.Reset()
	press(s, "left")
	assert.Equal(t, []upsertCall{{Key: security.KeyMLModel, Value: "llama-guard-3"}}, rec.Calls())
}

func TestSecurityToggle_SelectSameModelIsNoop(t *testing.T) {
	s, rec, hook := newToggle(t, nil)
	s.SetValues(map[string]any{
		security.KeyPromptEnabled: true,
		security.KeyMLEnabled:     true,
	})

	press(s, "tab", "tab", "tab")
	rec.Reset()
	press(s, "right")
	assert.Empty(t, rec.Calls(), "single-entry catalog cannot change")
	assert.Empty(t, hook.AllEntries())
}

func TestSecurityToggle_SelectModelDisabled(t *testing.T) {
	s, rec, _ := newToggle(t, twoModels)
	s.SetValues(enabledValues())

	assert.Nil(t, s.SelectModel("llama-guard-3"))
	assert.Empty(t, rec.Calls())
}

// =============================================================================
// FOCUS
// =============================================================================

func TestSecurityToggle_LeavingFieldCommitsUnchangedValue(t *testing.T) {
	s, rec, _ := newToggle(t, nil)
	s.SetValues(enabledValues())

	press(s, "tab", "tab")
	assert.Equal(t, []upsertCall{{Key: security.KeyPromptThreshold, Value: 0.7}}, rec.Calls())
}

func TestSecurityToggle_FocusSkipsDisabled(t *testing.T) {
	s, _, _ := newToggle(t, nil)
	s.SetValues(map[string]any{})

	press(s, "tab")
	assert.Equal(t, ControlPromptToggle, s.Focused())

	s.SetValues(enabledValues())
	order := []SecurityControl{ControlThreshold, ControlMLToggle, ControlPromptToggle}
	for _, want := range order {
		press(s, "tab")
		assert.Equal(t, want, s.Focused())
	}

	press(s, "shift+tab")
	assert.Equal(t, ControlMLToggle, s.Focused())
}

// =============================================================================
// VIEW
// =============================================================================

func TestSecurityToggle_View(t *testing.T) {
	s, _, _ := newToggle(t, nil)
	s.SetValues(map[string]any{
		security.KeyPromptEnabled: true,
		security.KeyMLEnabled:     true,
	})

	view := s.View()
	for _, want := range []string{
		"Prompt injection detection",
		"Detection threshold",
		"ML-based detection",
		"ML model",
		"0.7",
		"0.01 – 1",
		"DeBERTa Prompt Injection v2",
	} {
		assert.True(t, strings.Contains(view, want), "view missing %q", want)
	}
}

func TestSecurityToggle_KeyMapHelp(t *testing.T) {
	km := DefaultSecurityKeyMap()
	assert.NotEmpty(t, km.ShortHelp())
	assert.Len(t, km.FullHelp(), 1)
}
