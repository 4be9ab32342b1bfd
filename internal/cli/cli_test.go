// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/promptguard-tui/internal/config"
	"github.com/jeranaias/promptguard-tui/internal/security"
	"github.com/jeranaias/promptguard-tui/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

type cliEnv struct {
	dir       string
	storeArgs []string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PROMPTGUARD_LOG_FILE", filepath.Join(dir, "promptguard.log"))
	for _, key := range security.Keys {
		t.Setenv(strings.ToUpper(key), "")
	}
	return &cliEnv{
		dir: dir,
		storeArgs: []string{
			"--config", filepath.Join(dir, "promptguard.toml"),
			"--store-path", filepath.Join(dir, "settings.toml"),
		},
	}
}

func (e *cliEnv) run(args ...string) (string, string, error) {
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(append([]string{}, e.storeArgs...), args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// =============================================================================
// SET / GET
// =============================================================================

func TestSetThenGet(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run("set", security.KeyPromptThreshold, "0.95")
	require.NoError(t, err)
	assert.Contains(t, out, "security_prompt_threshold = 0.95")

	out, _, err = e.run("get", security.KeyPromptThreshold)
	require.NoError(t, err)
	assert.Equal(t, "0.95\n", out)
}

func TestSetRejectsInvalidThreshold(t *testing.T) {
	for _, raw := range []string{"abc", "1.5", "0", "0.001"} {
		t.Run(raw, func(t *testing.T) {
			e := newCLIEnv(t)

			_, _, err := e.run("set", security.KeyPromptThreshold, raw)
			require.Error(t, err)
			assert.Equal(t, ExitUsageError, GetExitCode(err))

			out, _, err := e.run("get", security.KeyPromptThreshold)
			require.NoError(t, err)
			assert.Equal(t, "0.7\n", out)
		})
	}
}

func TestGetTableShowsDefaults(t *testing.T) {
	e := newCLIEnv(t)

	_, _, err := e.run("set", security.KeyPromptEnabled, "true")
	require.NoError(t, err)

	out, _, err := e.run("get")
	require.NoError(t, err)
	for _, key := range security.Keys {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "0.7")
	assert.Contains(t, out, sourceDefault)
	assert.Contains(t, out, sourceStore)
}

func TestGetJSONReportsSources(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("SECURITY_PROMPT_THRESHOLD", "0.3")

	_, _, err := e.run("set", security.KeyMLEnabled, "yes")
	require.Error(t, err, "ParseBool does not accept yes")

	_, _, err = e.run("set", security.KeyMLEnabled, "1")
	require.NoError(t, err)

	out, _, err := e.run("get", "--json")
	require.NoError(t, err)

	var resp struct {
		Success bool          `json:"success"`
		Data    []SettingData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.True(t, resp.Success)

	sources := map[string]string{}
	values := map[string]any{}
	for _, row := range resp.Data {
		sources[row.Key] = row.Source
		values[row.Key] = row.Value
	}
	assert.Equal(t, sourceEnv, sources[security.KeyPromptThreshold])
	assert.Equal(t, 0.3, values[security.KeyPromptThreshold])
	assert.Equal(t, sourceStore, sources[security.KeyMLEnabled])
	assert.Equal(t, true, values[security.KeyMLEnabled])
	assert.Equal(t, sourceDefault, sources[security.KeyMLModel])
}

func TestSetWarnsWhenOverridden(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("SECURITY_PROMPT_ENABLED", "false")

	_, stderr, err := e.run("set", security.KeyPromptEnabled, "true")
	require.NoError(t, err)
	assert.Contains(t, stderr, "$SECURITY_PROMPT_ENABLED")
}

func TestSetModel(t *testing.T) {
	e := newCLIEnv(t)

	_, _, err := e.run("set", security.KeyMLModel, "gpt-guard")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Example, security.DefaultModel)

	_, _, err = e.run("set", security.KeyMLModel, security.DefaultModel)
	require.NoError(t, err)
}

func TestSecrets(t *testing.T) {
	e := newCLIEnv(t)

	_, _, err := e.run("set", "classifier_api_key", "sk-123")
	require.Error(t, err, "unknown keys need --secret")

	out, _, err := e.run("set", "--secret", "classifier_api_key", "sk-123")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-123")

	out, _, err = e.run("get", "--secret", "classifier_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-123\n", out)

	out, _, err = e.run("get")
	require.NoError(t, err)
	assert.NotContains(t, out, "classifier_api_key")

	_, _, err = e.run("set", "--secret", security.KeyPromptEnabled, "true")
	assert.Error(t, err, "security settings stay visible to the panel")
}

func TestUnset(t *testing.T) {
	e := newCLIEnv(t)

	_, _, err := e.run("unset", security.KeyPromptThreshold)
	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	_, _, err = e.run("set", security.KeyPromptThreshold, "0.2")
	require.NoError(t, err)
	_, _, err = e.run("unset", security.KeyPromptThreshold)
	require.NoError(t, err)

	out, _, err := e.run("get", security.KeyPromptThreshold)
	require.NoError(t, err)
	assert.Equal(t, "0.7\n", out)
}

func TestGetUnknownKey(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run("get", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestSQLiteBackend(t *testing.T) {
	e := newCLIEnv(t)
	e.storeArgs = []string{
		"--config", filepath.Join(e.dir, "promptguard.toml"),
		"--store", "sqlite",
		"--store-path", filepath.Join(e.dir, "settings.db"),
	}

	_, _, err := e.run("set", security.KeyPromptThreshold, "0.55")
	require.NoError(t, err)

	out, _, err := e.run("get", security.KeyPromptThreshold)
	require.NoError(t, err)
	assert.Equal(t, "0.55\n", out)
}

func TestUnknownBackendFlag(t *testing.T) {
	e := newCLIEnv(t)
	e.storeArgs = append(e.storeArgs, "--store", "etcd")

	_, _, err := e.run("get")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// MODELS
// =============================================================================

func TestModelsJSON(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run("models", "--json")
	require.NoError(t, err)

	var resp struct {
		Data []ModelData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, security.DefaultModel, resp.Data[0].Value)
	assert.True(t, resp.Data[0].Selected)
}

func TestModelsTable(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.run("models")
	require.NoError(t, err)
	assert.Contains(t, out, security.DefaultModel)
	assert.Contains(t, out, "*")
}

// =============================================================================
// INIT
// =============================================================================

func TestInitWritesConfig(t *testing.T) {
	e := newCLIEnv(t)
	e.storeArgs = append(e.storeArgs, "--store", "SQLite")

	out, _, err := e.run("init")
	require.NoError(t, err)
	assert.Contains(t, out, "promptguard.toml")

	cfg, err := config.LoadFromPath(filepath.Join(e.dir, "promptguard.toml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, filepath.Join(e.dir, "settings.toml"), cfg.Store.Path)

	_, _, err = e.run("init")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, _, err = e.run("init", "--force")
	require.NoError(t, err)
}

// =============================================================================
// TUI / EXIT CODES
// =============================================================================

func TestTUIRequiresTerminal(t *testing.T) {
	e := newCLIEnv(t)
	_, _, err := e.run("tui")
	assert.ErrorIs(t, err, errNoTerminal)
}

func TestParseSettingValue(t *testing.T) {
	models := []security.ModelOption{{Value: security.DefaultModel}}

	tests := []struct {
		key, raw string
		secret   bool
		want     any
		wantErr  bool
	}{
		{security.KeyPromptEnabled, "true", false, true, false},
		{security.KeyPromptEnabled, " 0 ", false, false, false},
		{security.KeyPromptEnabled, "maybe", false, nil, true},
		{security.KeyPromptThreshold, "0.01", false, 0.01, false},
		{security.KeyPromptThreshold, " 1 ", false, 1.0, false},
		{security.KeyPromptThreshold, "0.009", false, nil, true},
		{security.KeyPromptThreshold, "Inf", false, nil, true},
		{security.KeyMLModel, security.DefaultModel, false, security.DefaultModel, false},
		{security.KeyMLModel, "other", false, nil, true},
		{"", "x", true, nil, true},
		{"token", "abc", true, "abc", false},
		{"token", "abc", false, nil, true},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s=%s", tc.key, tc.raw), func(t *testing.T) {
			got, err := parseSettingValue(tc.key, tc.raw, tc.secret, models)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{&ValidationError{Field: "x"}, ExitUsageError},
		{&NotFoundError{Resource: "setting", ID: "x"}, ExitNotFoundError},
		{fmt.Errorf("wrapped: %w", storage.ErrNotFound), ExitNotFoundError},
		{fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "ui.theme"}}), ExitConfigError},
		{fmt.Errorf("open: %w", storage.ErrUnknownBackend), ExitConfigError},
		{errors.New("boom"), ExitGeneralError},
	}

	for _, tc := range tests {
		if got := GetExitCode(tc.err); got != tc.want {
			t.Errorf("GetExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
