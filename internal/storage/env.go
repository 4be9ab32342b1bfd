// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"strings"
)

// EnvOverlay wraps a Store so that environment variables named after a key
// in upper case (security_prompt_enabled -> SECURITY_PROMPT_ENABLED) take
// precedence over stored params. Only keys listed in Keys are overlaid and
// an empty variable counts as unset. Writes pass straight through.
type EnvOverlay struct {
	Store
	Keys   []string
	lookup func(string) (string, bool)
}

// NewEnvOverlay wraps store, overlaying the given keys from the process
// environment.
func NewEnvOverlay(store Store, keys []string) *EnvOverlay {
	return &EnvOverlay{Store: store, Keys: keys, lookup: os.LookupEnv}
}

// Values returns the wrapped snapshot with environment overrides applied.
// Overridden values are strings; readers coerce them.
func (e *EnvOverlay) Values(ctx context.Context) (map[string]any, error) {
	values, err := e.Store.Values(ctx)
	if err != nil {
		return nil, err
	}
	values = copyValues(values)
	for _, key := range e.Keys {
		if v, ok := e.lookup(strings.ToUpper(key)); ok && v != "" {
			values[key] = v
		}
	}
	return values, nil
}

// Overridden reports which keys are currently set from the environment.
func (e *EnvOverlay) Overridden() []string {
	var keys []string
	for _, key := range e.Keys {
		if v, ok := e.lookup(strings.ToUpper(key)); ok && v != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
