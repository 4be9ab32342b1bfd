// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyKey is returned when a key is blank.
	ErrEmptyKey = errors.New("storage: empty key")
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnsupportedValue is returned for values that are not bool, number or string.
	ErrUnsupportedValue = errors.New("storage: unsupported value type")
	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("storage: unknown backend")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a key-value configuration store with upsert semantics.
// Values are bool, float64, int64 or string.
type Store interface {
	// Values returns a snapshot of all non-secret params.
	Values(ctx context.Context) (map[string]any, error)

	// Upsert inserts or replaces key. When secret is true the value is kept
	// in the secret area and removed from params, and vice versa.
	Upsert(ctx context.Context, key string, value any, secret bool) error

	// Secret returns a value stored with secret=true.
	Secret(ctx context.Context, key string) (any, error)

	// Delete removes key from both params and secrets.
	Delete(ctx context.Context, key string) error

	// Path returns the location of the backing file.
	Path() string

	// Close releases resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendTOML   = "toml"
	BackendSQLite = "sqlite"
)

// Open opens a store of the given backend at path, creating it if needed.
func Open(backend, path string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	switch strings.ToLower(backend) {
	case BackendTOML, "":
		return NewFileStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// =============================================================================
// VALUE NORMALISATION
// =============================================================================

// normalizeValue maps accepted Go values onto the store's value set.
func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case bool, string, int64:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite number", ErrUnsupportedValue)
		}
		return v, nil
	case float32:
		return normalizeValue(float64(v))
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}

func copyValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
