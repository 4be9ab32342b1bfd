// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps params in a TOML document and secrets in a sibling
// secrets.toml. Every write re-reads the file first so edits made by other
// processes are preserved; the last write wins.
type FileStore struct {
	path       string
	secretPath string
	mu         sync.Mutex
}

// NewFileStore opens (without creating) a TOML store at path.
func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}
	return &FileStore{
		path:       abs,
		secretPath: filepath.Join(filepath.Dir(abs), "secrets.toml"),
	}, nil
}

// Path returns the params file path.
func (s *FileStore) Path() string {
	return s.path
}

// Values reads the params file. A missing file is an empty snapshot.
func (s *FileStore) Values(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readTOML(s.path)
}

// Upsert writes key into params or secrets.
func (s *FileStore) Upsert(ctx context.Context, key string, value any, secret bool) error {
	if err := checkKey(key); err != nil {
		return err
	}
	v, err := normalizeValue(value)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := readTOML(s.path)
	if err != nil {
		return err
	}
	secrets, err := readTOML(s.secretPath)
	if err != nil {
		return err
	}

	target, other := params, secrets
	targetPath, otherPath := s.path, s.secretPath
	if secret {
		target, other = secrets, params
		targetPath, otherPath = s.secretPath, s.path
	}

	target[key] = v
	if err := writeTOML(targetPath, target); err != nil {
		return err
	}
	if _, ok := other[key]; ok {
		delete(other, key)
		if err := writeTOML(otherPath, other); err != nil {
			return err
		}
	}
	return nil
}

// Secret reads key from the secrets file.
func (s *FileStore) Secret(ctx context.Context, key string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secrets, err := readTOML(s.secretPath)
	if err != nil {
		return nil, err
	}
	v, ok := secrets[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

// Delete removes key from params and secrets.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, path := range []string{s.path, s.secretPath} {
		values, err := readTOML(path)
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			continue
		}
		found = true
		delete(values, key)
		if err := writeTOML(path, values); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// Close is a no-op; the store holds no open handles.
func (s *FileStore) Close() error {
	return nil
}

// =============================================================================
// TOML IO
// =============================================================================

func readTOML(path string) (map[string]any, error) {
	values := make(map[string]any)
	if _, err := toml.DecodeFile(path, &values); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return values, nil
}

func writeTOML(path string, values map[string]any) error {
	var buf bytes.Buffer
	buf.WriteString("# promptguard settings - written by promptguard, edits are picked up live\n\n")
	if err := toml.NewEncoder(&buf).Encode(values); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return atomicWrite(path, buf.Bytes(), 0600)
}

// atomicWrite writes data to a temp file in the target directory, syncs it
// and renames it over path, so readers see the old or the new file only.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()

	ok := false
	defer func() {
		if !ok {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	ok = true
	return nil
}
