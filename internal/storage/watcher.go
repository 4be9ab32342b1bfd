// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// WATCHER INTERFACE
// =============================================================================

// Watcher reports store snapshots after the store changes, whoever wrote it.
type Watcher interface {
	// Watch starts watching and returns a channel of snapshots. The channel
	// is closed when ctx is done or Close is called.
	Watch(ctx context.Context) (<-chan map[string]any, error)

	// Close stops watching and releases resources.
	Close() error
}

// DefaultDebounce coalesces bursts of file events (temp write + rename).
const DefaultDebounce = 75 * time.Millisecond

// NewWatcher picks an fsnotify watcher for file-backed stores and a polling
// watcher otherwise, falling back to polling if fsnotify cannot start.
func NewWatcher(store Store, interval time.Duration, logger logrus.FieldLogger) Watcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if _, ok := unwrap(store).(*FileStore); ok {
		fw, err := NewFileWatcher(store, DefaultDebounce, logger)
		if err == nil {
			return fw
		}
		logger.WithError(err).Warn("fsnotify unavailable, polling settings store")
	}
	return NewPollingWatcher(store, interval, logger)
}

func unwrap(store Store) Store {
	if o, ok := store.(*EnvOverlay); ok {
		return unwrap(o.Store)
	}
	return store
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// FileWatcher implements Watcher using fsnotify on the store's directory.
// The directory is watched rather than the file because writes replace the
// file by rename.
type FileWatcher struct {
	store    Store
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   logrus.FieldLogger

	mu    sync.Mutex
	timer *time.Timer
	last  map[string]any

	done      chan struct{}
	closeOnce sync.Once
}

// NewFileWatcher creates a watcher for a file-backed store.
func NewFileWatcher(store Store, debounce time.Duration, logger logrus.FieldLogger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileWatcher{
		store:    store,
		watcher:  w,
		debounce: debounce,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Watch begins delivering snapshots.
func (fw *FileWatcher) Watch(ctx context.Context) (<-chan map[string]any, error) {
	if err := fw.watcher.Add(filepath.Dir(fw.store.Path())); err != nil {
		return nil, err
	}

	if values, err := fw.store.Values(ctx); err == nil {
		fw.last = values
	}

	out := make(chan map[string]any, 1)
	go fw.processEvents(ctx, out)
	return out, nil
}

// processEvents filters events for the store file and schedules a reload.
func (fw *FileWatcher) processEvents(ctx context.Context, out chan<- map[string]any) {
	defer close(out)

	target := filepath.Clean(fw.store.Path())
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			fw.stopTimer()
			return

		case <-fw.done:
			fw.stopTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			fw.schedule(reload)

		case <-reload:
			values, err := fw.store.Values(ctx)
			if err != nil {
				fw.logger.WithError(err).Warn("failed to reload settings store")
				continue
			}
			if reflect.DeepEqual(values, fw.last) {
				continue
			}
			fw.last = values
			select {
			case out <- values:
			case <-ctx.Done():
				return
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.WithError(err).Warn("settings watcher error")
		}
	}
}

// schedule arms the debounce timer, restarting it on every event.
func (fw *FileWatcher) schedule(reload chan<- struct{}) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	})
}

func (fw *FileWatcher) stopTimer() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
}

// Close stops watching.
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}

// =============================================================================
// POLLING WATCHER
// =============================================================================

// PollingWatcher implements Watcher by re-reading the store periodically.
type PollingWatcher struct {
	store    Store
	interval time.Duration
	logger   logrus.FieldLogger

	done      chan struct{}
	closeOnce sync.Once
}

// NewPollingWatcher creates a watcher that polls every interval.
func NewPollingWatcher(store Store, interval time.Duration, logger logrus.FieldLogger) *PollingWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PollingWatcher{
		store:    store,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Watch takes an initial snapshot and starts polling.
func (pw *PollingWatcher) Watch(ctx context.Context) (<-chan map[string]any, error) {
	last, err := pw.store.Values(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan map[string]any, 1)
	go pw.poll(ctx, last, out)
	return out, nil
}

// poll emits a snapshot whenever it differs from the previous one.
func (pw *PollingWatcher) poll(ctx context.Context, last map[string]any, out chan<- map[string]any) {
	defer close(out)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pw.done:
			return
		case <-ticker.C:
			values, err := pw.store.Values(ctx)
			if err != nil {
				pw.logger.WithError(err).Warn("failed to poll settings store")
				continue
			}
			if reflect.DeepEqual(values, last) {
				continue
			}
			last = values
			select {
			case out <- values:
			case <-ctx.Done():
				return
			case <-pw.done:
				return
			}
		}
	}
}

// Close stops polling.
func (pw *PollingWatcher) Close() error {
	pw.closeOnce.Do(func() { close(pw.done) })
	return nil
}
