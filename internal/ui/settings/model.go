// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/promptguard-tui/internal/security"
	"github.com/jeranaias/promptguard-tui/internal/storage"
	"github.com/jeranaias/promptguard-tui/internal/ui/components"
	"github.com/jeranaias/promptguard-tui/internal/ui/styles"
)

// loadTimeout bounds a single read of the store.
const loadTimeout = 5 * time.Second

// Options configures a settings screen.
type Options struct {
	Store   storage.Store
	Watcher storage.Watcher // optional; nil disables live reload
	Catalog security.Catalog
	Logger  logrus.FieldLogger
	Theme   *styles.Theme
	Backend string
	// MaxWidth caps the panel width (0 = terminal width).
	MaxWidth int
}

// Model is the settings screen. It owns the store snapshot and keeps the
// security panel in sync with it.
type Model struct {
	store   storage.Store
	watcher storage.Watcher
	logger  logrus.FieldLogger
	theme   *styles.Theme

	toggle *components.SecurityToggle
	header *components.Header
	status *components.StatusBar
	help   help.Model
	keys   KeyMap

	values  map[string]any
	changes <-chan map[string]any
	cancel  context.CancelFunc

	width    int
	height   int
	maxWidth int
	loaded   bool
	quitting bool
}

// New creates the settings screen.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	header := components.NewHeader(theme)
	if opts.Store != nil {
		header.SetStore(opts.Backend, opts.Store.Path())
	}

	h := help.New()
	h.Styles.ShortKey = theme.Help
	h.Styles.ShortDesc = theme.Help
	h.Styles.FullKey = theme.Help
	h.Styles.FullDesc = theme.Help

	return Model{
		store:    opts.Store,
		watcher:  opts.Watcher,
		logger:   logger,
		theme:    theme,
		toggle:   components.NewSecurityToggle(theme, opts.Store, opts.Catalog, logger),
		header:   header,
		status:   components.NewStatusBar(theme),
		help:     h,
		keys:     DefaultKeyMap(),
		values:   map[string]any{},
		maxWidth: opts.MaxWidth,
	}
}

// Values returns the screen's current store snapshot.
func (m Model) Values() map[string]any {
	return m.values
}

// Toggle exposes the security panel.
func (m Model) Toggle() *components.SecurityToggle {
	return m.toggle
}

// Status exposes the status bar.
func (m Model) Status() *components.StatusBar {
	return m.status
}

// Loaded reports whether the first store read has completed.
func (m Model) Loaded() bool {
	return m.loaded
}

// Quitting reports whether the screen asked the program to exit.
func (m Model) Quitting() bool {
	return m.quitting
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init loads the store, the model catalog and starts watching for changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadValues(m.store),
		m.toggle.Init(),
		startWatch(m.watcher),
	)
}

// =============================================================================
// COMMANDS
// =============================================================================

// valuesLoadedMsg carries a store read issued by the screen.
type valuesLoadedMsg struct {
	values map[string]any
	err    error
}

// watchStartedMsg hands the watcher's channel to the event loop.
type watchStartedMsg struct {
	changes <-chan map[string]any
	cancel  context.CancelFunc
	err     error
}

// watchClosedMsg reports that the watcher's channel closed.
type watchClosedMsg struct{}

func loadValues(store storage.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		values, err := store.Values(ctx)
		return valuesLoadedMsg{values: values, err: err}
	}
}

func startWatch(w storage.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		ch, err := w.Watch(ctx)
		if err != nil {
			cancel()
			return watchStartedMsg{err: err}
		}
		return watchStartedMsg{changes: ch, cancel: cancel}
	}
}

// waitForChange blocks on the next snapshot, the usual Bubble Tea pattern
// for draining a channel one message at a time.
func waitForChange(ch <-chan map[string]any) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		values, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return components.ConfigChangedMsg{Values: values}
	}
}
