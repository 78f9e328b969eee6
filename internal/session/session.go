// Package session wires the three document stores, their watchers, the
// revision history and the topology source together.
//
// Settings are loaded first because they locate the other two documents and
// configure watching, history and monitor detection. When watching is
// requested every watcher is registered before its store is built, so the
// store's saves announce themselves to the watcher from the first write on.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/history"
	"github.com/randalmurphal/tilecfg/internal/paths"
	"github.com/randalmurphal/tilecfg/internal/persist"
	"github.com/randalmurphal/tilecfg/internal/schema"
	"github.com/randalmurphal/tilecfg/internal/topology"
	"github.com/randalmurphal/tilecfg/internal/watcher"
)

// Options configure Open.
type Options struct {
	Roots paths.Roots

	// SettingsPath overrides the settings location.
	SettingsPath string

	// HistoryPath overrides the history database location.
	HistoryPath string

	// NoHistory disables revision history regardless of settings.
	NoHistory bool

	// Watch registers a watcher per document. Run them with Session.Watch.
	Watch bool

	// Debounce overrides the debounce window from settings.
	Debounce time.Duration

	Logger *slog.Logger
}

type runner interface {
	Run(ctx context.Context) error
	Stop()
	Path() string
}

// Session holds the stores of one tilecfg process.
type Session struct {
	Settings *persist.Store[config.Settings]
	WM       *persist.Store[config.Config]
	Hotkeys  *persist.Store[config.Hotkeys]

	roots    paths.Roots
	resolved *config.Settings
	topology topology.Source
	history  *history.Store
	logger   *slog.Logger

	watchers []runner
	observe  singleflight.Group

	mu   sync.Mutex
	emit func(tea.Msg)
}

// Open loads settings and builds every store. A missing settings file means
// defaults; an unreadable or invalid one is an error.
func Open(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{roots: opts.Roots, logger: logger}

	settingsPath := opts.SettingsPath
	if settingsPath == "" {
		settingsPath = config.SettingsPath(opts.Roots.Home)
	}
	settingsSchema := config.SettingsSchema(opts.Roots)
	loaded, err := persist.New(config.KindSettings, settingsPath, settingsSchema, persist.WithLogger(logger)).Load(ctx)
	if err != nil && !tcerrors.IsNotFound(err) {
		return nil, err
	}
	s.resolved = settingsSchema.Resolve(loaded)
	s.topology = topology.FromSettings(s.resolved, opts.Roots)

	if !opts.NoHistory && *s.resolved.History.Enabled {
		historyPath := opts.HistoryPath
		if historyPath == "" {
			historyPath = config.HistoryPath(opts.Roots.Home)
		}
		h, err := history.Open(ctx, historyPath,
			history.WithKeep(*s.resolved.History.Keep),
			history.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		s.history = h
	}

	w := watchOptions{enabled: opts.Watch, debounce: opts.Debounce, skipUnchanged: *s.resolved.Watch.SkipUnchanged}
	if w.debounce <= 0 {
		w.debounce = *s.resolved.Watch.Debounce
	}

	if s.Settings, err = newStore(s, w, config.KindSettings, settingsPath, settingsSchema); err != nil {
		s.Close()
		return nil, err
	}
	if s.WM, err = newStore(s, w, config.KindWM, s.resolved.DocumentPath(config.KindWM, opts.Roots), config.WMSchema(opts.Roots)); err != nil {
		s.Close()
		return nil, err
	}
	if s.Hotkeys, err = newStore(s, w, config.KindHotkeys, s.resolved.DocumentPath(config.KindHotkeys, opts.Roots), config.HotkeysSchema(opts.Roots)); err != nil {
		s.Close()
		return nil, err
	}

	if path := topology.Watched(s.topology); path != "" && w.enabled {
		tw, err := watcher.New(watcher.Config[topology.ObservedMsg]{
			Path:          path,
			Reload:        s.Observe,
			Emit:          func(m topology.ObservedMsg) { s.deliver(m) },
			Debounce:      w.debounce,
			SkipUnchanged: true,
			Logger:        logger.With("watch", "topology"),
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.watchers = append(s.watchers, tw)
	}

	return s, nil
}

type watchOptions struct {
	enabled       bool
	debounce      time.Duration
	skipUnchanged bool
}

// newStore builds the store of one document and, when watching, its watcher.
// The watcher's reload goes through the store, and the store's saves go
// through the watcher's handle, so the watcher is created first and the
// store is bound into its reload closure afterwards.
func newStore[T any](s *Session, w watchOptions, kind config.Kind, path string, sch *schema.Schema[T]) (*persist.Store[T], error) {
	opts := []persist.Option{persist.WithLogger(s.logger)}
	if s.history != nil {
		opts = append(opts, persist.WithRecorder(s.history))
	}

	var store *persist.Store[T]
	if w.enabled {
		fw, err := watcher.New(watcher.Config[persist.LoadedMsg[T]]{
			Path: path,
			Reload: func(ctx context.Context) persist.LoadedMsg[T] {
				return store.ReloadFunc()(ctx)
			},
			Emit:          func(m persist.LoadedMsg[T]) { s.deliver(m) },
			Debounce:      w.debounce,
			SkipUnchanged: w.skipUnchanged,
			Logger:        s.logger.With("kind", kind.String()),
		})
		if err != nil {
			return nil, err
		}
		s.watchers = append(s.watchers, fw)
		opts = append(opts, persist.WithIgnorer(fw.Handle()))
	}

	store = persist.New(kind, path, sch, opts...)
	return store, nil
}

// Roots returns the symbolic roots the session resolves paths against.
func (s *Session) Roots() paths.Roots {
	return s.roots
}

// ResolvedSettings returns a copy of the settings merged with defaults, as
// they were when the session was opened.
func (s *Session) ResolvedSettings() *config.Settings {
	return config.SettingsSchema(s.roots).Clone(s.resolved)
}

// History returns the revision history, or nil when it is disabled.
func (s *Session) History() *history.Store {
	return s.history
}

// Topology returns the monitor count source selected by settings.
func (s *Session) Topology() topology.Source {
	return s.topology
}

// Observe reads the topology source. Concurrent callers share one read.
func (s *Session) Observe(ctx context.Context) topology.ObservedMsg {
	v, _, _ := s.observe.Do("observe", func() (any, error) {
		return topology.Observe(ctx, s.topology), nil
	})
	return v.(topology.ObservedMsg)
}

// ObserveCmd returns a command that reads the topology source.
func (s *Session) ObserveCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		return s.Observe(ctx)
	}
}

// Watching reports whether watchers were registered.
func (s *Session) Watching() bool {
	return len(s.watchers) > 0
}

// WatchedPaths lists the files being watched.
func (s *Session) WatchedPaths() []string {
	out := make([]string, 0, len(s.watchers))
	for _, w := range s.watchers {
		out = append(out, w.Path())
	}
	return out
}

// Watch runs every watcher until ctx is cancelled, delivering reloads to
// emit. Reload results are persist.LoadedMsg values for each document and
// topology.ObservedMsg for the state file.
func (s *Session) Watch(ctx context.Context, emit func(tea.Msg)) error {
	if len(s.watchers) == 0 {
		return fmt.Errorf("session opened without watching")
	}

	s.mu.Lock()
	s.emit = emit
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range s.watchers {
		w := w
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	return g.Wait()
}

func (s *Session) deliver(msg tea.Msg) {
	s.mu.Lock()
	emit := s.emit
	s.mu.Unlock()
	if emit == nil {
		s.logger.Debug("dropping reload, no receiver", "msg", fmt.Sprintf("%T", msg))
		return
	}
	emit(msg)
}

// Close stops watchers and closes the history database.
func (s *Session) Close() {
	for _, w := range s.watchers {
		w.Stop()
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.Warn("close history", "error", err)
		}
	}
}
