package persist

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randalmurphal/tilecfg/internal/config"
)

// LoadedMsg delivers the result of a load or reload. Tree is nil when Err is
// set; a NotFound Err means "use defaults".
type LoadedMsg[T any] struct {
	Kind config.Kind
	Tree *T
	Err  error
}

// SavedMsg delivers the result of a save.
type SavedMsg struct {
	Kind       config.Kind
	Path       string
	Generation string
	Err        error
}

// LoadCmd returns a command that loads the document off the UI loop.
func (s *Store[T]) LoadCmd(ctx context.Context) tea.Cmd {
	reload := s.ReloadFunc()
	return func() tea.Msg {
		return reload(ctx)
	}
}

// ReloadFunc returns the load as a plain function, in the shape the
// watcher expects for its reload callback.
func (s *Store[T]) ReloadFunc() func(context.Context) LoadedMsg[T] {
	return func(ctx context.Context) LoadedMsg[T] {
		t, err := s.Load(ctx)
		return LoadedMsg[T]{Kind: s.kind, Tree: t, Err: err}
	}
}

// SaveCmd returns a command that saves a snapshot of t off the UI loop.
// The snapshot is taken now, so the caller may keep editing t.
func (s *Store[T]) SaveCmd(ctx context.Context, t *T) tea.Cmd {
	snapshot := s.schema.Clone(t)
	save := s.SaveFunc()
	return func() tea.Msg {
		return save(ctx, snapshot)
	}
}

// SaveFunc returns the save as a plain function reporting its result as a
// SavedMsg. It does not copy t.
func (s *Store[T]) SaveFunc() func(context.Context, *T) SavedMsg {
	return func(ctx context.Context, t *T) SavedMsg {
		generation, err := s.Save(ctx, t)
		return SavedMsg{Kind: s.kind, Path: s.path, Generation: generation, Err: err}
	}
}
