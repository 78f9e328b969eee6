package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/paths"
	"github.com/randalmurphal/tilecfg/internal/persist"
	"github.com/randalmurphal/tilecfg/internal/session"
	"github.com/randalmurphal/tilecfg/internal/topology"
)

func newTestSession(t *testing.T, settings string) *session.Session {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv(paths.ConfigHomeEnv, "")
	roots := paths.Roots{Home: home, ConfigHome: filepath.Join(home, ".config", "tiler")}

	if settings != "" {
		p := config.SettingsPath(home)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(settings), 0644))
	}

	s, err := session.Open(context.Background(), session.Options{Roots: roots, NoHistory: true})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// defaultMonitor is the monitor template with its paths expanded, as it
// appears in a resolved working tree.
func defaultMonitor(s *session.Session) config.Monitor {
	cfg := &config.Config{Monitors: []config.Monitor{config.DefaultMonitor()}}
	return s.WM.Schema().Expand(cfg).Monitors[0]
}

// drain runs cmd and every command it leads to, feeding each message back
// into the model, and returns the final model.
func drain(m Model, cmd tea.Cmd) Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
			return m
		default:
			next, nc := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nc)
		}
	}
	return m
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// edit types a prompt edit and submits it.
func edit(m Model, input string) (Model, tea.Cmd) {
	m, _ = send(m, runes(":"))
	m, _ = send(m, runes(input))
	return send(m, tea.KeyMsg{Type: tea.KeyEnter})
}

func started(t *testing.T, settings string) (Model, *session.Session) {
	t.Helper()
	s := newTestSession(t, settings)
	m := New(context.Background(), s)
	return drain(m, m.Init()), s
}

func TestInit_FirstRun(t *testing.T) {
	m, s := started(t, "")

	assert.True(t, m.wm.loaded)
	assert.True(t, m.hotkeys.loaded)
	assert.True(t, m.settings.loaded)
	assert.Equal(t, 1, m.observed)

	// One monitor observed: the empty monitor list grows to one entry.
	require.Len(t, m.Working().Monitors, 1)
	assert.Equal(t, defaultMonitor(s), m.Working().Monitors[0])
	assert.Equal(t, filepath.Join(s.Roots().ConfigHome, "wallpaper.png"), string(*m.Working().Monitors[0].Wallpaper.Path))
	assert.Equal(t, filepath.Join(s.Roots().ConfigHome, "applications.yaml"), string(*m.Working().AppSpecificConfigurationPath))
	assert.True(t, m.wm.dirty())
	assert.False(t, m.hotkeys.dirty())
	assert.False(t, m.settings.dirty())

	require.NotNil(t, m.Notice())
	assert.Equal(t, LevelInfo, m.Notice().Level)

	_, err := os.Stat(s.WM.Path())
	assert.True(t, os.IsNotExist(err), "nothing is written without a save")
}

func TestEditAndSave(t *testing.T) {
	m, s := started(t, "")

	m, cmd := edit(m, "wm.resize_delta=75")
	assert.Nil(t, cmd, "no auto save by default")
	assert.False(t, m.prompting)
	assert.Equal(t, 75, *m.Working().ResizeDelta)
	assert.True(t, m.Dirty())

	m, cmd = send(m, runes("w"))
	require.NotNil(t, cmd)
	m = drain(m, cmd)
	assert.False(t, m.Dirty())

	data, err := os.ReadFile(s.WM.Path())
	require.NoError(t, err)
	assert.Equal(t, config.Header(config.KindWM)+"\nresize_delta: 75\nmonitors:\n  - {}\n", string(data))

	// Nothing left to save.
	m, cmd = send(m, runes("w"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to save", m.Notice().Title)
}

func TestPromptErrors(t *testing.T) {
	m, _ := started(t, "")
	m.notice = nil

	tests := []struct {
		input string
		code  tcerrors.Code
	}{
		{"wm.resize_delta", tcerrors.CodeInvalidKey},
		{"resize_delta=4", tcerrors.CodeInvalidKey},
		{"bar.resize_delta=4", tcerrors.CodeInvalidKey},
		{"wm.no_such_field=4", tcerrors.CodeInvalidKey},
		{"wm.resize_delta=lots", tcerrors.CodeInvalidValue},
		{"wm.window_hiding_behaviour=vanish", tcerrors.CodeInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := m.apply(tt.input)
			require.Error(t, err)
			assert.True(t, tcerrors.HasCode(err, tt.code), "got %v", err)
		})
	}

	m, _ = edit(m, "wm.resize_delta=lots")
	require.NotNil(t, m.Notice())
	assert.Equal(t, LevelError, m.Notice().Level)
	assert.Equal(t, 50, *m.Working().ResizeDelta)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.Notice())
}

func TestPromptCancel(t *testing.T) {
	m, _ := started(t, "")
	m, _ = send(m, runes(":"))
	require.True(t, m.prompting)
	m, _ = send(m, runes("wm.resize_delta=1"))
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.prompting)
	assert.Equal(t, 50, *m.Working().ResizeDelta)
}

func TestReloadReplacesWorkingTree(t *testing.T) {
	m, _ := started(t, "")
	m, _ = edit(m, "hotkeys.shell=fish")
	require.True(t, m.hotkeys.dirty())

	bash := config.ShellBash
	m, _ = send(m, persist.LoadedMsg[config.Hotkeys]{Kind: config.KindHotkeys, Tree: &config.Hotkeys{Shell: &bash}})
	assert.Equal(t, config.ShellBash, *m.hotkeys.working.Shell)
	assert.False(t, m.hotkeys.dirty())
	require.NotNil(t, m.Notice())
	assert.Equal(t, "Reloaded Hotkeys config", m.Notice().Title)
	assert.NotEmpty(t, m.Notice().Description)
}

func TestReloadErrorKeepsWorkingTree(t *testing.T) {
	m, _ := started(t, "")
	m, _ = edit(m, "wm.resize_delta=75")

	m, _ = send(m, persist.LoadedMsg[config.Config]{
		Kind: config.KindWM,
		Err:  tcerrors.ErrParse("/tmp/tiler.yaml", errors.New("line 3: bad indentation")),
	})
	assert.Equal(t, 75, *m.Working().ResizeDelta)
	require.NotNil(t, m.Notice())
	assert.Equal(t, LevelError, m.Notice().Level)
	assert.Equal(t, "failed to parse configuration", m.Notice().Title)
}

func TestTopologyGrowth(t *testing.T) {
	m, s := started(t, "")
	m, _ = edit(m, "wm.monitors.0.workspaces=[{name: main, layout: columns}]")

	m, cmd := send(m, topology.ObservedMsg{Count: 3})
	assert.Nil(t, cmd)
	mons := m.Working().Monitors
	require.Len(t, mons, 3)
	require.Len(t, mons[0].Workspaces, 1)
	assert.Equal(t, "main", mons[0].Workspaces[0].Name)
	assert.Equal(t, defaultMonitor(s), mons[1])
	assert.Equal(t, defaultMonitor(s), mons[2])

	// Fewer monitors never removes entries.
	m, _ = send(m, topology.ObservedMsg{Count: 1})
	assert.Len(t, m.Working().Monitors, 3)
}

func TestReconcileOnRequest(t *testing.T) {
	m, _ := started(t, "monitors:\n  count: 2\n  reconcile_on_load: false\n")
	assert.Empty(t, m.Working().Monitors)

	// Automatic observations are ignored.
	m, _ = send(m, topology.ObservedMsg{Count: 2})
	assert.Empty(t, m.Working().Monitors)

	m, cmd := send(m, runes("m"))
	require.NotNil(t, cmd)
	m = drain(m, cmd)
	assert.Len(t, m.Working().Monitors, 2)
	assert.True(t, m.Dirty())
}

func TestTopologyError(t *testing.T) {
	m, _ := started(t, "")
	m.notice = nil
	m, _ = send(m, topology.ObservedMsg{Err: tcerrors.ErrRead("/run/state.json", errors.New("permission denied"))})
	require.NotNil(t, m.Notice())
	assert.Equal(t, LevelError, m.Notice().Level)
}

func TestSaveAfterReconcile(t *testing.T) {
	m, s := started(t, "monitors:\n  count: 2\n  save_after_reconcile: true\n")

	assert.Len(t, m.Working().Monitors, 2)
	assert.False(t, m.wm.dirty())

	data, err := os.ReadFile(s.WM.Path())
	require.NoError(t, err)
	assert.Equal(t, config.Header(config.KindWM)+"\nmonitors:\n  - {}\n  - {}\n", string(data))
}

func TestAutoSave(t *testing.T) {
	m, s := started(t, "auto_save: true\nauto_save_delay: 10ms\nmonitors:\n  reconcile_on_load: false\n")
	assert.Empty(t, m.Working().Monitors)
	assert.False(t, m.Dirty())

	m, cmd := edit(m, "wm.border.width=2")
	require.NotNil(t, cmd)
	stale := m.autoSaveSeq
	m, cmd = edit(m, "wm.border.width=3")
	require.NotNil(t, cmd)

	// A superseded timer does nothing.
	m, staleCmd := send(m, autoSaveMsg{seq: stale})
	assert.Nil(t, staleCmd)

	m = drain(m, cmd)
	assert.False(t, m.Dirty())
	data, err := os.ReadFile(s.WM.Path())
	require.NoError(t, err)
	assert.Equal(t, config.Header(config.KindWM)+"\nborder:\n  width: 3\n", string(data))
}

func TestSaveFailure(t *testing.T) {
	m, _ := started(t, "")
	m, _ = edit(m, "wm.resize_delta=75")
	require.NotNil(t, m.wm.save(m.ctx))

	m, _ = send(m, savedMsg{
		SavedMsg: persist.SavedMsg{Kind: config.KindWM, Err: tcerrors.ErrWrite("/tmp/tiler.yaml", errors.New("disk full"))},
		seq:      m.wm.seq,
	})
	assert.True(t, m.Dirty())
	assert.Nil(t, m.wm.inflight)
	require.NotNil(t, m.Notice())
	assert.Equal(t, LevelError, m.Notice().Level)

	// An informational notice does not replace an undismissed error.
	m.setNotice(&Notification{Title: "Reloaded", Level: LevelInfo})
	assert.Equal(t, LevelError, m.Notice().Level)
}

func TestOverlappingSaves(t *testing.T) {
	m, s := started(t, "monitors:\n  reconcile_on_load: false\n")

	m, _ = edit(m, "wm.resize_delta=11")
	first := m.wm.save(m.ctx)
	require.NotNil(t, first)

	// A second save while the first runs is queued, not started.
	m, _ = edit(m, "wm.resize_delta=12")
	assert.Nil(t, m.wm.save(m.ctx))
	assert.True(t, m.wm.queued)

	firstResult := first()
	m, queued := send(m, firstResult)
	require.NotNil(t, queued, "queued save starts when the first reports back")
	assert.Equal(t, 11, *m.wm.saved.ResizeDelta)
	assert.Equal(t, 12, *m.Working().ResizeDelta)
	assert.True(t, m.Dirty())

	// The queued save fails: disk still holds 11, the edit stays dirty.
	m, _ = send(m, savedMsg{
		SavedMsg: persist.SavedMsg{Kind: config.KindWM, Err: tcerrors.ErrWrite(s.WM.Path(), errors.New("disk full"))},
		seq:      m.wm.seq,
	})
	assert.True(t, m.Dirty())
	data, err := os.ReadFile(s.WM.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "resize_delta: 11")

	// A late copy of an earlier result changes nothing.
	m, cmd := send(m, firstResult)
	assert.Nil(t, cmd)
	assert.True(t, m.Dirty())

	m = drain(m, m.saveDirty())
	assert.False(t, m.Dirty())
	data, err = os.ReadFile(s.WM.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "resize_delta: 12")
}

func TestQueuedSaveSkippedWhenClean(t *testing.T) {
	m, _ := started(t, "monitors:\n  reconcile_on_load: false\n")

	m, _ = edit(m, "wm.resize_delta=11")
	first := m.wm.save(m.ctx)
	require.NotNil(t, first)
	assert.Nil(t, m.wm.save(m.ctx))

	// Nothing changed after the queued request, so nothing more is written.
	m, cmd := send(m, first())
	assert.Nil(t, cmd)
	assert.False(t, m.Dirty())
	assert.False(t, m.wm.queued)
}

func TestWatchFailed(t *testing.T) {
	m, _ := started(t, "")
	m, cmd := send(m, WatchFailedMsg{Err: tcerrors.ErrWatch("/tmp/tiler", errors.New("too many open files"))})
	assert.Nil(t, cmd)
	require.NotNil(t, m.Notice())
	assert.Equal(t, LevelError, m.Notice().Level)
	assert.Contains(t, m.Notice().Description, "restart")
}

func TestSettingsEditChangesPreferences(t *testing.T) {
	m, _ := started(t, "")
	assert.False(t, m.prefs.autoSave)
	m, _ = edit(m, "settings.auto_save=true")
	assert.True(t, m.prefs.autoSave)
}

func TestView(t *testing.T) {
	m, s := started(t, "")
	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	out := m.View()
	assert.Contains(t, out, "tilecfg")
	assert.Contains(t, out, s.WM.Path())
	assert.Contains(t, out, "1 monitor(s) detected")

	m, cmd := send(m, runes("q"))
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}
