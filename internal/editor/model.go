// Package editor is the interactive host for the three configuration
// documents. It owns the working trees, turns key presses and prompt edits
// into schema operations, and runs every load, save and topology read as
// an asynchronous command whose result comes back as a message.
package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/persist"
	"github.com/randalmurphal/tilecfg/internal/session"
	"github.com/randalmurphal/tilecfg/internal/topology"
)

// Level is the severity of a notification.
type Level int

const (
	LevelError Level = iota
	LevelInfo
)

// Notification is a dismissible message with a title and an optional
// description.
type Notification struct {
	Title       string
	Description string
	Level       Level
}

// notify turns an error into a notification.
func notify(err error) *Notification {
	if e := tcerrors.AsError(err); e != nil {
		title, desc := e.Notification()
		level := LevelError
		if e.Severity() == tcerrors.SeverityInfo {
			level = LevelInfo
		}
		return &Notification{Title: title, Description: desc, Level: level}
	}
	return &Notification{Title: err.Error(), Level: LevelError}
}

// reconcileRequestMsg is a monitor count read on the user's request. Unlike
// a plain topology.ObservedMsg it reconciles regardless of settings.
type reconcileRequestMsg struct {
	topology.ObservedMsg
}

// WatchFailedMsg reports that live reload stopped. The editor keeps
// working without it.
type WatchFailedMsg struct {
	Err error
}

// autoSaveMsg fires when edits have settled for the auto-save delay.
type autoSaveMsg struct {
	seq int
}

// preferences are the settings that change editor behavior. They follow
// the settings document as it is loaded and edited.
type preferences struct {
	autoSave           bool
	autoSaveDelay      time.Duration
	reconcileOnLoad    bool
	saveAfterReconcile bool
}

// Model is the editor's bubbletea model.
type Model struct {
	ctx     context.Context
	observe func(context.Context) topology.ObservedMsg

	wm       *document[config.Config]
	hotkeys  *document[config.Hotkeys]
	settings *document[config.Settings]

	prefs    preferences
	observed int // last observed monitor count, -1 until known

	keys      KeyMap
	prompt    textinput.Model
	prompting bool
	notice    *Notification

	autoSaveSeq int
	width       int
	height      int
	quitting    bool
}

// New creates the editor for an open session.
func New(ctx context.Context, s *session.Session) Model {
	ti := textinput.New()
	ti.Prompt = ":"
	ti.Placeholder = "wm.border.width=4"
	ti.CharLimit = 512
	ti.Width = 60

	m := Model{
		ctx:      ctx,
		observe:  s.Observe,
		wm:       newDocument(s.WM),
		hotkeys:  newDocument(s.Hotkeys),
		settings: newDocument(s.Settings),
		observed: -1,
		keys:     DefaultKeyMap(),
		prompt:   ti,
	}
	m.prefs = preferencesFrom(s.ResolvedSettings())
	return m
}

func preferencesFrom(s *config.Settings) preferences {
	p := preferences{autoSaveDelay: time.Second, reconcileOnLoad: true}
	if s.AutoSave != nil {
		p.autoSave = *s.AutoSave
	}
	if s.AutoSaveDelay != nil {
		p.autoSaveDelay = *s.AutoSaveDelay
	}
	if m := s.Monitors; m != nil {
		if m.ReconcileOnLoad != nil {
			p.reconcileOnLoad = *m.ReconcileOnLoad
		}
		if m.SaveAfterReconcile != nil {
			p.saveAfterReconcile = *m.SaveAfterReconcile
		}
	}
	return p
}

// Init loads every document and reads the monitor count.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.settings.store.LoadCmd(m.ctx),
		m.wm.store.LoadCmd(m.ctx),
		m.hotkeys.store.LoadCmd(m.ctx),
		m.observeCmd(),
	)
}

func (m Model) observeCmd() tea.Cmd {
	ctx, observe := m.ctx, m.observe
	return func() tea.Msg {
		return observe(ctx)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)

	case persist.LoadedMsg[config.Config]:
		m.setNotice(m.wm.load(msg))
		return m, m.reconcile(false)

	case persist.LoadedMsg[config.Hotkeys]:
		m.setNotice(m.hotkeys.load(msg))
		return m, nil

	case persist.LoadedMsg[config.Settings]:
		m.setNotice(m.settings.load(msg))
		if m.settings.loaded {
			m.prefs = preferencesFrom(m.settings.working)
		}
		return m, nil

	case savedMsg:
		return m.applySaved(msg)

	case topology.ObservedMsg:
		return m, m.observedCount(msg, false)

	case reconcileRequestMsg:
		return m, m.observedCount(msg.ObservedMsg, true)

	case WatchFailedMsg:
		n := notify(msg.Err)
		n.Description = strings.TrimSpace(n.Description + "\nExternal edits will not be picked up until restart.")
		m.setNotice(n)
		return m, nil

	case autoSaveMsg:
		if msg.seq != m.autoSaveSeq || !m.prefs.autoSave {
			return m, nil
		}
		return m, m.saveDirty()
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Dismiss):
		m.notice = nil
		return m, nil
	case key.Matches(msg, m.keys.Prompt):
		m.prompting = true
		m.prompt.Reset()
		return m, m.prompt.Focus()
	case key.Matches(msg, m.keys.Save):
		cmd := m.saveDirty()
		if cmd == nil && !m.Dirty() {
			m.notice = &Notification{Title: "Nothing to save", Level: LevelInfo}
		}
		return m, cmd
	case key.Matches(msg, m.keys.Reload):
		return m, tea.Batch(
			m.settings.store.LoadCmd(m.ctx),
			m.wm.store.LoadCmd(m.ctx),
			m.hotkeys.store.LoadCmd(m.ctx),
		)
	case key.Matches(msg, m.keys.Reconcile):
		ctx, observe := m.ctx, m.observe
		return m, func() tea.Msg {
			return reconcileRequestMsg{observe(ctx)}
		}
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case tea.KeyEnter:
		m.prompting = false
		m.prompt.Blur()
		if err := m.apply(m.prompt.Value()); err != nil {
			m.setNotice(notify(err))
			return m, nil
		}
		return m, m.scheduleAutoSave()
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// apply parses "<kind>.<key>=<value>" and edits the matching working tree.
func (m *Model) apply(input string) error {
	input = strings.TrimSpace(input)
	lhs, value, ok := strings.Cut(input, "=")
	if !ok {
		return tcerrors.ErrInvalidKey(input, "expected <document>.<key>=<value>")
	}
	lhs = strings.TrimSpace(lhs)
	value = strings.TrimSpace(value)

	kindName, field, ok := strings.Cut(lhs, ".")
	if !ok {
		return tcerrors.ErrInvalidKey(lhs, "expected <document>.<key>")
	}
	kind, err := config.ParseKind(kindName)
	if err != nil {
		return tcerrors.ErrInvalidKey(lhs, err.Error())
	}

	switch kind {
	case config.KindWM:
		return m.wm.set(field, value)
	case config.KindHotkeys:
		return m.hotkeys.set(field, value)
	case config.KindSettings:
		if err := m.settings.set(field, value); err != nil {
			return err
		}
		m.prefs = preferencesFrom(m.settings.working)
		return nil
	}
	return tcerrors.ErrInvalidKey(lhs, fmt.Sprintf("unknown document %q", kindName))
}

func (m *Model) observedCount(msg topology.ObservedMsg, force bool) tea.Cmd {
	if msg.Err != nil {
		m.setNotice(notify(msg.Err))
		return nil
	}
	m.observed = msg.Count
	return m.reconcile(force)
}

// reconcile grows the monitor list to the observed count. Without force it
// only runs when settings ask for automatic reconciling.
func (m *Model) reconcile(force bool) tea.Cmd {
	if !m.wm.loaded || m.observed < 0 {
		return nil
	}
	if !force && !m.prefs.reconcileOnLoad {
		return nil
	}

	before := len(m.wm.working.Monitors)
	grown, changed := config.ReconcileMonitors(m.wm.working, m.observed)
	if !changed {
		return nil
	}
	m.wm.working = m.wm.schema().Expand(grown)
	m.notice = &Notification{
		Title:       "Monitors detected",
		Description: fmt.Sprintf("Added %d default monitor entries (now %d)", len(grown.Monitors)-before, len(grown.Monitors)),
		Level:       LevelInfo,
	}
	if m.prefs.saveAfterReconcile {
		return m.wm.save(m.ctx)
	}
	return m.scheduleAutoSave()
}

// scheduleAutoSave restarts the auto-save delay after an edit.
func (m *Model) scheduleAutoSave() tea.Cmd {
	if !m.prefs.autoSave {
		return nil
	}
	m.autoSaveSeq++
	seq := m.autoSaveSeq
	return tea.Tick(m.prefs.autoSaveDelay, func(time.Time) tea.Msg {
		return autoSaveMsg{seq: seq}
	})
}

// saveDirty saves every document with unsaved edits. A document already
// saving queues the request and contributes no command.
func (m *Model) saveDirty() tea.Cmd {
	var cmds []tea.Cmd
	if m.settings.dirty() {
		cmds = append(cmds, m.settings.save(m.ctx))
	}
	if m.wm.dirty() {
		cmds = append(cmds, m.wm.save(m.ctx))
	}
	if m.hotkeys.dirty() {
		cmds = append(cmds, m.hotkeys.save(m.ctx))
	}
	return tea.Batch(cmds...)
}

func (m Model) applySaved(msg savedMsg) (Model, tea.Cmd) {
	var n *Notification
	var cmd tea.Cmd
	switch msg.Kind {
	case config.KindWM:
		n, cmd = m.wm.applySaved(m.ctx, msg)
	case config.KindHotkeys:
		n, cmd = m.hotkeys.applySaved(m.ctx, msg)
	case config.KindSettings:
		n, cmd = m.settings.applySaved(m.ctx, msg)
	}
	m.setNotice(n)
	return m, cmd
}

// setNotice replaces the notification. Informational notices never hide an
// error the user has not dismissed yet.
func (m *Model) setNotice(n *Notification) {
	if n == nil {
		return
	}
	if n.Level == LevelInfo && m.notice != nil && m.notice.Level == LevelError {
		return
	}
	m.notice = n
}

// Dirty reports whether any document has unsaved edits.
func (m Model) Dirty() bool {
	return m.wm.dirty() || m.hotkeys.dirty() || m.settings.dirty()
}

// Notice returns the current notification, if any.
func (m Model) Notice() *Notification {
	return m.notice
}

// Working returns the resolved working tree of the window manager config.
func (m Model) Working() *config.Config {
	return m.wm.working
}
