package editor

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/persist"
	"github.com/randalmurphal/tilecfg/internal/schema"
)

// document is the editor's state for one configuration document. working
// is the resolved tree being edited; saved is the resolved tree last read
// from or written to disk; inflight is the snapshot of the save in progress.
// At most one save runs per document: a save requested meanwhile is queued
// and started, from the working tree of that moment, when the first one
// reports back.
type document[T any] struct {
	store    *persist.Store[T]
	working  *T
	saved    *T
	inflight *T
	seq      uint64
	queued   bool
	loaded   bool
}

// savedMsg is a save result tagged with the sequence of the save that
// produced it.
type savedMsg struct {
	persist.SavedMsg
	seq uint64
}

func newDocument[T any](store *persist.Store[T]) *document[T] {
	return &document[T]{store: store}
}

func (d *document[T]) schema() *schema.Schema[T] {
	return d.store.Schema()
}

// dirty reports whether the working tree would persist differently from
// the saved one.
func (d *document[T]) dirty() bool {
	if !d.loaded {
		return false
	}
	s := d.schema()
	return !s.Equal(s.Unmerge(d.working), s.Unmerge(d.saved))
}

// load applies a load or reload result. A missing file starts from the
// Default Tree. On any other error the working tree is left as it was.
func (d *document[T]) load(msg persist.LoadedMsg[T]) *Notification {
	reload := d.loaded
	wasDirty := d.dirty()

	var tree *T
	var notice *Notification
	switch {
	case msg.Err == nil:
		tree = msg.Tree
		if reload {
			notice = &Notification{Title: "Reloaded " + d.store.Kind().Title(), Level: LevelInfo}
			if wasDirty {
				notice.Description = "Unsaved edits were replaced by the file on disk"
			}
		}
	case tcerrors.IsNotFound(msg.Err):
		notice = notify(msg.Err)
	default:
		return notify(msg.Err)
	}

	resolved := d.schema().Resolve(tree)
	d.working = resolved
	d.saved = d.schema().Clone(resolved)
	d.loaded = true
	return notice
}

// save starts saving the working tree, or queues the save behind the one
// in progress.
func (d *document[T]) save(ctx context.Context) tea.Cmd {
	if !d.loaded {
		return nil
	}
	if d.inflight != nil {
		d.queued = true
		return nil
	}
	return d.startSave(ctx)
}

func (d *document[T]) startSave(ctx context.Context) tea.Cmd {
	d.seq++
	seq := d.seq
	snapshot := d.schema().Clone(d.working)
	d.inflight = snapshot
	save := d.store.SaveFunc()
	return func() tea.Msg {
		return savedMsg{SavedMsg: save(ctx, snapshot), seq: seq}
	}
}

// applySaved applies the result of the save in progress and starts the
// queued one, if any. Results of other saves are ignored. A failed save
// leaves saved as it was, so the edits stay dirty.
func (d *document[T]) applySaved(ctx context.Context, msg savedMsg) (*Notification, tea.Cmd) {
	if d.inflight == nil || msg.seq != d.seq {
		return nil, nil
	}

	var notice *Notification
	if msg.Err != nil {
		notice = notify(msg.Err)
	} else {
		d.saved = d.inflight
	}
	d.inflight = nil

	if !d.queued {
		return notice, nil
	}
	d.queued = false
	if !d.dirty() {
		return notice, nil
	}
	return notice, d.startSave(ctx)
}

// set edits one key of the working tree.
func (d *document[T]) set(key, value string) error {
	if !d.loaded {
		return tcerrors.ErrInvalidKey(key, d.store.Kind().Title()+" is not loaded yet")
	}
	updated, err := d.schema().Set(d.working, key, value)
	if err != nil {
		return err
	}
	// New list entries arrive bare; keep the working tree resolved.
	d.working = d.schema().Resolve(updated)
	return nil
}
