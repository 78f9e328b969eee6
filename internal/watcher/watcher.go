// Package watcher reloads a configuration file when it is edited externally
// while ignoring the echoes of the process's own writes.
//
// A Watcher watches one file. Raw filesystem events for it are debounced
// into a single change signal and fed, together with ignore signals from
// the save path, through one bounded FIFO channel into the Run loop. Each
// ignore signal announces the hash of the bytes about to be written; the
// loop keeps the announced hashes in order. A change signal is an echo when
// the file's current hash is among them: that announcement and every older
// one are consumed, so several saves coalesced into one change by the
// debouncer clear together. A change whose content matches no announcement
// is external, drops the stale announcements and triggers a reload.
// Because a save sends its ignore signal before the file is replaced, the
// signal always enters the channel ahead of the change it causes.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
)

const (
	// DefaultDebounce is the quiet window that coalesces bursts of events.
	DefaultDebounce = 250 * time.Millisecond

	// controlCapacity bounds the control channel. A slow consumer blocks the
	// senders, which is fine for already-debounced, low-frequency events.
	controlCapacity = 10

	// maxAnnounced bounds the announcements kept for writes that never
	// produced a change, e.g. a failed rename.
	maxAnnounced = 64
)

type signalKind int

const (
	signalIgnore signalKind = iota
	signalChange
	signalError
)

func (k signalKind) String() string {
	switch k {
	case signalIgnore:
		return "ignore"
	case signalChange:
		return "change"
	case signalError:
		return "error"
	default:
		return "unknown"
	}
}

type signal struct {
	kind signalKind
	hash string
	err  error
}

// Config configures a Watcher.
type Config[M any] struct {
	// Path is the watched file. Its directory is created if missing.
	Path string

	// Reload loads the file after an external change.
	Reload func(ctx context.Context) M

	// Emit delivers the reloaded result.
	Emit func(M)

	// Debounce is the coalescing window (default: 250ms)
	Debounce time.Duration

	// SkipUnchanged drops change events whose file content is identical to
	// the last content the watcher observed, including its own writes.
	SkipUnchanged bool

	Logger *slog.Logger
}

// Watcher watches one configuration file.
type Watcher[M any] struct {
	path string
	dir  string
	base string

	reload        func(ctx context.Context) M
	emit          func(M)
	skipUnchanged bool
	logger        *slog.Logger

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	control   chan signal

	// announced holds the content hashes of own writes not yet seen, oldest
	// first. Only the Run loop touches it; pending mirrors its length.
	announced []string
	pending   atomic.Int64
	// lastHash is the last content observed; lastEcho the last content
	// recognized as an own write since the previous reload.
	lastHash string
	lastEcho string

	done     chan struct{}
	stopOnce sync.Once
}

// New registers the filesystem watch and the control channel. The watch is
// placed on the file's directory because atomic saves replace the file's
// inode. A registration failure is returned as a WATCH_ERROR.
func New[M any](cfg Config[M]) (*Watcher[M], error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Reload == nil || cfg.Emit == nil {
		return nil, fmt.Errorf("reload and emit callbacks are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	path := filepath.Clean(cfg.Path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, tcerrors.ErrWatch(path, fmt.Errorf("create directory: %w", err))
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, tcerrors.ErrWatch(path, fmt.Errorf("create fsnotify watcher: %w", err))
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, tcerrors.ErrWatch(path, fmt.Errorf("watch %s: %w", dir, err))
	}

	w := &Watcher[M]{
		path:          path,
		dir:           dir,
		base:          filepath.Base(path),
		reload:        cfg.Reload,
		emit:          cfg.Emit,
		skipUnchanged: cfg.SkipUnchanged,
		logger:        logger.With("path", path),
		fsWatcher:     fsWatcher,
		control:       make(chan signal, controlCapacity),
		done:          make(chan struct{}),
	}
	w.debouncer = NewDebouncer(debounce, func(string) {
		w.send(signal{kind: signalChange})
	})
	return w, nil
}

// Handle is the sender side of a watcher's control channel. It is captured
// once and shared with the save path.
type Handle struct {
	control chan<- signal
	done    <-chan struct{}
}

// IgnoreNextEvent announces that this process is about to replace the file
// with content. It blocks while the control channel is full and is a no-op
// once the watcher has stopped or on the zero Handle.
func (h Handle) IgnoreNextEvent(content []byte) {
	if h.control == nil {
		return
	}
	select {
	case h.control <- signal{kind: signalIgnore, hash: contentHash(content)}:
	case <-h.done:
	}
}

// Handle returns the sender handle for the control channel.
func (w *Watcher[M]) Handle() Handle {
	return Handle{control: w.control, done: w.done}
}

// Path returns the watched file.
func (w *Watcher[M]) Path() string {
	return w.path
}

// Pending returns the number of announced writes not yet seen.
func (w *Watcher[M]) Pending() int {
	return int(w.pending.Load())
}

// Run processes signals until ctx is cancelled. There is no other way out:
// filesystem errors are logged and the watch continues.
func (w *Watcher[M]) Run(ctx context.Context) error {
	defer w.Stop()

	go w.pump()
	w.logger.Info("file watcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopping", "reason", "context cancelled")
			return nil
		case sig := <-w.control:
			w.handle(ctx, sig)
		}
	}
}

// Stop releases the filesystem watch. It is safe to call more than once and
// without Run.
func (w *Watcher[M]) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.debouncer.Stop()
		if err := w.fsWatcher.Close(); err != nil {
			w.logger.Debug("close fsnotify watcher", "error", err)
		}
	})
}

// pump forwards raw fsnotify events for the watched file into the debouncer
// and fsnotify errors into the control channel.
func (w *Watcher[M]) pump() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.base || filepath.Dir(filepath.Clean(event.Name)) != w.dir {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("fs event", "op", event.Op.String())
			w.debouncer.Trigger(w.base)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.send(signal{kind: signalError, err: err})
		}
	}
}

// send delivers a signal unless the watcher has stopped.
func (w *Watcher[M]) send(sig signal) {
	select {
	case w.control <- sig:
	case <-w.done:
	}
}

// handle applies one signal to the announced writes.
func (w *Watcher[M]) handle(ctx context.Context, sig signal) {
	switch sig.kind {
	case signalIgnore:
		w.announced = append(w.announced, sig.hash)
		if n := len(w.announced); n > maxAnnounced {
			w.announced = append([]string(nil), w.announced[n-maxAnnounced:]...)
		}
		w.pending.Store(int64(len(w.announced)))
		w.logger.Debug("expecting echo of own write", "pending", len(w.announced))

	case signalChange:
		current := w.hashFile()
		if w.isEcho(current) {
			w.lastHash = current
			w.logger.Debug("suppressed echo of own write", "pending", len(w.announced))
			return
		}
		if w.skipUnchanged && current != "" && current == w.lastHash {
			w.logger.Debug("content unchanged, skipping reload")
			return
		}
		w.lastHash = current
		w.lastEcho = ""
		w.logger.Info("external change detected, reloading")
		w.emit(w.reload(ctx))

	case signalError:
		w.logger.Warn("file watch error", "error", tcerrors.ErrWatch(w.path, sig.err))
	}
}

// isEcho reports whether content with the given hash was written by this
// process, consuming the matching announcement and every older one. Any
// other content means the file changed underneath the announced writes, and
// they are dropped.
func (w *Watcher[M]) isEcho(current string) bool {
	if current != "" {
		for i, h := range w.announced {
			if h == current {
				w.announced = w.announced[i+1:]
				w.pending.Store(int64(len(w.announced)))
				w.lastEcho = current
				return true
			}
		}
	}
	// A late event for a write already recognized; later announcements may
	// still be in flight.
	if current != "" && current == w.lastEcho {
		return true
	}
	if len(w.announced) > 0 {
		w.logger.Debug("content matches no own write", "dropped", len(w.announced))
		w.announced = nil
		w.pending.Store(0)
	}
	return false
}

// hashFile returns the content hash of the file, or "" if it can't be read.
func (w *Watcher[M]) hashFile() string {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return ""
	}
	return contentHash(data)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
