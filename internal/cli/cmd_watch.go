package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/persist"
	"github.com/randalmurphal/tilecfg/internal/session"
	"github.com/randalmurphal/tilecfg/internal/topology"
)

// newWatchCmd creates the watch command
func newWatchCmd() *cobra.Command {
	var reconcile bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch documents for external edits",
		Long: `Watch every document and report external edits as they happen. tilecfg's
own saves are not reported.

With --reconcile the monitor list is grown and saved whenever the detected
monitor count or the window manager config changes. With the state_file
monitor source the state file is watched too.

Runs until interrupted.

Examples:
  tilecfg watch
  tilecfg watch --reconcile --log-level info`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := SetupSignalHandler()
			defer cancel()
			if parent := cmd.Context(); parent != nil {
				stop := context.AfterFunc(parent, cancel)
				defer stop()
			}

			// A watch that cannot be registered is fatal here.
			s, err := session.Open(ctx, sessionOptions(true))
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			for _, p := range s.WatchedPaths() {
				_, _ = fmt.Fprintf(out, "Watching %s\n", p)
			}

			w := &watchLoop{s: s, out: out, reconcile: reconcile, observed: -1, msgs: make(chan tea.Msg, 16)}
			if reconcile {
				w.observe(ctx, s.Observe(ctx))
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return s.Watch(gctx, w.emit(gctx))
			})
			g.Go(func() error {
				w.run(gctx)
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&reconcile, "reconcile", false, "keep the monitor list in sync with the detected monitor count")

	return cmd
}

// watchLoop reports reloads and, when reconciling, keeps the monitor list
// in sync. Messages are handled one at a time on the run goroutine.
type watchLoop struct {
	s         *session.Session
	out       io.Writer
	reconcile bool
	observed  int
	msgs      chan tea.Msg
}

func (w *watchLoop) emit(ctx context.Context) func(tea.Msg) {
	return func(msg tea.Msg) {
		select {
		case w.msgs <- msg:
		case <-ctx.Done():
		}
	}
}

func (w *watchLoop) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.msgs:
			w.handle(ctx, msg)
		}
	}
}

func (w *watchLoop) handle(ctx context.Context, msg tea.Msg) {
	switch msg := msg.(type) {
	case persist.LoadedMsg[config.Config]:
		w.reloaded(msg.Kind, msg.Err)
		if msg.Err == nil && w.reconcile {
			w.apply(ctx)
		}
	case persist.LoadedMsg[config.Hotkeys]:
		w.reloaded(msg.Kind, msg.Err)
	case persist.LoadedMsg[config.Settings]:
		w.reloaded(msg.Kind, msg.Err)
		if msg.Err == nil {
			_, _ = fmt.Fprintln(w.out, "  settings changes apply after restart")
		}
	case topology.ObservedMsg:
		w.observe(ctx, msg)
	}
}

func (w *watchLoop) reloaded(kind config.Kind, err error) {
	switch {
	case err == nil:
		_, _ = fmt.Fprintf(w.out, "Reloaded %s\n", kind)
	case tcerrors.IsNotFound(err):
		_, _ = fmt.Fprintf(w.out, "Removed %s, defaults apply\n", kind)
	default:
		_, _ = fmt.Fprintf(w.out, "Reload of %s failed: %v\n", kind, err)
	}
}

func (w *watchLoop) observe(ctx context.Context, msg topology.ObservedMsg) {
	if msg.Err != nil {
		slog.Warn("read monitor count", "error", msg.Err)
		return
	}
	if msg.Count != w.observed {
		_, _ = fmt.Fprintf(w.out, "%d monitor(s) detected\n", msg.Count)
	}
	w.observed = msg.Count
	if w.reconcile {
		w.apply(ctx)
	}
}

func (w *watchLoop) apply(ctx context.Context) {
	if w.observed < 0 {
		return
	}
	r, err := reconcileWM(ctx, w.s, w.observed, false)
	if err != nil {
		slog.Warn("reconcile monitors", "error", err)
		_, _ = fmt.Fprintf(w.out, "Reconcile failed: %v\n", err)
		return
	}
	if r.changed {
		_, _ = fmt.Fprintf(w.out, "Added %d monitor entries (now %d)\n", r.after-r.before, r.after)
	}
}
