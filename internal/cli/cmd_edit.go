package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/tilecfg/internal/config"
	"github.com/randalmurphal/tilecfg/internal/editor"
	"github.com/randalmurphal/tilecfg/internal/session"
)

// runEditor opens the interactive editor. Without a terminal it prints a
// summary of the documents instead.
func runEditor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		return printStatus(ctx, cmd.OutOrStdout(), s)
	}

	// Settings decide whether to watch, so they are read once up front.
	first, err := openSession(ctx)
	if err != nil {
		return err
	}
	watch := *first.ResolvedSettings().Watch.Enabled
	first.Close()

	s, err := session.Open(ctx, sessionOptions(watch))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(editor.New(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))

	if s.Watching() {
		go func() {
			if err := s.Watch(ctx, p.Send); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("live reload stopped", "error", err)
				p.Send(editor.WatchFailedMsg{Err: err})
			}
		}()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run editor: %w", err)
	}
	return nil
}

// printStatus writes one line per document with its location and state.
func printStatus(ctx context.Context, out io.Writer, s *session.Session) error {
	for _, k := range config.Kinds() {
		doc, err := s.Document(k)
		if err != nil {
			return err
		}
		if !exists(doc.Path()) {
			_, _ = fmt.Fprintf(out, "%-9s %s  not created (defaults)\n", k, doc.Path())
			continue
		}
		state := "ok"
		redundant, err := doc.Redundant(ctx)
		switch {
		case err != nil:
			state = "invalid: " + err.Error()
		case len(redundant) > 0:
			state = fmt.Sprintf("ok, %d redundant key(s)", len(redundant))
		}
		_, _ = fmt.Fprintf(out, "%-9s %s  %s\n", k, doc.Path(), state)
	}

	msg := s.Observe(ctx)
	if msg.Err != nil {
		_, _ = fmt.Fprintf(out, "monitors  unknown: %v\n", msg.Err)
	} else {
		_, _ = fmt.Fprintf(out, "monitors  %d detected\n", msg.Count)
	}
	return nil
}
