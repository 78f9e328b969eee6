package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/session"
)

// newReconcileCmd creates the reconcile command
func newReconcileCmd() *cobra.Command {
	var (
		count  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Grow the monitor list to the detected monitor count",
		Long: `Append default monitor entries to the window manager config until it has
one entry per detected monitor. Existing entries are never changed or
removed, so a config with more monitors than detected is left alone.

The monitor count comes from 'monitors.source' in settings, or from --count.

Examples:
  tilecfg reconcile
  tilecfg reconcile --count 3 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n := count
			if !cmd.Flags().Changed("count") {
				observed := s.Observe(cmd.Context())
				if observed.Err != nil {
					return observed.Err
				}
				n = observed.Count
			}

			r, err := reconcileWM(cmd.Context(), s, n, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !r.changed:
				_, _ = fmt.Fprintf(out, "%d monitor(s) configured, %d detected: nothing to do\n", r.before, n)
			case dryRun:
				_, _ = fmt.Fprintf(out, "Would add %d monitor entries to %s (now %d)\n", r.after-r.before, s.WM.Path(), r.after)
			default:
				_, _ = fmt.Fprintf(out, "Added %d monitor entries to %s (now %d)\n", r.after-r.before, s.WM.Path(), r.after)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "monitor count to reconcile to instead of detecting it")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without saving")

	return cmd
}

type reconcileResult struct {
	before, after int
	changed       bool
	generation    string
}

// reconcileWM loads the window manager document, grows its monitor list to
// n entries and saves it unless dryRun is set.
func reconcileWM(ctx context.Context, s *session.Session, n int, dryRun bool) (reconcileResult, error) {
	loaded, err := s.WM.Load(ctx)
	if err != nil && !tcerrors.IsNotFound(err) {
		return reconcileResult{}, err
	}
	resolved := s.WM.Schema().Resolve(loaded)

	r := reconcileResult{before: len(resolved.Monitors)}
	grown, changed := config.ReconcileMonitors(resolved, n)
	r.after, r.changed = len(grown.Monitors), changed
	if !changed || dryRun {
		return r, nil
	}

	r.generation, err = s.WM.Save(ctx, grown)
	return r, err
}
