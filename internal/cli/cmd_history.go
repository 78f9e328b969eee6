package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/tilecfg/internal/config"
	"github.com/randalmurphal/tilecfg/internal/history"
	"github.com/randalmurphal/tilecfg/internal/session"
)

// newHistoryCmd creates the history command
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and restore saved revisions",
		Long: `Every save tilecfg makes is recorded in a revision history, so an earlier
version of a document can be inspected or restored.

Commands:
  list      List revisions, newest first
  show      Print the content of a revision
  restore   Save a revision as the current document
  prune     Delete old revisions`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryRestoreCmd())
	cmd.AddCommand(newHistoryPruneCmd())

	return cmd
}

// openHistory opens a session whose history is enabled.
func openHistory(cmd *cobra.Command) (*session.Session, *history.Store, error) {
	s, err := openSession(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	h := s.History()
	if h == nil {
		s.Close()
		return nil, nil, errHistoryDisabled()
	}
	return s, h, nil
}

func parseRevisionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid revision id %q", arg)
	}
	return id, nil
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:       "list [document]",
		Short:     "List revisions",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: documentNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind config.Kind
			if len(args) == 1 {
				k, err := config.ParseKind(args[0])
				if err != nil {
					return err
				}
				kind = k
			}

			s, h, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := h.List(cmd.Context(), kind, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if entries == nil {
					entries = []history.Entry{}
				}
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return fmt.Errorf("encode revisions: %w", err)
				}
				_, _ = fmt.Fprintln(out, string(data))
				return nil
			}

			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, "No revisions recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tDOCUMENT\tSAVED\tSIZE\tHASH")
			_, _ = fmt.Fprintln(w, "──\t────────\t─────\t────\t────")
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					e.ID, e.Kind, e.SavedAt.Local().Format(time.DateTime), e.Size, shortHash(e.Hash))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of revisions to list (0 for all)")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the content of a revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRevisionID(args[0])
			if err != nil {
				return err
			}
			s, h, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := h.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(e.Content)
			return err
		},
	}
}

func newHistoryRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Save a revision as the current document",
		Long: `Save the content of a revision as the current version of its document.
The content is validated first, and the restore is itself recorded as a new
revision.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRevisionID(args[0])
			if err != nil {
				return err
			}
			s, h, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := h.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			doc, err := s.Document(e.Kind)
			if err != nil {
				return err
			}
			if _, err := doc.Restore(cmd.Context(), e.Content); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from revision %d to %s\n", e.Kind, e.ID, doc.Path())
			return nil
		},
	}
}

func newHistoryPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:       "prune [document...]",
		Short:     "Delete old revisions",
		ValidArgs: documentNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}
			s, h, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var total int64
			for _, k := range kinds {
				n, err := h.Prune(cmd.Context(), k, keep)
				if err != nil {
					return err
				}
				total += n
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d revision(s)\n", total)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 10, "revisions to keep per document")

	return cmd
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
