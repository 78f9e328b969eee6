package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newFmtCmd creates the fmt command
func newFmtCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "fmt [document...]",
		Short: "Rewrite documents in their minimal form",
		Long: `Rewrite documents so they hold only values that differ from the defaults,
in canonical order and indentation, below the schema header.

Documents that do not exist are left alone.

Examples:
  tilecfg fmt
  tilecfg fmt wm --check`,
		ValidArgs: documentNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args)
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			unformatted := 0
			for _, k := range kinds {
				doc, err := s.Document(k)
				if err != nil {
					return err
				}
				if !exists(doc.Path()) {
					continue
				}

				if check {
					redundant, err := doc.Redundant(cmd.Context())
					if err != nil {
						return err
					}
					if len(redundant) > 0 {
						unformatted++
						_, _ = fmt.Fprintf(out, "%s: %d redundant key(s)\n", doc.Path(), len(redundant))
					}
					continue
				}

				changed, _, err := doc.Format(cmd.Context())
				if err != nil {
					return err
				}
				if changed {
					_, _ = fmt.Fprintf(out, "Formatted %s\n", doc.Path())
				}
			}

			if unformatted > 0 {
				return fmt.Errorf("%d document(s) need formatting", unformatted)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "report documents with redundant keys without rewriting them")

	return cmd
}
