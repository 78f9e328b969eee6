package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
)

// checkResult is the outcome of checking one document.
type checkResult struct {
	Document  string   `json:"document"`
	Path      string   `json:"path"`
	Exists    bool     `json:"exists"`
	Error     string   `json:"error,omitempty"`
	Redundant []string `json:"redundant,omitempty"`
}

// newCheckCmd creates the check command
func newCheckCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [document...]",
		Short: "Validate documents",
		Long: `Validate configuration documents without changing them.

Every document is parsed with unknown keys rejected. Keys whose value equals
the default are listed as redundant; 'tilecfg fmt' removes them.

Examples:
  tilecfg check
  tilecfg check wm --strict`,
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

			var results []checkResult
			failed := 0
			for _, k := range kinds {
				doc, err := s.Document(k)
				if err != nil {
					return err
				}
				r := checkResult{Document: k.String(), Path: doc.Path(), Exists: exists(doc.Path())}
				redundant, err := doc.Redundant(cmd.Context())
				if err != nil {
					r.Error = err.Error()
					if e := tcerrors.AsError(err); e != nil {
						r.Error = e.UserMessage()
					}
					failed++
				} else {
					r.Redundant = redundant
					if strict && len(redundant) > 0 {
						failed++
					}
				}
				results = append(results, r)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return fmt.Errorf("encode results: %w", err)
				}
				_, _ = fmt.Fprintln(out, string(data))
			} else {
				for _, r := range results {
					switch {
					case r.Error != "":
						_, _ = fmt.Fprintf(out, "✗ %s: %s\n", r.Document, r.Error)
					case !r.Exists:
						_, _ = fmt.Fprintf(out, "✓ %s: not created, defaults apply\n", r.Document)
					case len(r.Redundant) > 0:
						_, _ = fmt.Fprintf(out, "! %s: %d redundant key(s)\n", r.Document, len(r.Redundant))
						for _, key := range r.Redundant {
							_, _ = fmt.Fprintf(out, "    %s\n", key)
						}
					default:
						_, _ = fmt.Fprintf(out, "✓ %s\n", r.Document)
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d document(s) failed the check", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat redundant keys as failures")

	return cmd
}
