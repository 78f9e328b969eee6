package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newShowCmd creates the show command
func newShowCmd() *cobra.Command {
	var resolved bool

	cmd := &cobra.Command{
		Use:   "show <document>",
		Short: "Show a document",
		Long: `Show a configuration document.

By default the document is printed exactly as tilecfg would save it: the
schema header followed by the values that differ from the defaults. Use
--resolved to see every value, with defaults filled in and paths expanded.

Examples:
  tilecfg show wm
  tilecfg show hotkeys --resolved`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: documentNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, doc, err := openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := doc.Show(cmd.Context(), resolved)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().BoolVar(&resolved, "resolved", false, "show every value with defaults filled in")

	return cmd
}
