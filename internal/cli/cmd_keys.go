package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/tilecfg/internal/config"
)

// newKeysCmd creates the keys command
func newKeysCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "keys <document>",
		Short: "List the keys of a document",
		Long: `List every key a document accepts. "N" stands for a list index.

Examples:
  tilecfg keys wm
  tilecfg keys wm --prefix monitors.N.workspaces`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: documentNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Keys come from the schema alone; no files are read.
			kind, err := config.ParseKind(args[0])
			if err != nil {
				return err
			}
			roots := resolveRoots()
			var keys []string
			switch kind {
			case config.KindWM:
				keys = config.WMSchema(roots).Keys()
			case config.KindHotkeys:
				keys = config.HotkeysSchema(roots).Keys()
			case config.KindSettings:
				keys = config.SettingsSchema(roots).Keys()
			}

			out := cmd.OutOrStdout()
			for _, k := range keys {
				if strings.HasPrefix(k, prefix) {
					_, _ = fmt.Fprintln(out, k)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only list keys with this prefix")

	return cmd
}
