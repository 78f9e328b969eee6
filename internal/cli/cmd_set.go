package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSetCmd creates the set command
func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <document> <key> <value>",
		Short: "Set a config value",
		Long: `Set a configuration value and save the document.

The value is parsed as YAML, so numbers, booleans, lists and maps work.
Setting a value equal to its default removes it from the file.

Examples:
  tilecfg set wm border.width 4
  tilecfg set wm animation.duration 300ms
  tilecfg set wm monitors.0.workspaces '[{name: main, layout: columns}]'
  tilecfg set hotkeys shell fish`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, doc, err := openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := doc.Set(cmd.Context(), args[1], args[2]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[1], args[2], doc.Path())
			return nil
		},
	}
}

// newUnsetCmd creates the unset command
func newUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <document> <key>",
		Short: "Revert a config value to its default",
		Long: `Remove a value from the document so that it resolves to its default again.

Examples:
  tilecfg unset wm border.width
  tilecfg unset wm monitors.1.wallpaper`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, doc, err := openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := doc.Unset(cmd.Context(), args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s in %s\n", args[1], doc.Path())
			return nil
		},
	}
}
