package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/tilecfg/internal/config"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tilecfg version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tilecfg version 0.1.0-dev")
			fmt.Fprintf(cmd.OutOrStdout(), "tiler schema %s\n", config.SchemaVersion)
		},
	}
}
