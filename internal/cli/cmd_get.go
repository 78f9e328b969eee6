package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newGetCmd creates the get command
func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <document> <key>",
		Short: "Get a resolved config value",
		Long: `Get a configuration value by key, with the default applied when the
document does not set it.

Keys use dot notation; list entries are addressed by index.

Examples:
  tilecfg get wm border.width
  tilecfg get wm monitors.0.workspaces.1.layout
  tilecfg get hotkeys pause --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, doc, err := openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			value, err := doc.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), value)
		},
	}
}

// printValue prints scalars on one line and everything else as YAML (or
// JSON with --json).
func printValue(out io.Writer, value any) error {
	if jsonOut {
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if value == nil {
		_, err := fmt.Fprintln(out, "null")
		return err
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Struct, reflect.Slice, reflect.Map:
		data, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
		_, err = fmt.Fprint(out, string(data))
		return err
	default:
		_, err := fmt.Fprintln(out, strings.TrimSpace(fmt.Sprint(value)))
		return err
	}
}
