package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/tilecfg/internal/config"
)

type pathInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// newPathsCmd creates the paths command
func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show where documents are read from and written to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var infos []pathInfo
			for _, k := range config.Kinds() {
				doc, err := s.Document(k)
				if err != nil {
					return err
				}
				infos = append(infos, pathInfo{Name: k.String(), Path: doc.Path(), Exists: exists(doc.Path())})
			}
			home := s.Roots().ConfigHome
			_, statErr := os.Stat(home)
			infos = append(infos, pathInfo{Name: "config-home", Path: home, Exists: statErr == nil})

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return fmt.Errorf("encode paths: %w", err)
				}
				_, _ = fmt.Fprintln(out, string(data))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, p := range infos {
				mark := ""
				if !p.Exists {
					mark = "(missing)"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Path, mark)
			}
			return w.Flush()
		},
	}
}
