// Package cli implements the tilecfg command-line interface.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Runtime option keys. Each is a persistent flag on the root command and
// can also be set through the environment with the TILECFG_ prefix, e.g.
// TILECFG_CONFIG_HOME or TILECFG_LOG_LEVEL.
const (
	optConfigHome = "config-home"
	optSettings   = "settings"
	optDebounce   = "debounce"
	optLogLevel   = "log-level"
	optLogFormat  = "log-format"
	optNoHistory  = "no-history"
	optHistoryDB  = "history-db"
)

var (
	verbose bool
	jsonOut bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tilecfg",
	Short: "Configuration editor for the tiler window manager",
	Long: `tilecfg edits the tiler window manager config, the hotkey daemon config
and its own settings, writing only the values that differ from the defaults.

Documents:
  wm        $TILER_CONFIG_HOME/tiler.yaml
  hotkeys   $TILER_CONFIG_HOME/hotkeys.yaml
  settings  $XDG_CONFIG_HOME/tilecfg/settings.yaml

Run without arguments in a terminal to open the editor.

Quick start:
  tilecfg get wm border.width        Show a resolved value
  tilecfg set wm border.width 4      Change a value
  tilecfg check                      Validate every document
  tilecfg watch --reconcile          Keep the monitor list in sync`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runEditor,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintError(err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String(optConfigHome, "", "window manager config directory (default $TILER_CONFIG_HOME or ~/.config/tiler)")
	flags.String(optSettings, "", "settings file (default ~/.config/tilecfg/settings.yaml)")
	flags.Duration(optDebounce, 0, "file watch debounce window (default from settings)")
	flags.String(optLogLevel, "warn", "log level: debug, info, warn, error")
	flags.String(optLogFormat, "text", "log format: text or json")
	flags.Bool(optNoHistory, false, "do not record saves in the revision history")
	flags.String(optHistoryDB, "", "revision history database (default ~/.local/state/tilecfg/history.db)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&jsonOut, "json", false, "output as JSON")

	for _, name := range []string{optConfigHome, optSettings, optDebounce, optLogLevel, optLogFormat, optNoHistory, optHistoryDB} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newUnsetCmd())
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newFmtCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newPathsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig binds runtime options to the environment and sets up logging.
func initConfig() {
	viper.SetEnvPrefix("TILECFG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := setupLogging(os.Stderr, viper.GetString(optLogLevel), viper.GetString(optLogFormat)); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}
}
