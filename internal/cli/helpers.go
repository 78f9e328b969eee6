package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/randalmurphal/tilecfg/internal/config"
	"github.com/randalmurphal/tilecfg/internal/paths"
	"github.com/randalmurphal/tilecfg/internal/session"
)

// resolveRoots returns the symbolic roots, honoring --config-home.
func resolveRoots() paths.Roots {
	roots := paths.FromEnv()
	if dir := viper.GetString(optConfigHome); dir != "" {
		if abs, err := filepath.Abs(roots.Expand(dir)); err == nil {
			dir = abs
		}
		roots.ConfigHome = filepath.Clean(dir)
	}
	return roots
}

// sessionOptions builds session options from the runtime options.
func sessionOptions(watch bool) session.Options {
	roots := resolveRoots()
	opts := session.Options{
		Roots:       roots,
		NoHistory:   viper.GetBool(optNoHistory),
		Watch:       watch,
		Debounce:    viper.GetDuration(optDebounce),
		Logger:      slog.Default(),
		HistoryPath: viper.GetString(optHistoryDB),
	}
	if p := viper.GetString(optSettings); p != "" {
		opts.SettingsPath = roots.Expand(p)
	}
	if opts.HistoryPath != "" {
		opts.HistoryPath = roots.Expand(opts.HistoryPath)
	}
	return opts
}

// openSession opens a session for a one-shot command.
func openSession(ctx context.Context) (*session.Session, error) {
	return session.Open(ctx, sessionOptions(false))
}

// openDocument opens a session and returns the named document.
func openDocument(ctx context.Context, name string) (*session.Session, session.Document, error) {
	kind, err := config.ParseKind(name)
	if err != nil {
		return nil, nil, err
	}
	s, err := openSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.Document(kind)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, doc, nil
}

// parseKinds turns document arguments into kinds. No arguments means every
// document.
func parseKinds(args []string) ([]config.Kind, error) {
	if len(args) == 0 {
		return config.Kinds(), nil
	}
	kinds := make([]config.Kind, 0, len(args))
	for _, a := range args {
		k, err := config.ParseKind(a)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// documentNames lists the document names for shell completion.
func documentNames() []string {
	names := make([]string, 0, 3)
	for _, k := range config.Kinds() {
		names = append(names, k.String())
	}
	return names
}

// exists reports whether a regular file is present at path.
func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
