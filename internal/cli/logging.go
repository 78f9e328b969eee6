package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// setupLogging installs the default slog logger. Every component logs
// through slog.Default unless given its own logger.
func setupLogging(w io.Writer, level, format string) error {
	lvl, err := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
		if err == nil {
			err = fmt.Errorf("unknown log format %q, using text", format)
		}
	}
	slog.SetDefault(slog.New(h))
	return err
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("unknown log level %q, using warn", s)
	}
}
