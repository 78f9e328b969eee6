// Package topology reports the physically observed monitor count used to
// grow the per-monitor section of the window manager config.
package topology

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tidwall/gjson"

	"github.com/randalmurphal/tilecfg/internal/config"
	tcerrors "github.com/randalmurphal/tilecfg/internal/errors"
	"github.com/randalmurphal/tilecfg/internal/paths"
)

// MonitorsPath is the gjson path of the monitor count in the window
// manager's state dump.
const MonitorsPath = "monitors.elements.#"

// Source reports how many monitors are connected.
type Source interface {
	Count(ctx context.Context) (int, error)
}

// ObservedMsg carries a fresh monitor count to the editor.
type ObservedMsg struct {
	Count int
	Err   error
}

// Observe reads src once and wraps the result in an ObservedMsg.
func Observe(ctx context.Context, src Source) ObservedMsg {
	n, err := src.Count(ctx)
	return ObservedMsg{Count: n, Err: err}
}

// Static is a fixed monitor count.
type Static int

// Count returns the fixed count.
func (s Static) Count(context.Context) (int, error) {
	if s < 0 {
		return 0, nil
	}
	return int(s), nil
}

// StateFile counts monitors in a JSON state dump written by the window
// manager.
type StateFile struct {
	Path string
}

// Count reads the state file. A missing file is NotFound; a file that is
// not JSON or has no monitor list is a parse error.
func (s StateFile) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, tcerrors.ErrNotFound(s.Path)
		}
		return 0, tcerrors.ErrRead(s.Path, err)
	}
	if !gjson.ValidBytes(data) {
		return 0, tcerrors.ErrParse(s.Path, fmt.Errorf("invalid JSON"))
	}

	result := gjson.GetBytes(data, MonitorsPath)
	if !result.Exists() {
		return 0, tcerrors.ErrParse(s.Path, fmt.Errorf("no %q in state", "monitors.elements"))
	}
	return int(result.Int()), nil
}

// FromSettings builds the source the settings select. settings must be
// resolved (merged with defaults).
func FromSettings(settings *config.Settings, roots paths.Roots) Source {
	m := settings.Monitors
	if m == nil || m.Source == nil {
		return Static(1)
	}
	switch *m.Source {
	case config.TopologyStateFile:
		if m.StateFile != nil {
			return StateFile{Path: roots.Expand(string(*m.StateFile))}
		}
	case config.TopologyStatic:
		if m.Count != nil {
			return Static(*m.Count)
		}
	}
	return Static(1)
}

// Watched returns the file a source reads, or "" if it reads none.
func Watched(src Source) string {
	if sf, ok := src.(StateFile); ok {
		return sf.Path
	}
	return ""
}
