// Package config defines the documents tilecfg edits: the window manager
// configuration, the hotkey daemon configuration and tilecfg's own settings.
//
// Each document is a Go struct tree driven by the schema engine. Optional
// values are pointers, slices or maps and carry omitempty so that an
// unmerged tree serializes to the minimal file. Identity fields (a
// workspace's name, a binding's keys) are plain values.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/tilecfg/internal/paths"
)

const (
	// SchemaVersion is the window manager release whose JSON schema the
	// persisted header points at.
	SchemaVersion = "v0.3.0"

	// AppDir is tilecfg's directory under $XDG_CONFIG_HOME and $XDG_STATE_HOME.
	AppDir = "tilecfg"

	// WMFileName is the window manager config file name.
	WMFileName = "tiler.yaml"
	// HotkeysFileName is the hotkey daemon config file name.
	HotkeysFileName = "hotkeys.yaml"
	// SettingsFileName is tilecfg's settings file name.
	SettingsFileName = "settings.yaml"
)

// Kind identifies one of the edited documents.
type Kind string

const (
	// KindWM is the window manager configuration.
	KindWM Kind = "wm"
	// KindHotkeys is the hotkey daemon configuration.
	KindHotkeys Kind = "hotkeys"
	// KindSettings is tilecfg's own settings.
	KindSettings Kind = "settings"
)

// Kinds returns every document kind in load order. Settings come first
// because they locate the other two files.
func Kinds() []Kind {
	return []Kind{KindSettings, KindWM, KindHotkeys}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown document %q (valid: wm, hotkeys, settings)", s)
	}
	return k, nil
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is a recognized value.
func (k Kind) IsValid() bool {
	switch k {
	case KindWM, KindHotkeys, KindSettings:
		return true
	default:
		return false
	}
}

// Title is the human-readable document name used in notifications.
func (k Kind) Title() string {
	switch k {
	case KindWM:
		return "Window manager config"
	case KindHotkeys:
		return "Hotkeys config"
	case KindSettings:
		return "Settings"
	default:
		return string(k)
	}
}

// FileName returns the default file name for the kind.
func (k Kind) FileName() string {
	switch k {
	case KindWM:
		return WMFileName
	case KindHotkeys:
		return HotkeysFileName
	case KindSettings:
		return SettingsFileName
	default:
		return ""
	}
}

// SchemaURL returns the JSON schema location for the kind.
func SchemaURL(k Kind) string {
	switch k {
	case KindWM:
		return fmt.Sprintf("https://raw.githubusercontent.com/tiler-wm/tiler/%s/schema.json", SchemaVersion)
	case KindHotkeys:
		return fmt.Sprintf("https://raw.githubusercontent.com/tiler-wm/tiler/%s/schema.hotkeys.json", SchemaVersion)
	case KindSettings:
		return "https://raw.githubusercontent.com/randalmurphal/tilecfg/main/schema.settings.json"
	default:
		return ""
	}
}

// Header returns the single line written at the top of every persisted file.
func Header(k Kind) string {
	return "# yaml-language-server: $schema=" + SchemaURL(k)
}

// DefaultPath returns where a document lives when settings don't say
// otherwise. The wm and hotkeys files live in the config home; settings
// live in tilecfg's own XDG directory.
func DefaultPath(k Kind, roots paths.Roots) string {
	if k == KindSettings {
		return SettingsPath(roots.Home)
	}
	return filepath.Join(roots.ConfigHome, k.FileName())
}

// SettingsPath returns the default settings file for the given home.
func SettingsPath(home string) string {
	return filepath.Join(paths.XDGConfigHome(home), AppDir, SettingsFileName)
}

// HistoryPath returns the default revision history database for the given home.
func HistoryPath(home string) string {
	return filepath.Join(paths.XDGStateHome(home), AppDir, "history.db")
}

func ptr[V any](v V) *V {
	return &v
}
