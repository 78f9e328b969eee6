package config

import (
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/tilecfg/internal/paths"
	"github.com/randalmurphal/tilecfg/internal/schema"
)

// TopologySource is where the observed monitor count comes from.
type TopologySource string

const (
	// TopologyStatic uses the configured count.
	TopologyStatic TopologySource = "static"
	// TopologyStateFile counts monitors in the window manager's state dump.
	TopologyStateFile TopologySource = "state_file"
)

// TopologySources lists every valid topology source.
var TopologySources = []TopologySource{TopologyStatic, TopologyStateFile}

// UnmarshalYAML rejects unknown topology sources.
func (t *TopologySource) UnmarshalYAML(node *yaml.Node) error {
	return decodeEnum(node, t, "topology source", TopologySources)
}

// Settings are tilecfg's own settings (settings.yaml).
type Settings struct {
	// AutoSave writes edits without an explicit save (default: false)
	AutoSave *bool `yaml:"auto_save,omitempty"`

	// AutoSaveDelay is how long edits settle before an auto save (default: 1s)
	AutoSaveDelay *time.Duration `yaml:"auto_save_delay,omitempty"`

	// WMConfigPath overrides the window manager config location
	WMConfigPath *paths.Path `yaml:"wm_config_path,omitempty"`

	// HotkeysPath overrides the hotkey daemon config location
	HotkeysPath *paths.Path `yaml:"hotkeys_path,omitempty"`

	Monitors *MonitorDetection `yaml:"monitors,omitempty"`
	Watch    *WatchSettings    `yaml:"watch,omitempty"`
	History  *HistorySettings  `yaml:"history,omitempty"`
}

// MonitorDetection configures how the observed monitor count is obtained
// and what happens when it exceeds the configured monitors.
type MonitorDetection struct {
	// Source (default: static)
	Source *TopologySource `yaml:"source,omitempty"`

	// StateFile is the window manager's JSON state dump, read by the
	// state_file source
	StateFile *paths.Path `yaml:"state_file,omitempty"`

	// Count is the monitor count for the static source (default: 1)
	Count *int `yaml:"count,omitempty"`

	// ReconcileOnLoad grows the monitor list after every load (default: true)
	ReconcileOnLoad *bool `yaml:"reconcile_on_load,omitempty"`

	// SaveAfterReconcile persists a grown monitor list immediately (default: false)
	SaveAfterReconcile *bool `yaml:"save_after_reconcile,omitempty"`
}

// WatchSettings configure live reload of externally edited files.
type WatchSettings struct {
	// Enabled (default: true)
	Enabled *bool `yaml:"enabled,omitempty"`

	// Debounce coalesces bursts of filesystem events (default: 250ms)
	Debounce *time.Duration `yaml:"debounce,omitempty"`

	// SkipUnchanged drops external change events whose content is identical
	// to the last observed content (default: true)
	SkipUnchanged *bool `yaml:"skip_unchanged,omitempty"`
}

// HistorySettings configure the revision history of saves.
type HistorySettings struct {
	// Enabled (default: true)
	Enabled *bool `yaml:"enabled,omitempty"`

	// Keep is how many revisions per document are retained (default: 50)
	Keep *int `yaml:"keep,omitempty"`
}

var settingsSchema = sync.OnceValue(func() *schema.Schema[Settings] {
	return schema.MustNew(defaultSettings())
})

// SettingsSchema returns the settings schema bound to roots.
func SettingsSchema(roots paths.Roots) *schema.Schema[Settings] {
	return settingsSchema().WithRoots(roots)
}

// DefaultSettings returns a copy of the settings Default Tree.
func DefaultSettings() *Settings {
	return settingsSchema().Defaults()
}

// DocumentPath returns the absolute location of the wm or hotkeys document
// according to resolved settings. Settings themselves are not relocatable.
func (s *Settings) DocumentPath(k Kind, roots paths.Roots) string {
	var p *paths.Path
	switch k {
	case KindWM:
		p = s.WMConfigPath
	case KindHotkeys:
		p = s.HotkeysPath
	}
	if p == nil || *p == "" {
		return DefaultPath(k, roots)
	}
	return roots.Expand(string(*p))
}

func defaultSettings() *Settings {
	return &Settings{
		AutoSave:      ptr(false),
		AutoSaveDelay: ptr(time.Second),
		WMConfigPath:  ptr(paths.Path(paths.ConfigHomeToken + "/" + WMFileName)),
		HotkeysPath:   ptr(paths.Path(paths.ConfigHomeToken + "/" + HotkeysFileName)),
		Monitors: &MonitorDetection{
			Source:             ptr(TopologyStatic),
			StateFile:          ptr(paths.Path(paths.ConfigHomeToken + "/state.json")),
			Count:              ptr(1),
			ReconcileOnLoad:    ptr(true),
			SaveAfterReconcile: ptr(false),
		},
		Watch: &WatchSettings{
			Enabled:       ptr(true),
			Debounce:      ptr(250 * time.Millisecond),
			SkipUnchanged: ptr(true),
		},
		History: &HistorySettings{
			Enabled: ptr(true),
			Keep:    ptr(50),
		},
	}
}
