package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/randalmurphal/tilecfg/internal/paths"
	"github.com/randalmurphal/tilecfg/internal/schema"
)

// MonitorsKey is the dot path of the per-monitor collection.
const MonitorsKey = "monitors"

var wmSchema = sync.OnceValue(func() *schema.Schema[Config] {
	return schema.MustNew(defaultConfig(),
		schema.WithTemplate(defaultMonitor()),
		schema.WithTemplate(defaultWorkspace()),
	)
})

// WMSchema returns the window manager schema bound to roots.
func WMSchema(roots paths.Roots) *schema.Schema[Config] {
	return wmSchema().WithRoots(roots)
}

// Default returns a copy of the window manager Default Tree.
func Default() *Config {
	return wmSchema().Defaults()
}

// DefaultMonitor returns the canonical monitor entry used at every position.
func DefaultMonitor() Monitor {
	return defaultMonitor()
}

// DefaultWorkspace returns the canonical workspace entry used at every position.
func DefaultWorkspace() Workspace {
	return defaultWorkspace()
}

// ReconcileMonitors grows the monitor list to at least n entries, appending
// DefaultMonitor entries at the tail. Existing entries are never touched.
func ReconcileMonitors(cfg *Config, n int) (*Config, bool) {
	out, changed, err := wmSchema().Grow(cfg, MonitorsKey, n)
	if err != nil {
		// MonitorsKey is a fixed collection of Config.
		panic(fmt.Sprintf("reconcile monitors: %v", err))
	}
	return out, changed
}

func defaultConfig() *Config {
	return &Config{
		DefaultWorkspacePadding:      ptr(10),
		DefaultContainerPadding:      ptr(10),
		WindowHidingBehaviour:        ptr(HidingCloak),
		CrossMonitorMoveBehaviour:    ptr(MoveSwap),
		FocusFollowsMouse:            ptr(false),
		MouseFollowsFocus:            ptr(true),
		ResizeDelta:                  ptr(50),
		AppSpecificConfigurationPath: ptr(paths.Path(paths.ConfigHomeToken + "/applications.yaml")),
		GlobalWorkAreaOffset:         &Rect{},
		Border: &Border{
			Enabled: ptr(true),
			Width:   ptr(8),
			Offset:  ptr(-1),
			Style:   ptr(BorderStyleSystem),
			Colours: &Colours{
				Single:    ptr("#42a5f5"),
				Stack:     ptr("#00a542"),
				Monocle:   ptr("#ff3399"),
				Unfocused: ptr("#808080"),
			},
		},
		Animation: &Animation{
			Enabled:  ptr(false),
			Duration: ptr(250 * time.Millisecond),
			Style:    ptr(AnimationLinear),
			FPS:      ptr(60),
		},
		FloatRules:              []MatchingRule{},
		DisplayIndexPreferences: map[int]string{},
		Monitors:                []Monitor{},
	}
}

func defaultMonitor() Monitor {
	return Monitor{
		WorkAreaOffset:                 &Rect{},
		WindowBasedWorkAreaOffset:      &Rect{},
		WindowBasedWorkAreaOffsetLimit: ptr(1),
		Wallpaper:                      defaultWallpaper(),
		Workspaces:                     []Workspace{},
	}
}

func defaultWorkspace() Workspace {
	return Workspace{
		Layout: ptr(LayoutBSP),
		LayoutOptions: &LayoutOptions{
			Ratios: []float64{},
			Scrolling: &ScrollingOptions{
				Columns:             ptr(3),
				CenterFocusedColumn: ptr(false),
			},
			Grid: &GridOptions{Rows: ptr(0)},
		},
		LayoutRules:                    map[int]Layout{},
		ContainerPadding:               ptr(10),
		WorkspacePadding:               ptr(10),
		ApplyWindowBasedWorkAreaOffset: ptr(true),
		FloatOverride:                  ptr(false),
		InitialWorkspaceRules:          []MatchingRule{},
		WorkspaceRules:                 []MatchingRule{},
		Wallpaper:                      defaultWallpaper(),
	}
}

func defaultWallpaper() *Wallpaper {
	return &Wallpaper{
		Path:          ptr(paths.Path(paths.ConfigHomeToken + "/wallpaper.png")),
		GenerateTheme: ptr(false),
		ThemeOptions: &ThemeOptions{
			ThemeVariant:    ptr(ThemeDark),
			SingleBorder:    ptr("Base0D"),
			StackBorder:     ptr("Base0B"),
			MonocleBorder:   ptr("Base0F"),
			UnfocusedBorder: ptr("Base01"),
			BarAccent:       ptr("Base0D"),
		},
	}
}
