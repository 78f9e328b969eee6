package config

import (
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/tilecfg/internal/paths"
	"github.com/randalmurphal/tilecfg/internal/schema"
)

// Shell runs binding commands.
type Shell string

const (
	ShellSh   Shell = "sh"
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// Shells lists every valid shell.
var Shells = []Shell{ShellSh, ShellBash, ShellZsh, ShellFish}

// UnmarshalYAML rejects unknown shells.
func (s *Shell) UnmarshalYAML(node *yaml.Node) error {
	return decodeEnum(node, s, "shell", Shells)
}

// Hotkeys is the hotkey daemon configuration (hotkeys.yaml).
type Hotkeys struct {
	// Shell runs every command (default: sh)
	Shell *Shell `yaml:"shell,omitempty"`

	// Includes are further binding files merged by the daemon
	Includes []paths.Path `yaml:"includes,omitempty"`

	// Pause suspends every other binding while active
	Pause *Pause `yaml:"pause,omitempty"`

	Bindings    []Binding    `yaml:"bindings,omitempty"`
	AppBindings []AppBinding `yaml:"app_bindings,omitempty"`
}

// Pause configures the pause toggle.
type Pause struct {
	Keys *string `yaml:"keys,omitempty"`
	// Hook runs whenever the pause state flips
	Hook *string `yaml:"hook,omitempty"`
}

// Binding runs a command for a key chord.
type Binding struct {
	// Keys identifies the binding, e.g. "alt+shift+h"
	Keys string `yaml:"keys"`

	Command     *string `yaml:"command,omitempty"`
	Description *string `yaml:"description,omitempty"`

	// Passthrough also delivers the chord to the focused window (default: false)
	Passthrough *bool `yaml:"passthrough,omitempty"`
}

// AppBinding runs a command for a key chord while an application is focused.
type AppBinding struct {
	Keys string `yaml:"keys"`
	// Process is the focused executable the binding applies to
	Process string `yaml:"process"`

	Command *string `yaml:"command,omitempty"`
	// Ignore swallows the chord without running anything (default: false)
	Ignore *bool `yaml:"ignore,omitempty"`
}

var hotkeysSchema = sync.OnceValue(func() *schema.Schema[Hotkeys] {
	return schema.MustNew(defaultHotkeys(),
		schema.WithTemplate(defaultBinding()),
		schema.WithTemplate(defaultAppBinding()),
	)
})

// HotkeysSchema returns the hotkeys schema bound to roots.
func HotkeysSchema(roots paths.Roots) *schema.Schema[Hotkeys] {
	return hotkeysSchema().WithRoots(roots)
}

// DefaultHotkeys returns a copy of the hotkeys Default Tree.
func DefaultHotkeys() *Hotkeys {
	return hotkeysSchema().Defaults()
}

func defaultHotkeys() *Hotkeys {
	return &Hotkeys{
		Shell:    ptr(ShellSh),
		Includes: []paths.Path{},
		Pause: &Pause{
			Keys: ptr("alt+shift+p"),
			Hook: ptr(""),
		},
		Bindings:    []Binding{},
		AppBindings: []AppBinding{},
	}
}

func defaultBinding() Binding {
	return Binding{
		Command:     ptr(""),
		Description: ptr(""),
		Passthrough: ptr(false),
	}
}

func defaultAppBinding() AppBinding {
	return AppBinding{
		Command: ptr(""),
		Ignore:  ptr(false),
	}
}
