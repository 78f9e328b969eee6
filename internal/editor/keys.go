package editor

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the editor's key bindings.
type KeyMap struct {
	Save      key.Binding
	Reload    key.Binding
	Reconcile key.Binding
	Prompt    key.Binding
	Dismiss   key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Save: key.NewBinding(
			key.WithKeys("ctrl+s", "w"),
			key.WithHelp("w", "save"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r", "r"),
			key.WithHelp("r", "reload"),
		),
		Reconcile: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "detect monitors"),
		),
		Prompt: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "edit"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prompt, k.Save, k.Reload, k.Reconcile, k.Dismiss, k.Quit}
}
