// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keys the terminal host reserves for itself. Every
// other key press is delivered to the focused element as a keydown event.
type KeyMap struct {
	NextFocus key.Binding
	PrevFocus key.Binding
	Reload    key.Binding
	Quit      key.Binding
}

// Host is the default host key map.
var Host = DefaultKeyMap()

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next focus"),
		),
		PrevFocus: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous focus"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload scene"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextFocus, k.Reload, k.Quit}
}

// Reserved reports whether keyPress is bound to a host action.
func (k KeyMap) Reserved(keyPress string) bool {
	for _, b := range []key.Binding{k.NextFocus, k.PrevFocus, k.Reload, k.Quit} {
		for _, bound := range b.Keys() {
			if bound == keyPress {
				return true
			}
		}
	}
	return false
}
