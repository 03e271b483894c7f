package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review screen shortcuts. Row navigation is handled by
// the table; Up and Down are listed for the help view.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Accept       key.Binding
	ToggleIgnore key.Binding
	Uncertain    key.Binding
	Commit       key.Binding
	Confirm      key.Binding
	Help         key.Binding
	Quit         key.Binding
	ForceQuit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Accept: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a/Enter", "accept guess"),
		),
		ToggleIgnore: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x/Space", "toggle ignore"),
		),
		Uncertain: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "uncertain only"),
		),
		Commit: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "commit batch"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q/Esc", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.ToggleIgnore, k.Commit, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Accept, k.ToggleIgnore, k.Uncertain},
		{k.Commit, k.Help, k.Quit, k.ForceQuit},
	}
}
