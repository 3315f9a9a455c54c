package console

import "github.com/charmbracelet/bubbles/key"

// keyMap defines key bindings for the menu
type keyMap struct {
	Hello    key.Binding
	Activate key.Binding
	Pixel    key.Binding
	Rainbow  key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hello, k.Activate, k.Pixel, k.Rainbow, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Hello, k.Activate, k.Pixel, k.Rainbow, k.Quit},
	}
}

// inputKeyMap defines key bindings while a prompt or sweep is active
type inputKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Cancel key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k inputKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k inputKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Cancel}}
}

func newKeyMap() keyMap {
	return keyMap{
		Hello: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hello"),
		),
		Activate: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "set active"),
		),
		Pixel: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pixel"),
		),
		Rainbow: key.NewBinding(
			key.WithKeys("r", "R"),
			key.WithHelp("r", "rainbow"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func newInputKeyMap() inputKeyMap {
	return inputKeyMap{
		Next: key.NewBinding(
			key.WithKeys("enter", "tab"),
			key.WithHelp("enter", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "back"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}
