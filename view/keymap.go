package view

import "github.com/charmbracelet/bubbles/key"

type keymap struct {
	next     key.Binding
	prev     key.Binding
	force    key.Binding
	skip     key.Binding
	postpone key.Binding
	stop     key.Binding
	mode     key.Binding
	esc      key.Binding
	quit     key.Binding
}

var defaultKeymap = keymap{
	next: key.NewBinding(
		key.WithKeys("tab", "down", "j"),
		key.WithHelp("tab", "next break"),
	),
	prev: key.NewBinding(
		key.WithKeys("shift+tab", "up", "k"),
	),
	force: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "take now"),
	),
	skip: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "skip"),
	),
	postpone: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "postpone"),
	),
	stop: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "stop prelude"),
	),
	mode: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "mode"),
	),
	esc: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
	quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
