package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Tab       key.Binding
	ShiftTab  key.Binding
	Step      key.Binding
	Back      key.Binding
	Run       key.Binding
	Aggregate key.Binding
	Reset     key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Step: key.NewBinding(
		key.WithKeys("n", " ", "right", "l"),
		key.WithHelp("n/space", "tick"),
	),
	Back: key.NewBinding(
		key.WithKeys("b", "left", "h"),
		key.WithHelp("b", "back"),
	),
	Run: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "run level"),
	),
	Aggregate: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "aggregate"),
	),
	Reset: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reset"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Back, k.Run, k.Aggregate, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Step, k.Back, k.Run},
		{k.Aggregate, k.Reset, k.Quit},
	}
}
