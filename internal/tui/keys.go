package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Tab         key.Binding
	ShiftTab    key.Binding
	Enter       key.Binding
	Escape      key.Binding
	New         key.Binding
	Delete      key.Binding
	Rename      key.Binding
	Up          key.Binding
	Down        key.Binding
	NewPosting  key.Binding
	Reverse     key.Binding
	RunDeprec   key.Binding
	Granularity key.Binding
	Refresh     key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select/confirm"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new account"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete account"),
	),
	Rename: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rename account"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "move down"),
	),
	NewPosting: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "post event"),
	),
	Reverse: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "reverse posting"),
	),
	RunDeprec: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "run depreciation"),
	),
	Granularity: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "yearly/monthly"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "refresh"),
	),
}
