package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Edit        key.Binding
	Confirm     key.Binding
	Back        key.Binding
	AddStop     key.Binding
	Remove      key.Binding
	Recalc      key.Binding
	AddCylinder key.Binding
	Columns     key.Binding
	Commit      key.Binding
	Cancel      key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the table keybindings. The editor keys start
// disabled.
func DefaultKeyMap() KeyMap {
	km := KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "column"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "edit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "discard"),
		),
		AddStop: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add stop"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "remove"),
		),
		Recalc: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "recalc"),
		),
		AddCylinder: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cylinder"),
		),
		Columns: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "runtime/duration"),
		),
		Commit: key.NewBinding(
			key.WithKeys("s", "ctrl+s"),
			key.WithHelp("s", "save dive"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel plan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	km.Confirm.SetEnabled(false)
	km.Back.SetEnabled(false)
	return km
}

// EditKeyMap returns keybindings active while a cell editor is open. Every
// letter key goes to the editor, so only the editor keys stay enabled.
func EditKeyMap() KeyMap {
	km := DefaultKeyMap()
	for _, b := range []*key.Binding{
		&km.Up, &km.Down, &km.Left, &km.Right, &km.Edit, &km.AddStop, &km.Remove,
		&km.Recalc, &km.AddCylinder, &km.Columns, &km.Commit, &km.Cancel,
	} {
		b.SetEnabled(false)
	}
	km.Confirm.SetEnabled(true)
	km.Back.SetEnabled(true)
	km.Quit = key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	)
	return km
}
