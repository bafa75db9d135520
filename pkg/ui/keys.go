package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap is the viewer's key bindings. It implements help.KeyMap.
type keyMap struct {
	Left       key.Binding
	Right      key.Binding
	First      key.Binding
	Last       key.Binding
	Select     key.Binding
	Accumulate key.Binding
	Out        key.Binding
	ExportPNG  key.Binding
	ExportSVG  key.Binding
	Copy       key.Binding
	Reload     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous point"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next point"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first point"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last point"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Accumulate: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "add to selection"),
		),
		Out: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "pointer out"),
		),
		ExportPNG: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "export png"),
		),
		ExportSVG: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "export svg"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy tooltip"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Select, k.Accumulate, k.ExportPNG, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.First, k.Last, k.Out},
		{k.Select, k.Accumulate},
		{k.ExportPNG, k.ExportSVG, k.Copy, k.Reload},
		{k.Help, k.Quit},
	}
}
