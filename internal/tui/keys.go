package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	ToggleManifest key.Binding
	ToggleTransfer key.Binding
	ToggleRoster   key.Binding
	ToggleDebug    key.Binding
	NextPanel      key.Binding
	PrevPanel      key.Binding
	Up             key.Binding
	Down           key.Binding
	Left           key.Binding
	Right          key.Binding
	Choose         key.Binding
	Fill           key.Binding
	Empty          key.Binding
	AddCrew        key.Binding
	RemoveCrew     key.Binding
	Edit           key.Binding
	Create         key.Binding
	Respawn        key.Binding
	Assign         key.Binding
	Grow           key.Binding
	Shrink         key.Binding
	Help           key.Binding
	Quit           key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleManifest: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manifest")),
		ToggleTransfer: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "transfer")),
		ToggleRoster:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "roster")),
		ToggleDebug:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		NextPanel:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		PrevPanel:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev panel")),
		Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:           key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
		Right:          key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column")),
		Choose:         key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
		Fill:           key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "Fill")),
		Empty:          key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "Empty")),
		AddCrew:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "Add")),
		RemoveCrew:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Remove")),
		Edit:           key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "Edit")),
		Create:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "Create")),
		Respawn:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "Respawn")),
		Assign:         key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "Add to part")),
		Grow:           key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "wider")),
		Shrink:         key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "narrower")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleManifest, k.ToggleTransfer, k.ToggleRoster, k.NextPanel, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleManifest, k.ToggleTransfer, k.ToggleRoster, k.ToggleDebug},
		{k.NextPanel, k.PrevPanel, k.Up, k.Down, k.Left, k.Right, k.Choose},
		{k.Fill, k.Empty, k.AddCrew, k.RemoveCrew},
		{k.Edit, k.Create, k.Respawn, k.Assign},
		{k.Grow, k.Shrink, k.Help, k.Quit},
	}
}
