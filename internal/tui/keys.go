package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down       key.Binding
	Complete       key.Binding
	Wash, Iron     key.Binding
	Inc, Dec       key.Binding
	Quantity       key.Binding
	Edit, Delete   key.Binding
	Refresh, Help  key.Binding
	Quit           key.Binding
	Commit, Cancel key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Complete: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "done")),
		Wash:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wash")),
		Iron:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "iron")),
		Inc:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "qty+1")),
		Dec:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "qty-1")),
		Quantity: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "type qty")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Commit:   key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter", "save")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Edit, k.Inc, k.Dec, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Complete, k.Wash, k.Iron},
		{k.Inc, k.Dec, k.Quantity, k.Edit, k.Delete},
		{k.Refresh, k.Help, k.Quit},
	}
}
