package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Undo    key.Binding
	Redo    key.Binding
	Delete  key.Binding
	Group   key.Binding
	Cancel  key.Binding
	Open    key.Binding
	Close   key.Binding
	Save    key.Binding
	Export  key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (km keyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Palette, km.Group, km.Undo, km.Save, km.Help, km.Quit}
}

func (km keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.Palette, km.Delete, km.Group, km.Cancel},
		{km.Undo, km.Redo, km.Open, km.Close},
		{km.Save, km.Export, km.Help, km.Quit},
	}
}

func newKeyMap(groupKey string) keyMap {
	return keyMap{
		Undo: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "redo"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete", "backspace"),
			key.WithHelp("del", "delete selection"),
		),
		Group: key.NewBinding(
			key.WithKeys(groupKey),
			key.WithHelp(groupKey, "group into function"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel erase"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open function"),
		),
		Close: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("ctrl+w", "close function"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export scripts"),
		),
		Palette: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "add node"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
