package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Record key.Binding
	Search key.Binding
	Submit key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Record: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "record purchase"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "new lookup"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "look up"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

func (k keyMap) helpLine() string {
	bindings := []key.Binding{k.Next, k.Record, k.Search, k.Quit}
	line := ""
	for i, b := range bindings {
		if i > 0 {
			line += " • "
		}
		line += b.Help().Key + " " + b.Help().Desc
	}
	return line
}
