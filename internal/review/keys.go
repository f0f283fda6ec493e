package review

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	NextFile key.Binding
	PrevFile key.Binding
	Accept   key.Binding
	Reject   key.Binding
	Clear    key.Binding
	Pane     key.Binding
	Errors   key.Binding
	Warnings key.Binding
	All      key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("n", "j", "down"), key.WithHelp("n/j", "next")),
		Prev:     key.NewBinding(key.WithKeys("p", "k", "up"), key.WithHelp("p/k", "prev")),
		NextFile: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next file")),
		PrevFile: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev file")),
		Accept:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept")),
		Reject:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reject")),
		Clear:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo triage")),
		Pane:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Errors:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "errors")),
		Warnings: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "warnings+")),
		All:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "all")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save & quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Accept, k.Reject, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.NextFile, k.PrevFile},
		{k.Accept, k.Reject, k.Clear},
		{k.Errors, k.Warnings, k.All},
		{k.Pane, k.Help, k.Quit},
	}
}
