package tui

import "github.com/charmbracelet/bubbles/key"

// ProgressKeyMap holds the bindings live while a deployment runs.
type ProgressKeyMap struct {
	Interrupt key.Binding
}

func DefaultProgressKeyMap() ProgressKeyMap {
	return ProgressKeyMap{
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("ctrl+c", "stop after the current step"),
		),
	}
}
