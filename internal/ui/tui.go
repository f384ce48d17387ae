// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the tone generator status view
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Control carries user requests from the TUI back to main
type Control struct {
	Quit chan QuitMsg
}

// QuitMsg is sent when the user quits from the TUI
type QuitMsg struct{}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Quit: make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		state:   "uninitialized",
		control: ctrl,
	}
}

// Run creates the TUI program; the caller runs it
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
