package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/waveline/internal/tui"
)

// runInspector launches the interactive state inspector.
func runInspector() error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	program := tea.NewProgram(tui.NewModel(client), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
