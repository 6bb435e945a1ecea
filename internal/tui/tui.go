package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hasanawais/pica/internal/core"
)

// Run starts the interactive fleet dashboard against a running Core. It
// blocks until the user quits.
func Run(c *core.Core) error {
	model := New(c)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
