package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/contamio/recallctl/internal/session"
)

// Run drives shell in the terminal until the user quits or ctx is cancelled.
func Run(ctx context.Context, shell *session.Shell, title string) error {
	model := NewModel(ctx, shell, title)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := program.Run()
	if err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}

	return nil
}
