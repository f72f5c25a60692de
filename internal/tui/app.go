// Package tui implements the operator dashboard: a bubbletea board fed by the
// scheduler's event bus, and a headless sink for non-interactive runs.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/red-hand/midenclaim/internal/account"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
}

// New creates a new TUI application
func New(board *Board, source StatsSource, accounts []account.Account) *App {
	return &App{model: NewModel(board, source, accounts)}
}

// Run shows the dashboard until the operator quits or ctx is cancelled.
// Either way the caller is expected to shut the scheduler down afterwards.
func (a *App) Run(ctx context.Context) error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := a.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
