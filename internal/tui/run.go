package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/efebarandurmaz/sikuliflow/internal/project"
)

// Run opens the canvas host on the terminal and blocks until the user quits
// or ctx is canceled.
func Run(ctx context.Context, s *project.Session, opts Options) (*project.Session, error) {
	p := tea.NewProgram(NewModel(s, opts),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	return final.(Model).Session(), nil
}
