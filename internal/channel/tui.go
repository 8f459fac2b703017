package channel

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"supportrag/internal/tui"
)

// tuiChannel wraps the Bubble Tea chat model behind the Channel interface.
type tuiChannel struct {
	deps Deps
}

func NewTUI(deps Deps) Channel {
	return &tuiChannel{deps: deps}
}

func (t *tuiChannel) Run(ctx context.Context) error {
	m := tui.New(t.deps.Agent, t.deps.Feedback, t.deps.Summary)
	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}
