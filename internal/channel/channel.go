// Package channel hosts the thin interactive adapters around the agent.
// Channels consume Answer values and produce feedback ratings; all pipeline
// logic stays in the core packages.
package channel

import (
	"context"
	"fmt"

	"supportrag/internal/domain"
)

// Asker is the channel-facing subset of the agent.
type Asker interface {
	Ask(ctx context.Context, query string) (domain.Answer, error)
}

// Channel runs an interactive session until the user quits or ctx is done.
type Channel interface {
	Run(ctx context.Context) error
}

// Deps carries everything a channel needs.
type Deps struct {
	Agent    Asker
	Feedback domain.FeedbackSink
	Summary  string // ingest summary shown on startup, may be empty
}

// New selects a channel implementation by name. Adding a channel means
// adding a case here, not touching call sites.
func New(kind string, deps Deps) (Channel, error) {
	switch kind {
	case "console", "":
		return NewConsole(deps), nil
	case "tui":
		return NewTUI(deps), nil
	default:
		return nil, fmt.Errorf("%w: unknown channel %q", domain.ErrInvalidInput, kind)
	}
}
