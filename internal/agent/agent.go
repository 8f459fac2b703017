// Package agent orchestrates the query pipeline: retrieval, grounding,
// generation. The agent is stateless between queries; per-query state lives
// on the stack of Ask.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"supportrag/internal/domain"
	"supportrag/internal/prompt"
)

// State names the phases a query moves through.
type State string

const (
	StateReceived   State = "received"
	StateRetrieving State = "retrieving"
	StateGrounding  State = "grounding"
	StateGenerating State = "generating"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// DefaultTopK is the retrieval depth when the config leaves it unset.
const DefaultTopK = 3

// Agent answers queries over the ingested knowledge base.
type Agent struct {
	searcher  domain.Searcher
	builder   *prompt.Builder
	generator domain.Generator
	topK      int
	logger    *slog.Logger
}

func New(searcher domain.Searcher, builder *prompt.Builder, generator domain.Generator, topK int, logger *slog.Logger) *Agent {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Agent{
		searcher:  searcher,
		builder:   builder,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// Ask runs one query through retrieval, grounding and generation. A
// retrieval failure aborts the query: generating without context on a
// broken retriever would produce answers that look grounded but are not.
// Empty retrieval results still generate, with the explicit no-context
// prompt.
func (a *Agent) Ask(ctx context.Context, query string) (domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	log := a.logger.With("query_len", len(query))
	log.Debug("query state", "state", StateReceived)

	log.Debug("query state", "state", StateRetrieving)
	results, err := a.searcher.Search(ctx, query, a.topK)
	if err != nil {
		log.Error("retrieval failed", "state", StateFailed, "error", err)
		return domain.Answer{}, fmt.Errorf("retrieving context: %w", err)
	}

	log.Debug("query state", "state", StateGrounding, "passages", len(results))
	p := a.builder.Build(query, results)

	log.Debug("query state", "state", StateGenerating)
	text, provider, err := a.generator.Generate(ctx, p)
	if err != nil {
		log.Error("generation failed", "state", StateFailed, "error", err)
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			return domain.Answer{}, err
		}
		return domain.Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	log.Debug("query state", "state", StateCompleted, "provider", provider)
	return domain.Answer{Text: text, Provider: provider, Retrieved: results}, nil
}
