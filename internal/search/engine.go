// Package search wraps the vector index behind a string-query interface.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"supportrag/internal/domain"
)

// Engine embeds a query and delegates to the vector index. Embedding and
// index errors pass through unchanged so callers can branch on the
// sentinels.
type Engine struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	logger   *slog.Logger
}

func NewEngine(embedder domain.Embedder, index domain.VectorIndex, logger *slog.Logger) *Engine {
	return &Engine{embedder: embedder, index: index, logger: logger}
}

// Search returns the top-k passages for the query, descending by score.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := e.index.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("search completed", "query_len", len(query), "k", k, "results", len(results))
	return results, nil
}
