package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/domain"
	"supportrag/internal/index/memory"
	"supportrag/internal/logging"
)

type stubEmbedder struct {
	vector []float64
	err    error
}

func (s *stubEmbedder) Name() string   { return "stub" }
func (s *stubEmbedder) Dimension() int { return len(s.vector) }
func (s *stubEmbedder) Embed(context.Context, string) ([]float64, error) {
	return s.vector, s.err
}
func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		v, err := s.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestSearchRejectsBadK(t *testing.T) {
	idx, err := memory.New(2)
	require.NoError(t, err)
	engine := NewEngine(&stubEmbedder{vector: []float64{1, 0}}, idx, logging.NewNop())

	_, err = engine.Search(context.Background(), "hello", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = engine.Search(context.Background(), "hello", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	idx, err := memory.New(2)
	require.NoError(t, err)
	engine := NewEngine(&stubEmbedder{vector: []float64{1, 0}}, idx, logging.NewNop())

	_, err = engine.Search(context.Background(), "  ", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchPropagatesEmbeddingFailure(t *testing.T) {
	idx, err := memory.New(2)
	require.NoError(t, err)
	cause := errors.New("model offline")
	emb := &stubEmbedder{err: errors.Join(domain.ErrEmbeddingUnavailable, cause)}
	engine := NewEngine(emb, idx, logging.NewNop())

	_, err = engine.Search(context.Background(), "hello", 3)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, cause, "cause chain is preserved, not swallowed")
}

func TestSearchPropagatesDimensionMismatch(t *testing.T) {
	idx, err := memory.New(3)
	require.NoError(t, err)
	engine := NewEngine(&stubEmbedder{vector: []float64{1, 0}}, idx, logging.NewNop())

	_, err = engine.Search(context.Background(), "hello", 3)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearchReturnsRankedResults(t *testing.T) {
	idx, err := memory.New(2)
	require.NoError(t, err)
	require.NoError(t, idx.Insert(context.Background(), []domain.IndexEntry{
		{Chunk: domain.Chunk{ID: "a"}, Vector: []float64{0, 1}},
		{Chunk: domain.Chunk{ID: "b"}, Vector: []float64{1, 0}},
	}))
	engine := NewEngine(&stubEmbedder{vector: []float64{1, 0}}, idx, logging.NewNop())

	results, err := engine.Search(context.Background(), "hello", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Chunk.ID)
}
