package domain

import "context"

// Embedder converts free text into a fixed-dimension vector representation.
// Implementations are pure functions of the input text and model identity.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits raw text into overlapping passages suitable for indexing.
type Chunker interface {
	Split(text, source string) ([]Chunk, error)
}

// VectorIndex stores entries and answers k-nearest-neighbor queries.
// Insert supersedes by chunk id; Search orders by descending score with
// ties broken by insertion order.
type VectorIndex interface {
	Insert(ctx context.Context, entries []IndexEntry) error
	Search(ctx context.Context, vector []float64, k int) ([]SearchResult, error)
	Size() int
	Persist(path string) error
}

// Searcher embeds a query string and retrieves the top-k passages.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// Generator produces text for a grounded prompt, handling retry and
// provider failover internally. The returned provider name identifies the
// backend that succeeded.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (text, provider string, err error)
}

// FeedbackSink records query/answer/rating tuples. Store failures degrade
// to warnings; only invalid records are rejected.
type FeedbackSink interface {
	Log(record FeedbackRecord) error
}

// Summarizer produces a brief extractive summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
