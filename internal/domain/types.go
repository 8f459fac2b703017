package domain

import "time"

// Chunk is a bounded passage of source text indexed as one retrievable unit.
// Chunks are immutable once created; the id encodes source and position so
// that re-ingesting a document supersedes its previous chunks.
type Chunk struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Source   string `json:"source"`
	Position int    `json:"position"`
}

// IndexEntry pairs a chunk with its embedding vector. Entries are owned by
// the vector index; the index is the single writer.
type IndexEntry struct {
	Chunk  Chunk     `json:"chunk"`
	Vector []float64 `json:"vector"`
}

// SearchResult is a matching chunk with a relevance score. Scores are cosine
// similarities (higher is more relevant); results from different indexes are
// not comparable.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Prompt is the grounded input handed to the LLM client. It is a value
// object assembled per query and never persisted.
type Prompt struct {
	System   string
	Passages []string
	Query    string
}

// Answer is the terminal result of a completed query: the generated text,
// the provider that produced it, and the retrieved passages for
// caller-side citation.
type Answer struct {
	Text      string
	Provider  string
	Retrieved []SearchResult
}

// FeedbackRecord is one append-only entry in the feedback log.
type FeedbackRecord struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
