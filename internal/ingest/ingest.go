// Package ingest turns plain-text documents into indexed chunks. How text
// was produced (PDF extraction, scraping) is a collaborator concern; this
// service only consumes text plus a source identifier.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"supportrag/internal/domain"
)

// Report summarizes one ingest run.
type Report struct {
	Documents int
	Chunks    int
	Summary   string
}

// Service runs the write path: chunk, embed, insert.
type Service struct {
	chunker    domain.Chunker
	embedder   domain.Embedder
	index      domain.VectorIndex
	summarizer domain.Summarizer
	logger     *slog.Logger
}

func NewService(chunker domain.Chunker, embedder domain.Embedder, index domain.VectorIndex, summarizer domain.Summarizer, logger *slog.Logger) *Service {
	return &Service{
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		summarizer: summarizer,
		logger:     logger,
	}
}

// IngestText indexes a single passage of raw text under the given source
// id. Re-ingesting the same source supersedes its previous chunks.
func (s *Service) IngestText(ctx context.Context, text, source string) (int, error) {
	chunks, err := s.chunker.Split(text, source)
	if err != nil {
		return 0, err
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", source, err)
	}
	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexEntry{Chunk: chunks[i], Vector: vectors[i]}
	}
	if err := s.index.Insert(ctx, entries); err != nil {
		return 0, err
	}
	s.logger.Info("ingested source", "source", source, "chunks", len(chunks))
	return len(chunks), nil
}

// IngestFiles reads the given paths (globs allowed, .txt and .md files) and
// indexes each file as one source. Returns a report with an extractive
// summary of everything ingested.
func (s *Service) IngestFiles(ctx context.Context, patterns []string) (Report, error) {
	paths, err := expand(patterns)
	if err != nil {
		return Report{}, err
	}
	if len(paths) == 0 {
		return Report{}, fmt.Errorf("%w: no .txt or .md documents found", domain.ErrInvalidInput)
	}
	var report Report
	var corpus strings.Builder
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return Report{}, err
		}
		n, err := s.IngestText(ctx, string(data), path)
		if err != nil {
			return Report{}, err
		}
		report.Documents++
		report.Chunks += n
		corpus.WriteString("\n")
		corpus.Write(data)
	}
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(corpus.String(), 5)
		if err != nil {
			s.logger.Warn("summary failed", "error", err)
		} else {
			report.Summary = summary
		}
	}
	return report, nil
}

func expand(patterns []string) ([]string, error) {
	var paths []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q", domain.ErrInvalidInput, p)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			switch strings.ToLower(filepath.Ext(m)) {
			case ".txt", ".md":
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}
