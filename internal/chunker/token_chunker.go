package chunker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"supportrag/internal/domain"
)

// TokenChunker splits text into token-bounded chunks with a fixed token
// overlap between consecutive chunks. Cut points prefer sentence boundaries;
// when no boundary falls inside the window the chunk is cut at the token
// limit so no content is dropped. Splitting is fully deterministic.
type TokenChunker struct {
	maxTokens     int
	overlapTokens int
	sentenceRe    *regexp.Regexp
}

// NewTokenChunker validates the window parameters. overlapTokens must be
// smaller than maxTokens or every step would revisit the same window.
func NewTokenChunker(maxTokens, overlapTokens int) (*TokenChunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive, got %d", domain.ErrInvalidInput, maxTokens)
	}
	if overlapTokens < 0 || overlapTokens >= maxTokens {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidInput, overlapTokens, maxTokens)
	}
	return &TokenChunker{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
		sentenceRe:    regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}, nil
}

// Split chunks text from the given source. Chunk ids encode source and
// position so re-ingesting the same source supersedes its old chunks.
func (c *TokenChunker) Split(text, source string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text for source %q", domain.ErrInvalidInput, source)
	}
	tokens, boundaryAfter := c.tokenize(text)
	var chunks []domain.Chunk
	start := 0
	for pos := 0; ; pos++ {
		end := start + c.maxTokens
		if end >= len(tokens) {
			chunks = append(chunks, newChunk(source, pos, tokens[start:]))
			break
		}
		// Snap back to the last sentence boundary inside the window, but
		// only if the next start would still advance past this one.
		cut := end
		for b := end; b > start+c.overlapTokens; b-- {
			if boundaryAfter[b-1] {
				cut = b
				break
			}
		}
		chunks = append(chunks, newChunk(source, pos, tokens[start:cut]))
		start = cut - c.overlapTokens
	}
	return chunks, nil
}

func newChunk(source string, pos int, tokens []string) domain.Chunk {
	return domain.Chunk{
		ID:       source + ":" + strconv.Itoa(pos),
		Text:     strings.Join(tokens, " "),
		Source:   source,
		Position: pos,
	}
}

// tokenize splits text into whitespace tokens and marks which token ends a
// sentence. Sentence detection reuses the terminal-punctuation rule.
func (c *TokenChunker) tokenize(text string) ([]string, []bool) {
	sentences := c.sentenceRe.FindAllString(text, -1)
	if rest := c.sentenceRe.ReplaceAllString(text, ""); strings.TrimSpace(rest) != "" {
		sentences = append(sentences, rest)
	}
	if len(sentences) == 0 {
		sentences = []string{text}
	}
	var tokens []string
	var boundaryAfter []bool
	for _, s := range sentences {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			continue
		}
		tokens = append(tokens, fields...)
		boundaryAfter = append(boundaryAfter, make([]bool, len(fields))...)
		boundaryAfter[len(tokens)-1] = true
	}
	return tokens, boundaryAfter
}
