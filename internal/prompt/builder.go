// Package prompt assembles grounded prompts from retrieved passages.
package prompt

import (
	"strings"
	"unicode/utf8"

	"supportrag/internal/domain"
)

const (
	// systemGrounded instructs the model to stay inside the retrieved
	// context.
	systemGrounded = "You are a support assistant. Answer the user's question using only the context passages below. If the context doesn't contain relevant information, say that you cannot answer based on the available information."

	// systemNoContext is used when retrieval returned nothing, so the model
	// declines instead of hallucinating an answer that looks grounded.
	systemNoContext = "You are a support assistant. No relevant documents were found for this question. Tell the user you cannot answer based on the available information, and do not invent facts."
)

// DefaultMaxContextChars bounds the concatenated context passed to the
// model.
const DefaultMaxContextChars = 6000

// Builder composes prompts under a fixed context budget. Build is a pure
// function of its inputs and never fails.
type Builder struct {
	maxContextChars int
}

func NewBuilder(maxContextChars int) *Builder {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &Builder{maxContextChars: maxContextChars}
}

// Build concatenates passages in the given (descending score) order until
// the budget is reached. The last included passage is truncated rather than
// dropped, so the budget is used fully.
func (b *Builder) Build(query string, results []domain.SearchResult) domain.Prompt {
	if len(results) == 0 {
		return domain.Prompt{System: systemNoContext, Query: query}
	}
	var passages []string
	remaining := b.maxContextChars
	for _, r := range results {
		if remaining <= 0 {
			break
		}
		text := r.Chunk.Text
		if len(text) > remaining {
			cut := remaining
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		if text == "" {
			break
		}
		passages = append(passages, text)
		remaining -= len(text)
	}
	return domain.Prompt{System: systemGrounded, Passages: passages, Query: query}
}

// Render flattens a prompt into the single text block sent to completion
// providers. Passages are separated by "---" dividers.
func Render(p domain.Prompt) string {
	var sb strings.Builder
	sb.WriteString(p.System)
	sb.WriteString("\n\nContext:\n---\n")
	if len(p.Passages) == 0 {
		sb.WriteString("No relevant documents found.")
	} else {
		sb.WriteString(strings.Join(p.Passages, "\n---\n"))
	}
	sb.WriteString("\n---\n\nQuestion: ")
	sb.WriteString(p.Query)
	sb.WriteString("\nAnswer:")
	return sb.String()
}
