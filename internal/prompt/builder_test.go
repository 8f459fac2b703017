package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/domain"
)

func result(text string, score float64) domain.SearchResult {
	return domain.SearchResult{Chunk: domain.Chunk{Text: text}, Score: score}
}

func TestBuildWithoutResultsSignalsNoContext(t *testing.T) {
	b := NewBuilder(1000)
	p := b.Build("what is the refund policy?", nil)

	assert.Empty(t, p.Passages)
	assert.Equal(t, "what is the refund policy?", p.Query)
	assert.Contains(t, p.System, "No relevant documents were found")
	assert.Contains(t, Render(p), "No relevant documents found.")
}

func TestBuildKeepsDescendingOrder(t *testing.T) {
	b := NewBuilder(1000)
	p := b.Build("q", []domain.SearchResult{
		result("best passage", 0.9),
		result("second passage", 0.5),
	})
	require.Len(t, p.Passages, 2)
	assert.Equal(t, "best passage", p.Passages[0])
	assert.Equal(t, "second passage", p.Passages[1])
	assert.Contains(t, p.System, "only the context passages")
}

func TestBuildTruncatesLastPassageAtBudget(t *testing.T) {
	b := NewBuilder(15)
	p := b.Build("q", []domain.SearchResult{
		result("0123456789", 0.9), // fits, 10 chars
		result("abcdefghij", 0.5), // truncated to the remaining 5
		result("never included", 0.1),
	})
	require.Len(t, p.Passages, 2)
	assert.Equal(t, "0123456789", p.Passages[0])
	assert.Equal(t, "abcde", p.Passages[1])
}

func TestBuildTruncationIsRuneSafe(t *testing.T) {
	b := NewBuilder(5)
	p := b.Build("q", []domain.SearchResult{result("日本語テキスト", 0.9)})
	require.Len(t, p.Passages, 1)
	assert.True(t, len(p.Passages[0]) <= 5)
	assert.True(t, strings.HasPrefix("日本語テキスト", p.Passages[0]))
}

func TestRenderContainsQueryAndDividers(t *testing.T) {
	b := NewBuilder(1000)
	p := b.Build("how do I reset my password?", []domain.SearchResult{
		result("first", 0.9),
		result("second", 0.8),
	})
	text := Render(p)
	assert.Contains(t, text, "first\n---\nsecond")
	assert.Contains(t, text, "Question: how do I reset my password?")
	assert.True(t, strings.HasSuffix(text, "Answer:"))
}
