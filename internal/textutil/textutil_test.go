package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeLowercasesAndDropsStopwords(t *testing.T) {
	tokens := Tokenize("The Quick BROWN fox jumps over the lazy dog.")
	assert.Equal(t, []string{"quick", "brown", "fox", "jumps", "lazy", "dog"}, tokens)
}

func TestTokenizeKeepsApostrophes(t *testing.T) {
	tokens := Tokenize("it doesn't work")
	assert.Equal(t, []string{"doesn't", "work"}, tokens)
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   \n\t"))
	assert.Empty(t, Tokenize("the and of"))
}

func TestSentencesSplitsOnTerminalPunctuation(t *testing.T) {
	got := Sentences("First one. Second one! Third one?")
	assert.Equal(t, []string{"First one.", "Second one!", "Third one?"}, got)
}

func TestSentencesWithoutPunctuation(t *testing.T) {
	assert.Equal(t, []string{"no punctuation here"}, Sentences("  no punctuation here  "))
	assert.Nil(t, Sentences("   "))
}
