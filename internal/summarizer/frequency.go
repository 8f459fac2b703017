// Package summarizer produces short extractive summaries of ingested text,
// shown to the operator after an ingest run.
package summarizer

import (
	"math"
	"sort"
	"strings"

	"supportrag/internal/textutil"
)

// Frequency ranks sentences by normalized token frequency and returns the
// top sentences in their original order.
type Frequency struct{}

func NewFrequency() *Frequency { return &Frequency{} }

func (s *Frequency) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range textutil.Tokenize(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k := range freq {
			freq[k] /= maxF
		}
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, sent := range sentences {
		tokens := textutil.Tokenize(sent)
		score := 0.0
		for _, tok := range tokens {
			score += freq[tok]
		}
		// Length normalization keeps long sentences from dominating.
		if n := float64(len(tokens)); n > 0 {
			score /= math.Sqrt(n)
		}
		scores[i] = ranked{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}
