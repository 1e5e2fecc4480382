package usecase

import (
	"strings"

	"ragagent/internal/domain"
)

// DefaultRelevanceThreshold is the overlap ratio an answer must exceed to be
// labelled relevant.
const DefaultRelevanceThreshold = 0.12

// RelevanceScorer is a lexical self-check: the share of distinct question
// words that also appear in the answer.
type RelevanceScorer struct {
	threshold float64
}

func NewRelevanceScorer(threshold float64) *RelevanceScorer {
	if threshold < 0 || threshold > 1 {
		threshold = DefaultRelevanceThreshold
	}
	return &RelevanceScorer{threshold: threshold}
}

func (s *RelevanceScorer) Threshold() float64 {
	return s.threshold
}

func (s *RelevanceScorer) Score(question, answer string) domain.Reflection {
	q := wordSet(question)
	a := wordSet(answer)

	overlap := 0
	for w := range q {
		if _, ok := a[w]; ok {
			overlap++
		}
	}

	denom := len(q)
	if denom < 1 {
		denom = 1
	}
	score := float64(overlap) / float64(denom)

	r := domain.Reflection{Score: score, Relevant: score > s.threshold}
	if r.Relevant {
		r.Label = domain.LabelRelevant
	} else {
		r.Label = domain.LabelLowRelevance
	}
	return r
}

// wordSet lower-cases and splits on whitespace only; punctuation stays
// attached to words.
func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
