// Package vecmath holds the similarity and ranking routines shared by the
// vector index implementations.
package vecmath

import (
	"math"
	"sort"

	"ragagent/internal/domain"
)

// Cosine calculates the cosine similarity between two vectors. Vectors of
// different length or zero norm have similarity 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK scores every entry against query and returns the best k, ordered by
// descending similarity with ties broken by ascending entry ID.
func TopK(query []float32, entries []domain.IndexEntry, k int) []domain.ScoredChunk {
	if k <= 0 || len(entries) == 0 {
		return nil
	}

	scores := make([]domain.ScoredChunk, len(entries))
	for i, entry := range entries {
		scores[i] = domain.ScoredChunk{
			ID:    entry.ID,
			Chunk: entry.Chunk,
			Score: Cosine(query, entry.Vector),
		}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k:k]
}
