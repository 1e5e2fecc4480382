package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"ragagent/internal/adapter/analyzer"
	"ragagent/internal/port"
)

var _ port.Embedder = (*HashEmbedder)(nil)

// HashEmbedder is a deterministic bag-of-words embedder. Tokens are hashed
// into a fixed number of buckets and the counts are L2-normalised, so texts
// sharing words have a higher cosine similarity. It needs no model download
// and is used for offline indexes and tests.
type HashEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embedOne(text)
	}
	return embeddings, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)

	tokens := e.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		// stopword-only or symbol-only text still gets a stable, non-zero vector
		if trimmed := strings.ToLower(strings.TrimSpace(text)); trimmed != "" {
			tokens = []string{trimmed}
		}
	}

	for _, tok := range tokens {
		vec[e.bucket(tok)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *HashEmbedder) bucket(token string) int {
	h := fnv.New32a()
	h.Write([]byte(token))
	return int(h.Sum32() % uint32(e.dimension))
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-bow-%d", e.dimension)
}
