package port

import (
	"context"

	"ragagent/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex stores chunk embeddings and answers nearest-neighbour queries.
type VectorIndex interface {
	// Build replaces the index contents with the given chunks. Entry IDs are
	// assigned 0..N-1 in input order.
	Build(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error

	// Load reopens a previously built index.
	Load(ctx context.Context) error

	// Query embeds text and returns up to topK entries by descending similarity.
	Query(ctx context.Context, text string, topK int) ([]domain.ScoredChunk, error)

	// Fingerprint describes the embedding space of the loaded index.
	Fingerprint() (domain.Fingerprint, error)

	// Count returns the number of loaded entries.
	Count() int
}
