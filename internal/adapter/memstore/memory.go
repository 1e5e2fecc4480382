package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ragagent/internal/domain"
	"ragagent/internal/port"
	"ragagent/internal/vecmath"
)

var _ port.VectorIndex = (*Index)(nil)

// Index is a VectorIndex that lives only in memory. Load succeeds once the
// index has been built in this process.
type Index struct {
	embedder port.Embedder

	mu          sync.RWMutex
	entries     []domain.IndexEntry
	fingerprint domain.Fingerprint
	built       bool
	loaded      bool
}

func NewIndex(embedder port.Embedder) *Index {
	return &Index{embedder: embedder}
}

func (s *Index) Build(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", domain.ErrDimensionMismatch, len(chunks), len(embeddings))
	}
	dim := s.embedder.Dimension()
	for i, vec := range embeddings {
		if len(vec) != dim {
			return fmt.Errorf("%w: embedding %d has dimension %d, expected %d", domain.ErrDimensionMismatch, i, len(vec), dim)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		entries[i] = domain.IndexEntry{ID: i, Vector: vec, Chunk: chunks[i]}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.fingerprint = domain.Fingerprint{
		SchemaVersion: 1,
		Model:         s.embedder.ModelName(),
		Dimension:     dim,
		Entries:       len(entries),
		BuiltAt:       time.Now().UTC(),
	}
	s.built = true
	s.loaded = true
	return nil
}

func (s *Index) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.built {
		return fmt.Errorf("%w: in-memory index has not been built", domain.ErrIndexNotLoaded)
	}
	s.loaded = true
	return nil
}

func (s *Index) Query(ctx context.Context, text string, topK int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	loaded, dim := s.loaded, s.fingerprint.Dimension
	s.mu.RUnlock()

	if !loaded {
		return nil, domain.ErrIndexNotLoaded
	}
	if topK <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != dim {
		return nil, fmt.Errorf("%w: query embedding does not match index dimension %d", domain.ErrDimensionMismatch, dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	results := vecmath.TopK(vecs[0], s.entries, topK)
	if results == nil {
		results = []domain.ScoredChunk{}
	}
	return results, nil
}

func (s *Index) Fingerprint() (domain.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return domain.Fingerprint{}, domain.ErrIndexNotLoaded
	}
	return s.fingerprint, nil
}

func (s *Index) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
