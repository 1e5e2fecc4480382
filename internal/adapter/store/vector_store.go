package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"ragagent/internal/domain"
	"ragagent/internal/port"
	"ragagent/internal/vecmath"
)

var _ port.VectorIndex = (*BoltVectorIndex)(nil)

// BoltVectorIndex implements VectorIndex using BoltDB for persistence.
// Entries are held in memory after Build or Load and searched brute force.
type BoltVectorIndex struct {
	db       *bbolt.DB
	path     string
	embedder port.Embedder

	mu          sync.RWMutex
	entries     []domain.IndexEntry
	fingerprint domain.Fingerprint
	loaded      bool

	now func() time.Time
}

type storedEntry struct {
	Vector   []float32 `json:"v"`
	Text     string    `json:"t"`
	DocID    string    `json:"doc,omitempty"`
	Source   string    `json:"src,omitempty"`
	Position int       `json:"pos"`
}

// Open opens the index file at path. The index is empty until Build or Load.
func Open(path string, embedder port.Embedder) (*BoltVectorIndex, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &BoltVectorIndex{
		db:       db,
		path:     path,
		embedder: embedder,
		now:      time.Now,
	}, nil
}

func (s *BoltVectorIndex) Path() string {
	return s.path
}

func (s *BoltVectorIndex) Close() error {
	return s.db.Close()
}

// Build replaces the stored index with chunks and their embeddings. Entries
// and fingerprint are written in a single transaction, so a failed build
// leaves the previous index intact.
func (s *BoltVectorIndex) Build(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
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
		entries[i] = domain.IndexEntry{ID: i, Vector: embeddings[i], Chunk: chunks[i]}
	}
	fp := domain.Fingerprint{
		SchemaVersion: CurrentSchemaVersion,
		Model:         s.embedder.ModelName(),
		Dimension:     dim,
		Entries:       len(entries),
		BuiltAt:       s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		eb, err := resetBucket(tx, bucketEntries)
		if err != nil {
			return err
		}
		mb, err := resetBucket(tx, bucketMeta)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			data, err := json.Marshal(storedEntry{
				Vector:   entry.Vector,
				Text:     entry.Chunk.Text,
				DocID:    entry.Chunk.DocID,
				Source:   entry.Chunk.Source,
				Position: entry.Chunk.Position,
			})
			if err != nil {
				return err
			}
			if err := eb.Put(entryKey(entry.ID), data); err != nil {
				return err
			}
		}

		return writeFingerprint(mb, fp)
	})
	if err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	s.entries = entries
	s.fingerprint = fp
	s.loaded = true
	return nil
}

// Load reads a previously built index into memory and checks that it was
// built with the configured embedder.
func (s *BoltVectorIndex) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		fp      *domain.Fingerprint
		entries []domain.IndexEntry
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		fp, err = readFingerprint(tx)
		if err != nil || fp == nil {
			return err
		}

		b := tx.Bucket(bucketEntries)
		if b == nil {
			return nil
		}
		entries = make([]domain.IndexEntry, 0, fp.Entries)
		return b.ForEach(func(k, v []byte) error {
			id, err := decodeEntryKey(k)
			if err != nil {
				return err
			}
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt entry %d: %w", id, err)
			}
			entries = append(entries, domain.IndexEntry{
				ID:     id,
				Vector: stored.Vector,
				Chunk: domain.Chunk{
					DocID:    stored.DocID,
					Source:   stored.Source,
					Position: stored.Position,
					Text:     stored.Text,
				},
			})
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	if fp == nil {
		return fmt.Errorf("%w: no index found at %s", domain.ErrIndexNotLoaded, s.path)
	}

	if res := CheckCompatibility(*fp, s.embedder); !res.Compatible {
		return fmt.Errorf("%w: %s", domain.ErrModelMismatch, res.Reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.fingerprint = *fp
	s.loaded = true
	return nil
}

// Query embeds text and returns the topK most similar entries.
func (s *BoltVectorIndex) Query(ctx context.Context, text string, topK int) ([]domain.ScoredChunk, error) {
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

// StoredFingerprint reads the fingerprint on disk without loading entries or
// checking compatibility. It returns nil if no index has been built.
func (s *BoltVectorIndex) StoredFingerprint() (*domain.Fingerprint, error) {
	var fp *domain.Fingerprint
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		fp, err = readFingerprint(tx)
		return err
	})
	return fp, err
}

func (s *BoltVectorIndex) Fingerprint() (domain.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return domain.Fingerprint{}, domain.ErrIndexNotLoaded
	}
	return s.fingerprint, nil
}

// Count returns the number of loaded entries.
func (s *BoltVectorIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
