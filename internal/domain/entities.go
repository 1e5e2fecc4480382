package domain

import (
	"fmt"
	"time"
)

// Document is a loaded source file. It is never modified after loading.
type Document struct {
	ID      string
	Path    string
	Text    string
	ModTime time.Time
}

// Chunk is a contiguous text window taken from exactly one document.
type Chunk struct {
	DocID    string
	Source   string
	Position int
	Text     string
}

// IndexEntry is a single row of the vector index.
type IndexEntry struct {
	ID     int
	Vector []float32
	Chunk  Chunk
}

type ScoredChunk struct {
	ID    int
	Chunk Chunk
	Score float64
}

// Fingerprint identifies the embedding space an index was built with.
type Fingerprint struct {
	SchemaVersion int       `json:"schema_version"`
	Model         string    `json:"model"`
	Dimension     int       `json:"dimension"`
	Entries       int       `json:"entries"`
	BuiltAt       time.Time `json:"built_at"`
}

const (
	LabelRelevant     = "relevant"
	LabelLowRelevance = "low relevance"
)

// Reflection is the outcome of the relevance self-check.
type Reflection struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Relevant bool    `json:"relevant"`
}

func (r Reflection) String() string {
	if r.Relevant {
		return fmt.Sprintf("RELEVANT (score=%.2f)", r.Score)
	}
	return fmt.Sprintf("LOW RELEVANCE (score=%.2f)", r.Score)
}
