package domain

import "errors"

var (
	// ErrLoad marks a source document that could not be read. Ingestion skips
	// the document and continues with the rest.
	ErrLoad = errors.New("document load failed")

	// ErrModelUnavailable indicates the embedding or generation backend could
	// not be initialised or reached.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrDimensionMismatch covers chunk/embedding count mismatches at build
	// time and vector dimension mismatches at build or query time.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexNotLoaded is returned when an index is queried before Build or Load.
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrGeneration indicates the language model failed or returned no usable text.
	ErrGeneration = errors.New("generation failed")

	// ErrModelMismatch indicates a persisted index was built with a different
	// embedding model than the one configured for querying.
	ErrModelMismatch = errors.New("embedding model mismatch")

	ErrNoDocuments = errors.New("no documents loaded")

	// ErrStageOrder is returned when a pipeline stage runs out of sequence.
	ErrStageOrder = errors.New("pipeline stage out of order")
)
