package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ragagent/internal/domain"
	"ragagent/internal/observe"
	"ragagent/internal/port"
)

// ProgressFunc is called after each embedded batch.
type ProgressFunc func(done, total int)

// IngestUseCase loads, chunks and embeds a document directory and rebuilds
// the vector index from it.
type IngestUseCase struct {
	loader    port.DocumentLoader
	chunker   port.Chunker
	embedder  port.Embedder
	index     port.VectorIndex
	batchSize int
	sink      observe.Sink
	logger    *slog.Logger
}

func NewIngestUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
	batchSize int,
	sink observe.Sink,
	logger *slog.Logger,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 64
	}
	if sink == nil {
		sink = observe.NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		loader:    loader,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
		sink:      sink,
		logger:    logger,
	}
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	DocumentsLoaded int
	DocumentsFailed int
	Chunks          int
	Dimension       int
	Model           string
	Errors          []error
	Duration        time.Duration
}

// Ingest rebuilds the index from the documents under root. Documents that
// fail to load are reported in the result and skipped. If nothing loads,
// or embedding fails, the existing index is left untouched.
func (u *IngestUseCase) Ingest(ctx context.Context, root string, progress ProgressFunc) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{
		Dimension: u.embedder.Dimension(),
		Model:     u.embedder.ModelName(),
	}

	docs, loadErrs := u.loader.Load(root)
	result.DocumentsLoaded = len(docs)
	result.DocumentsFailed = len(loadErrs)
	result.Errors = loadErrs
	for _, err := range loadErrs {
		u.logger.Warn("skipping document", "error", err)
	}

	if len(docs) == 0 {
		return result, fmt.Errorf("%w in %s", domain.ErrNoDocuments, root)
	}

	chunks := u.chunker.ChunkAll(docs)
	result.Chunks = len(chunks)
	u.logger.Debug("chunked documents", "documents", len(docs), "chunks", len(chunks))

	embeddings, err := u.embedAll(ctx, chunks, progress)
	if err != nil {
		return result, fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := u.index.Build(ctx, chunks, embeddings); err != nil {
		return result, fmt.Errorf("failed to build index: %w", err)
	}

	result.Duration = time.Since(start)
	u.sink.Emit(ctx, observe.IndexBuilt{
		Entries:   len(chunks),
		Model:     result.Model,
		Dimension: result.Dimension,
		Duration:  result.Duration,
	})
	return result, nil
}

func (u *IngestUseCase) embedAll(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) ([][]float32, error) {
	total := len(chunks)
	embeddings := make([][]float32, 0, total)

	for i := 0; i < total; i += u.batchSize {
		end := i + u.batchSize
		if end > total {
			end = total
		}

		texts := make([]string, end-i)
		for j, c := range chunks[i:end] {
			texts[j] = c.Text
		}

		vecs, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", domain.ErrDimensionMismatch, len(vecs), len(texts))
		}
		embeddings = append(embeddings, vecs...)

		u.sink.Emit(ctx, observe.ChunksEmbedded{N: len(texts), Done: end, Total: total})
		if progress != nil {
			progress(end, total)
		}
	}

	return embeddings, nil
}
