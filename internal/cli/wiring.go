package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"ragagent/config"
	"ragagent/internal/adapter/cache"
	"ragagent/internal/adapter/embedding"
	"ragagent/internal/adapter/llm"
	"ragagent/internal/adapter/store"
	"ragagent/internal/agent"
	"ragagent/internal/domain"
	"ragagent/internal/observe"
	"ragagent/internal/port"
	"ragagent/internal/usecase"
)

// openIndex opens the bolt index in the configured persist directory.
func openIndex(cfg *config.Config, create bool) (*store.BoltVectorIndex, port.Embedder, error) {
	persistDir := cfg.ResolvePersistDir(rootDir)
	dbPath := config.IndexDBPath(persistDir)

	if create {
		if err := config.EnsureDir(persistDir); err != nil {
			return nil, nil, fmt.Errorf("failed to create %s: %w", persistDir, err)
		}
	} else if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: no index at %s, run 'ragagent ingest' first", domain.ErrIndexNotLoaded, dbPath)
	}

	emb, err := embedding.FromConfig(cfg.Embedding)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	idx, err := store.Open(dbPath, emb)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, emb, nil
}

// newAgent loads the persisted index and wires the pipeline around it. The
// query cache is used when withCache is set and retrieve.cache_size > 0.
func newAgent(ctx context.Context, cfg *config.Config, withCache bool) (*agent.Agent, func() error, error) {
	idx, _, err := openIndex(cfg, false)
	if err != nil {
		return nil, nil, err
	}

	var vi port.VectorIndex = idx
	if withCache && cfg.Retrieve.CacheSize > 0 {
		vi = cache.NewCachedIndex(idx, cache.NewQueryCache(cfg.Retrieve.CacheSize, time.Duration(cfg.Retrieve.CacheTTLSecs)*time.Second))
	}

	if err := vi.Load(ctx); err != nil {
		idx.Close()
		return nil, nil, fmt.Errorf("failed to load index: %w", err)
	}

	sink := observe.NewLogSink(logger)
	fp, _ := vi.Fingerprint()
	sink.Emit(ctx, observe.IndexLoaded{Entries: vi.Count(), Model: fp.Model})

	model, err := llm.FromConfig(cfg.LLM)
	if err != nil {
		idx.Close()
		return nil, nil, fmt.Errorf("failed to create language model: %w", err)
	}

	a := agent.New(vi,
		usecase.NewAnswerUseCase(model, time.Duration(cfg.LLM.TimeoutSecs)*time.Second),
		usecase.NewRelevanceScorer(cfg.Reflect.RelevanceThreshold),
		agent.WithTopK(cfg.Retrieve.TopK),
		agent.WithSink(sink),
		agent.WithLogger(logger),
	)
	return a, idx.Close, nil
}
