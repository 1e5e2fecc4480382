package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragagent/internal/adapter/embedding"
	"ragagent/internal/domain"
)

func TestIndex_LoadBeforeBuild(t *testing.T) {
	idx := NewIndex(embedding.NewHashEmbedder(16))

	assert.ErrorIs(t, idx.Load(context.Background()), domain.ErrIndexNotLoaded)
	_, err := idx.Query(context.Background(), "sky", 1)
	assert.ErrorIs(t, err, domain.ErrIndexNotLoaded)
}

func TestIndex_BuildQueryLoad(t *testing.T) {
	emb := embedding.NewHashEmbedder(384)
	idx := NewIndex(emb)
	texts := []string{"The sky is blue.", "Grass is green."}

	vecs, err := emb.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.NoError(t, idx.Build(context.Background(), []domain.Chunk{{Text: texts[0]}, {Text: texts[1]}}, vecs))
	require.NoError(t, idx.Load(context.Background()))

	// mutating the caller's slice must not affect the index
	vecs[0][0] = 42

	results, err := idx.Query(context.Background(), "What color is the sky?", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "The sky is blue.", results[0].Chunk.Text)

	fp, err := idx.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, 2, fp.Entries)
	assert.Equal(t, emb.ModelName(), fp.Model)
}

func TestIndex_BuildValidation(t *testing.T) {
	idx := NewIndex(embedding.NewHashEmbedder(4))

	err := idx.Build(context.Background(), []domain.Chunk{{Text: "a"}}, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = idx.Build(context.Background(), []domain.Chunk{{Text: "a"}}, [][]float32{{1, 2}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Zero(t, idx.Count())
}

func TestIndex_NonPositiveTopK(t *testing.T) {
	emb := embedding.NewHashEmbedder(8)
	idx := NewIndex(emb)
	vecs, _ := emb.Embed(context.Background(), []string{"x"})
	require.NoError(t, idx.Build(context.Background(), []domain.Chunk{{Text: "x"}}, vecs))

	results, err := idx.Query(context.Background(), "x", -1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
