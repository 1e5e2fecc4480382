package agent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragagent/internal/adapter/embedding"
	"ragagent/internal/adapter/memstore"
	"ragagent/internal/domain"
	"ragagent/internal/observe"
	"ragagent/internal/usecase"
)

type scriptedLLM struct {
	calls int32
	reply string
	err   error
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&l.calls, 1)
	return l.reply, l.err
}

func (l *scriptedLLM) ModelName() string { return "scripted" }

func newIndex(t *testing.T, texts ...string) *memstore.Index {
	t.Helper()
	emb := embedding.NewHashEmbedder(384)
	idx := memstore.NewIndex(emb)

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{DocID: text, Source: "data/doc.txt", Position: i, Text: text}
	}
	vecs, err := emb.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.NoError(t, idx.Build(context.Background(), chunks, vecs))
	return idx
}

func newAgent(idx *memstore.Index, llm *scriptedLLM, opts ...Option) *Agent {
	return New(idx,
		usecase.NewAnswerUseCase(llm, time.Second),
		usecase.NewRelevanceScorer(usecase.DefaultRelevanceThreshold),
		opts...)
}

func TestAgent_SkyGrassEndToEnd(t *testing.T) {
	idx := newIndex(t, "The sky is blue.", "Grass is green.")
	llm := &scriptedLLM{reply: "The sky is blue."}
	rec := &observe.Recorder{}
	a := newAgent(idx, llm, WithTopK(2), WithSink(rec))

	res, err := a.Ask(context.Background(), "What color is the sky?")
	require.NoError(t, err)

	require.Len(t, res.Sources, 2)
	assert.Equal(t, "The sky is blue.", res.Sources[0].Text)
	assert.Equal(t, 0, res.Sources[0].ID)
	assert.Equal(t, "data/doc.txt", res.Sources[0].Source)
	assert.Greater(t, res.Sources[0].Score, res.Sources[1].Score)

	assert.Equal(t, "The sky is blue.", res.Answer)
	assert.True(t, res.Reflection.Relevant)
	assert.InDelta(t, 0.4, res.Reflection.Score, 1e-9)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Error)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&llm.calls))
	assert.Equal(t, []string{"query_completed", "answer_generated"}, rec.Names())
}

func TestAgent_FallbackOnEmptyIndex(t *testing.T) {
	idx := newIndex(t)
	llm := &scriptedLLM{reply: "unused"}

	res, err := newAgent(idx, llm).Ask(context.Background(), "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, usecase.FallbackAnswer, res.Answer)
	assert.Empty(t, res.Sources)
	assert.False(t, res.Reflection.Relevant)
	assert.Equal(t, int32(0), atomic.LoadInt32(&llm.calls))
}

func TestAgent_GenerationFailureIsDegraded(t *testing.T) {
	idx := newIndex(t, "The sky is blue.")
	llm := &scriptedLLM{err: errors.New("backend unreachable")}
	rec := &observe.Recorder{}

	res, err := newAgent(idx, llm, WithSink(rec)).Ask(context.Background(), "What color is the sky?")
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Answer)
	assert.Contains(t, res.Error, "backend unreachable")
	assert.Equal(t, domain.LabelLowRelevance, res.Reflection.Label)
	assert.Zero(t, res.Reflection.Score)

	events := rec.Events()
	require.Len(t, events, 2)
	assert.ErrorIs(t, events[1].(observe.AnswerGenerated).Err, domain.ErrGeneration)
}

func TestAgent_IndexNotLoaded(t *testing.T) {
	idx := memstore.NewIndex(embedding.NewHashEmbedder(16))

	_, err := newAgent(idx, &scriptedLLM{}).Ask(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexNotLoaded)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "retrieve", runErr.Stage)
	assert.NotEmpty(t, runErr.RunID)
}

func TestAgent_EmptyQuestion(t *testing.T) {
	idx := newIndex(t, "The sky is blue.")
	_, err := newAgent(idx, &scriptedLLM{}).Ask(context.Background(), "   ")
	assert.Error(t, err)
}

func TestAgent_StageOrder(t *testing.T) {
	idx := newIndex(t, "The sky is blue.")
	a := newAgent(idx, &scriptedLLM{reply: "blue"})
	ctx := context.Background()
	s := NewState("What color is the sky?")

	_, err := a.Retrieve(ctx, s)
	assert.ErrorIs(t, err, domain.ErrStageOrder)
	_, err = a.Answer(ctx, s)
	assert.ErrorIs(t, err, domain.ErrStageOrder)
	_, err = a.Reflect(ctx, s)
	assert.ErrorIs(t, err, domain.ErrStageOrder)

	planned, err := a.Plan(ctx, s)
	require.NoError(t, err)
	_, err = a.Plan(ctx, planned)
	assert.ErrorIs(t, err, domain.ErrStageOrder)
}

func TestAgent_StagesDoNotMutateInput(t *testing.T) {
	idx := newIndex(t, "The sky is blue.", "Grass is green.")
	a := newAgent(idx, &scriptedLLM{reply: "The sky is blue."})
	ctx := context.Background()

	planned, err := a.Plan(ctx, NewState("What color is the sky?"))
	require.NoError(t, err)
	retrieved, err := a.Retrieve(ctx, planned)
	require.NoError(t, err)
	assert.Nil(t, planned.Retrieved)
	assert.Equal(t, StagePlanned, planned.Stage)

	answered, err := a.Answer(ctx, retrieved)
	require.NoError(t, err)
	assert.Empty(t, retrieved.Answer)

	answered.Retrieved[0].Chunk.Text = "changed"
	assert.Equal(t, "The sky is blue.", retrieved.Retrieved[0].Chunk.Text)

	reflected, err := a.Reflect(ctx, answered)
	require.NoError(t, err)
	assert.Nil(t, answered.Reflection)
	require.NotNil(t, reflected.Reflection)
	assert.Equal(t, StageReflected, reflected.Stage)
	assert.Equal(t, planned.RunID, reflected.RunID)
}

func TestAgent_ConcurrentRuns(t *testing.T) {
	idx := newIndex(t, "The sky is blue.", "Grass is green.", "Paris is the capital of France.")
	a := newAgent(idx, &scriptedLLM{reply: "an answer"}, WithTopK(1))

	questions := []string{"What color is the sky?", "What color is grass?", "What is the capital of France?"}
	want := []string{"The sky is blue.", "Grass is green.", "Paris is the capital of France."}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := a.Ask(context.Background(), questions[i%3])
			if !assert.NoError(t, err) || !assert.Len(t, res.Sources, 1) {
				return
			}
			assert.Equal(t, want[i%3], res.Sources[0].Text)

			mu.Lock()
			ids[res.RunID] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	assert.Len(t, ids, 12)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "retrieved", StageRetrieved.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
