// Package agent runs the Plan, Retrieve, Answer and Reflect stages for a
// single question.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ragagent/internal/domain"
	"ragagent/internal/observe"
	"ragagent/internal/port"
	"ragagent/internal/usecase"
)

const DefaultTopK = 5

// Agent is safe for concurrent use; every run works on its own State.
type Agent struct {
	index    port.VectorIndex
	answerer *usecase.AnswerUseCase
	scorer   *usecase.RelevanceScorer
	topK     int
	sink     observe.Sink
	logger   *slog.Logger
}

type Option func(*Agent)

func WithTopK(k int) Option {
	return func(a *Agent) {
		if k > 0 {
			a.topK = k
		}
	}
}

func WithSink(sink observe.Sink) Option {
	return func(a *Agent) {
		if sink != nil {
			a.sink = sink
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(index port.VectorIndex, answerer *usecase.AnswerUseCase, scorer *usecase.RelevanceScorer, opts ...Option) *Agent {
	a := &Agent{
		index:    index,
		answerer: answerer,
		scorer:   scorer,
		topK:     DefaultTopK,
		sink:     observe.NopSink{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunError reports the stage at which a run stopped.
type RunError struct {
	RunID string
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s: %s: %v", e.RunID, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func checkStage(s State, want Stage, name string) error {
	if s.Stage != want {
		return fmt.Errorf("%w: %s requires stage %s, state is %s", domain.ErrStageOrder, name, want, s.Stage)
	}
	return nil
}

// Plan records the question. Retrieval is always performed.
func (a *Agent) Plan(ctx context.Context, s State) (State, error) {
	if err := checkStage(s, StageNew, "plan"); err != nil {
		return s, err
	}
	question := strings.TrimSpace(s.Question)
	if question == "" {
		return s, errors.New("question is empty")
	}

	next := s.clone()
	next.Question = question
	next.Stage = StagePlanned
	a.logger.Debug("plan", "run_id", s.RunID, "question", question)
	return next, nil
}

// Retrieve fetches the topK chunks most similar to the question.
func (a *Agent) Retrieve(ctx context.Context, s State) (State, error) {
	if err := checkStage(s, StagePlanned, "retrieve"); err != nil {
		return s, err
	}

	start := time.Now()
	results, err := a.index.Query(ctx, s.Question, a.topK)
	if err != nil {
		return s, &RunError{RunID: s.RunID, Stage: "retrieve", Err: err}
	}

	next := s.clone()
	next.Retrieved = make([]domain.ScoredChunk, len(results))
	copy(next.Retrieved, results)
	next.Stage = StageRetrieved

	a.sink.Emit(ctx, observe.QueryCompleted{
		RunID:   s.RunID,
		TopK:    a.topK,
		Results: len(results),
		Latency: time.Since(start),
	})
	return next, nil
}

// Answer generates an answer from the retrieved chunks. A generation
// failure is recorded on the State and does not stop the run.
func (a *Agent) Answer(ctx context.Context, s State) (State, error) {
	if err := checkStage(s, StageRetrieved, "answer"); err != nil {
		return s, err
	}

	gen, err := a.answerer.Answer(ctx, s.Question, s.Retrieved)
	if err != nil && !errors.Is(err, domain.ErrGeneration) {
		return s, &RunError{RunID: s.RunID, Stage: "answer", Err: err}
	}

	next := s.clone()
	next.Answer = gen.Text
	next.Fallback = gen.Fallback
	next.AnswerErr = err
	next.Stage = StageAnswered

	a.sink.Emit(ctx, observe.AnswerGenerated{
		RunID:    s.RunID,
		Fallback: gen.Fallback,
		Latency:  gen.Latency,
		Err:      err,
	})
	return next, nil
}

// Reflect scores the answer against the question.
func (a *Agent) Reflect(ctx context.Context, s State) (State, error) {
	if err := checkStage(s, StageAnswered, "reflect"); err != nil {
		return s, err
	}

	r := a.scorer.Score(s.Question, s.Answer)
	next := s.clone()
	next.Reflection = &r
	next.Stage = StageReflected
	a.logger.Debug("reflect", "run_id", s.RunID, "reflection", r.String())
	return next, nil
}

// Run executes all four stages for question on a fresh State.
func (a *Agent) Run(ctx context.Context, question string) (State, error) {
	s := NewState(question)
	stages := []func(context.Context, State) (State, error){a.Plan, a.Retrieve, a.Answer, a.Reflect}

	for _, stage := range stages {
		next, err := stage(ctx, s)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}

// Ask runs the pipeline and converts the final State to a Result.
func (a *Agent) Ask(ctx context.Context, question string) (Result, error) {
	s, err := a.Run(ctx, question)
	if err != nil {
		return Result{}, err
	}
	return NewResult(s), nil
}
