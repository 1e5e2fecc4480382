package agent

import (
	"github.com/google/uuid"

	"ragagent/internal/domain"
)

// Stage marks how far a State has progressed through the pipeline.
type Stage int

const (
	StageNew Stage = iota
	StagePlanned
	StageRetrieved
	StageAnswered
	StageReflected
)

func (s Stage) String() string {
	switch s {
	case StageNew:
		return "new"
	case StagePlanned:
		return "planned"
	case StageRetrieved:
		return "retrieved"
	case StageAnswered:
		return "answered"
	case StageReflected:
		return "reflected"
	default:
		return "unknown"
	}
}

// State is the per-question record passed between stages. Stages return a
// new State and never modify the one they were given.
type State struct {
	RunID      string
	Question   string
	Stage      Stage
	Retrieved  []domain.ScoredChunk
	Answer     string
	Fallback   bool
	AnswerErr  error
	Reflection *domain.Reflection
}

// NewState starts a run for question with a fresh run ID.
func NewState(question string) State {
	return State{
		RunID:    uuid.NewString(),
		Question: question,
		Stage:    StageNew,
	}
}

// Degraded reports whether the answer stage failed.
func (s State) Degraded() bool {
	return s.AnswerErr != nil
}

func (s State) clone() State {
	out := s
	if s.Retrieved != nil {
		out.Retrieved = make([]domain.ScoredChunk, len(s.Retrieved))
		copy(out.Retrieved, s.Retrieved)
	}
	if s.Reflection != nil {
		r := *s.Reflection
		out.Reflection = &r
	}
	return out
}
