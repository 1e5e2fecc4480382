package agent

import "ragagent/internal/domain"

type Source struct {
	ID     int     `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Result is what a caller receives for one question.
type Result struct {
	RunID      string            `json:"run_id"`
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Sources    []Source          `json:"sources"`
	Reflection domain.Reflection `json:"reflection"`
	Degraded   bool              `json:"degraded"`
	Error      string            `json:"error,omitempty"`
}

func NewResult(s State) Result {
	res := Result{
		RunID:    s.RunID,
		Question: s.Question,
		Answer:   s.Answer,
		Sources:  make([]Source, len(s.Retrieved)),
		Degraded: s.Degraded(),
	}
	for i, c := range s.Retrieved {
		res.Sources[i] = Source{
			ID:     c.ID,
			Text:   c.Chunk.Text,
			Source: c.Chunk.Source,
			Score:  c.Score,
		}
	}
	if s.Reflection != nil {
		res.Reflection = *s.Reflection
	}
	if s.AnswerErr != nil {
		res.Error = s.AnswerErr.Error()
	}
	return res
}
