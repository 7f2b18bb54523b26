package interview

import (
	"context"

	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
)

// Reformulator rephrases an unresolved question for the revisit pass.
type Reformulator struct {
	client Completer
}

// NewReformulator creates a revisit reformulation engine.
func NewReformulator(client Completer) *Reformulator {
	return &Reformulator{client: client}
}

// Reformulate returns a targeted phrasing of q, or q.Text when the model
// fails or answers nothing usable. The error is returned for logging only.
func (r *Reformulator) Reformulate(ctx context.Context, q questions.Question, lastAnswers, missing []string) (string, error) {
	raw, err := r.client.CompleteJSON(ctx, reformulateSystemPrompt, buildReformulatePrompt(q, lastAnswers, missing), llm.CallOptions{Name: "reformulate"})
	if err != nil {
		return q.Text, err
	}
	if res := NewReformulationResult(raw); res.Question != "" {
		return res.Question, nil
	}
	return q.Text, nil
}
