package interview

import (
	"context"

	"github.com/ziadkadry99/orientation-agent/internal/fiche"
	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
)

// Extractor turns an answer into a profile patch scoped to the question's
// allowed sections.
type Extractor struct {
	client Completer
}

// NewExtractor creates a profile extraction engine.
func NewExtractor(client Completer) *Extractor {
	return &Extractor{client: client}
}

// Extract never fails: model errors and malformed output yield an empty
// patch. The error is returned for logging only.
func (e *Extractor) Extract(ctx context.Context, q questions.Question, answer string, profile fiche.Profile) (PatchResult, error) {
	empty := PatchResult{Patch: map[string]any{}, Alerts: []string{}}
	if len(q.ProfileFields) == 0 {
		return empty, nil
	}
	raw, err := e.client.CompleteJSON(ctx, extractionSystemPrompt, buildExtractionPrompt(q, answer, profile), llm.CallOptions{Name: "extraction"})
	if err != nil {
		return empty, err
	}
	return NewPatchResult(raw, q.ProfileFields), nil
}
