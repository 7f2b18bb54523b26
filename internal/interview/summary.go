package interview

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ziadkadry99/orientation-agent/internal/fiche"
	"github.com/ziadkadry99/orientation-agent/internal/llm"
)

// Summarizer produces the final summary and recap.
type Summarizer struct {
	client       Completer
	historyChars int
}

// NewSummarizer creates the summary engine. historyChars bounds the dialogue
// excerpt sent to the model.
func NewSummarizer(client Completer, historyChars int) *Summarizer {
	return &Summarizer{client: client, historyChars: historyChars}
}

// Summarize asks the model for a summary over the dialogue and overlays the
// profile-derived seed, which wins on every field it fills.
func (s *Summarizer) Summarize(ctx context.Context, history []Turn, profile fiche.Profile) (SummaryResult, error) {
	raw, err := s.client.CompleteJSON(ctx, summarySystemPrompt, buildSummaryPrompt(history, profile, s.historyChars), llm.CallOptions{Name: "summary"})
	if err != nil {
		return SummaryResult{}, fmt.Errorf("summary: %w", err)
	}
	res := NewSummaryResult(raw)
	res.Summary = fiche.ApplySeed(res.Summary, fiche.DeriveSummary(profile))
	return res, nil
}

// Recap generates the four narrative sections. It never fails: any section
// the model leaves empty, or all of them on error, get the default prose.
func (s *Summarizer) Recap(ctx context.Context, summary fiche.Summary, profile fiche.Profile) (RecapResult, error) {
	raw, err := s.client.CompleteJSON(ctx, recapSystemPrompt, buildRecapPrompt(summary, profile), llm.CallOptions{Name: "recap"})
	if err != nil {
		return NewRecapResult(nil), err
	}
	return NewRecapResult(raw), nil
}

func jsonIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
