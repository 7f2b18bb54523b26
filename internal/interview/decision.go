package interview

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/orientation-agent/internal/llm"
)

// Completer sends a prompt pair to a language model and returns the JSON
// object it answered with. *llm.JSONClient implements it.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string, opts llm.CallOptions) (map[string]any, error)
}

// FallbackFollowup replaces an empty follow-up when substitution is enabled.
const FallbackFollowup = "Peux-tu préciser ?"

// Guardrail names, reported in DecisionResult.Guardrail and the logs.
const (
	GuardAnsweredWins     = "answered_wins"
	GuardCapReached       = "cap_reached"
	GuardEmptyFollowup    = "empty_followup"
	GuardFallbackFollowup = "fallback_followup"
	GuardFinishAsAdvance  = "finish_as_advance"
)

// DecisionInput is everything the decision engine sees for one answer.
type DecisionInput struct {
	History  []Turn
	Question string
	Answer   string
	Hint     string
	// Followups are the phrasings already shown for the question.
	Followups []string
	// Attempts is the number of follow-ups already asked.
	Attempts     int
	MaxFollowups int
	// SubstituteEmptyFollowup asks FallbackFollowup instead of advancing when
	// the model wants a follow-up but gives no text.
	SubstituteEmptyFollowup bool
	// AllowFinish keeps a "finish" verdict; otherwise it becomes an advance.
	AllowFinish bool
}

// Decider judges whether an answer is sufficient.
type Decider struct {
	client       Completer
	historyChars int
}

// NewDecider creates a decision engine. historyChars bounds the dialogue
// excerpt sent to the model.
func NewDecider(client Completer, historyChars int) *Decider {
	return &Decider{client: client, historyChars: historyChars}
}

// Decide asks the model for a verdict and applies the guardrails. Transport
// and parse failures are returned as is; there is no retry.
func (d *Decider) Decide(ctx context.Context, in DecisionInput) (DecisionResult, error) {
	raw, err := d.client.CompleteJSON(ctx, decisionSystemPrompt, buildDecisionPrompt(in, d.historyChars), llm.CallOptions{Name: "decision"})
	if err != nil {
		return DecisionResult{}, fmt.Errorf("decision: %w", err)
	}
	return applyGuardrails(NewDecisionResult(raw), in), nil
}

// applyGuardrails enforces, in order: a true verdict always advances; the
// follow-up cap; no empty follow-up is ever shown.
func applyGuardrails(d DecisionResult, in DecisionInput) DecisionResult {
	if d.Answered {
		if d.NextAction != ActionNextQuestion {
			d.Guardrail = GuardAnsweredWins
		}
		d.NextAction = ActionNextQuestion
		d.FollowupQuestion = ""
		return d
	}

	if d.NextAction == ActionFinish {
		if in.AllowFinish {
			d.FollowupQuestion = ""
			return d
		}
		d.NextAction = ActionNextQuestion
		d.Guardrail = GuardFinishAsAdvance
	}

	if d.NextAction == ActionAskFollowup && in.Attempts >= in.MaxFollowups {
		d.NextAction = ActionNextQuestion
		d.FollowupQuestion = ""
		d.Reason = fmt.Sprintf("Nombre maximal de relances atteint (%d).", in.MaxFollowups)
		d.Guardrail = GuardCapReached
		return d
	}

	if d.NextAction == ActionAskFollowup && d.FollowupQuestion == "" {
		if in.SubstituteEmptyFollowup {
			d.FollowupQuestion = FallbackFollowup
			d.Guardrail = GuardFallbackFollowup
		} else {
			d.NextAction = ActionNextQuestion
			d.Reason = "Pas de relance précise fournie par le modèle."
			d.Guardrail = GuardEmptyFollowup
		}
	}

	if d.NextAction == ActionNextQuestion {
		d.FollowupQuestion = ""
	}
	return d
}
