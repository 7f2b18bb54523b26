package interview

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
	"github.com/ziadkadry99/orientation-agent/internal/similarity"
)

// angleTemplates are tried in order when the model cannot produce a fresh
// follow-up: concrete example, quantify, scenario, top three criteria,
// blocking constraint. With the catch-all and the question-specific prompt
// they bound how many distinct follow-ups one question can get, which is
// questions.MaxFollowupsLimit.
var angleTemplates = [...]string{
	"Peux-tu me donner un exemple concret, tiré de ta vie ou de ce que tu imagines ?",
	"Si tu devais chiffrer ça (durée, budget, nombre), que dirais-tu ?",
	"Imagine-toi sur place dans un an : à quoi ressemble une journée type ?",
	"Quels sont les trois critères les plus importants pour toi, dans l'ordre ?",
	"Qu'est-ce qui te bloque le plus aujourd'hui pour avancer sur ce point ?",
}

const closingPrompt = "En une phrase, qu'est-ce que tu retiens de tout ça pour ton projet ?"

const catchAll = "Pour être concret : où aimerais-tu aller, à partir de quelle date, et pour combien de temps environ ?"

// FollowupVetter guarantees that a displayed follow-up does not repeat an
// earlier phrasing of the same question.
type FollowupVetter struct {
	client    Completer
	threshold float64
}

// NewFollowupVetter creates a vetter; threshold <= 0 selects the default.
func NewFollowupVetter(client Completer, threshold float64) *FollowupVetter {
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}
	return &FollowupVetter{client: client, threshold: threshold}
}

// Ensure returns proposed when it is new, else one model rephrase, else the
// first unused angle template, else a catch-all asking for place, date and
// duration. It never fails and always returns a non-empty string different
// from a duplicate proposal.
func (v *FollowupVetter) Ensure(ctx context.Context, proposed string, q questions.Question, ledger []string, lastAssistant string) string {
	dup := func(s string) bool {
		return similarity.IsDuplicate(s, ledger, lastAssistant, v.threshold)
	}
	if proposed != "" && !dup(proposed) {
		return proposed
	}

	if v.client != nil {
		raw, err := v.client.CompleteJSON(ctx, rephraseSystemPrompt, buildRephrasePrompt(proposed, q, ledger), llm.CallOptions{Name: "rephrase"})
		if err == nil {
			if r := str(raw["followup_question"]); r != "" && !dup(r) && !similarity.IsDuplicate(r, []string{proposed}, "", v.threshold) {
				return r
			}
		}
	}

	for _, tmpl := range angleTemplates {
		if !dup(tmpl) {
			return tmpl
		}
	}

	if !dup(catchAll) {
		return catchAll
	}
	specific := fmt.Sprintf("Pour « %s » : donne-moi un lieu, une date de départ visée et une durée estimée.", q.Text)
	if !dup(specific) && !similarity.IsDuplicate(specific, []string{proposed}, "", v.threshold) {
		return specific
	}
	// Only reachable past questions.MaxFollowupsLimit, which PolicyFor
	// never exceeds.
	return closingPrompt
}
