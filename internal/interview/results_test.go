package interview

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewDecisionResultDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want DecisionResult
	}{
		{
			name: "empty payload",
			raw:  map[string]any{},
			want: DecisionResult{Answered: false, NextAction: ActionAskFollowup, MissingPoints: []string{}, Reason: reasonInsufficient},
		},
		{
			name: "answered without action",
			raw:  map[string]any{"answered": true},
			want: DecisionResult{Answered: true, NextAction: ActionNextQuestion, MissingPoints: []string{}, Reason: reasonSufficient},
		},
		{
			name: "mistyped fields",
			raw:  map[string]any{"answered": "yes", "next_action": 3, "missing_points": "budget"},
			want: DecisionResult{Answered: false, NextAction: ActionAskFollowup, MissingPoints: []string{}, Reason: reasonInsufficient},
		},
		{
			name: "unknown action",
			raw:  map[string]any{"answered": false, "next_action": "dance", "reason": "vague"},
			want: DecisionResult{NextAction: ActionAskFollowup, MissingPoints: []string{}, Reason: "vague"},
		},
		{
			name: "full payload",
			raw: map[string]any{
				"answered": false, "next_action": "ASK_FOLLOWUP", "followup_question": " Où ? ",
				"missing_points": []any{"lieu", "", 4}, "reason": "lieu manquant",
			},
			want: DecisionResult{NextAction: ActionAskFollowup, FollowupQuestion: "Où ?", MissingPoints: []string{"lieu"}, Reason: "lieu manquant"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewDecisionResult(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewPatchResultScopesAndPrunes(t *testing.T) {
	raw := map[string]any{
		"patch": map[string]any{
			"langues_cibles": []any{
				map[string]any{"langue": "anglais", "niveau_actuel_CECR": "A2", "niveau_vise_CECR": ""},
			},
			"projet":      map[string]any{"lieu": "Dublin"},
			"sejour":      map[string]any{"type_sejour": "", "contexte_ideal": nil},
			"inquietudes": []any{},
		},
		"alerts": []any{"niveau visé non précisé"},
	}

	res := NewPatchResult(raw, []string{"langues_cibles", "sejour", "inquietudes"})

	want := map[string]any{
		"langues_cibles": []any{
			map[string]any{"langue": "anglais", "niveau_actuel_CECR": "A2"},
		},
	}
	if !reflect.DeepEqual(res.Patch, want) {
		t.Errorf("patch = %v, want %v", res.Patch, want)
	}
	if len(res.Alerts) != 1 {
		t.Errorf("alerts = %v", res.Alerts)
	}
}

func TestNewPatchResultMalformed(t *testing.T) {
	for _, raw := range []map[string]any{nil, {}, {"patch": "nope"}, {"patch": []any{1}}} {
		res := NewPatchResult(raw, []string{"projet"})
		if len(res.Patch) != 0 || res.Alerts == nil || len(res.Alerts) != 0 {
			t.Errorf("NewPatchResult(%v) = %+v, want empty", raw, res)
		}
	}
}

func TestNewSummaryResult(t *testing.T) {
	res := NewSummaryResult(map[string]any{
		"objectifs":                    []any{"Parler anglais"},
		"format_ideal":                 "Stage",
		"projet_phrase_ultra_positive": "Six mois à Dublin !",
		"confidence":                   0.7,
		"meta":                         map[string]any{"pays_cibles": []any{"Irlande"}, "duree_pref": "6 mois"},
	})
	if res.Summary.FormatIdeal != "Stage" || res.Summary.Meta.DureePref != "6 mois" {
		t.Errorf("unexpected summary %+v", res.Summary)
	}
	if res.Summary.Confidence == nil || *res.Summary.Confidence != 0.7 {
		t.Errorf("confidence = %v", res.Summary.Confidence)
	}
	if !reflect.DeepEqual(res.Missing, []string{"priorites", "langue"}) {
		t.Errorf("missing = %v", res.Missing)
	}

	if bad := NewSummaryResult(map[string]any{"confidence": 7.0}); bad.Summary.Confidence != nil {
		t.Error("out-of-range confidence must be dropped")
	}
}

func TestNewRecapResultDefaults(t *testing.T) {
	res := NewRecapResult(map[string]any{
		"connaissance_de_soi": "Tu sais ce que tu veux.",
		"cadre_de_vie":        "   ",
		"orientation_sociale": 42,
	})
	if res.Recap.ConnaissanceDeSoi != "Tu sais ce que tu veux." {
		t.Errorf("section overwritten: %q", res.Recap.ConnaissanceDeSoi)
	}
	if res.Recap.CadreDeVie != DefaultRecap.CadreDeVie || res.Recap.OrientationSociale != DefaultRecap.OrientationSociale {
		t.Error("blank and non-text sections must default")
	}
	if !reflect.DeepEqual(res.Defaulted, []string{"ambition_academique", "cadre_de_vie", "orientation_sociale"}) {
		t.Errorf("defaulted = %v", res.Defaulted)
	}

	if all := NewRecapResult(nil); all.Recap != DefaultRecap || len(all.Defaulted) != 4 {
		t.Errorf("nil payload must yield the default recap, got %+v", all)
	}
}

func TestRecapSectionsOrder(t *testing.T) {
	secs := DefaultRecap.Sections()
	if len(secs) != 4 || secs[0].Key != "connaissance_de_soi" || secs[3].Key != "orientation_sociale" {
		t.Errorf("unexpected sections %+v", secs)
	}
}

func TestCondenseHistory(t *testing.T) {
	turns := []Turn{
		{Role: RoleAssistant, Content: "Q1: Pourquoi ?"},
		{Role: RoleUser, Content: "Pour apprendre l'anglais."},
	}
	if got := condenseHistory(turns, 1800); got != "ASSISTANT: Q1: Pourquoi ?\nUSER: Pour apprendre l'anglais." {
		t.Errorf("condenseHistory = %q", got)
	}

	got := condenseHistory(turns, 10)
	if !strings.HasPrefix(got, condensedPrefix) {
		t.Errorf("expected condensed prefix, got %q", got)
	}
	if tail := strings.TrimPrefix(got, condensedPrefix); len(tail) > 10 || !strings.HasSuffix(tail, "anglais.") {
		t.Errorf("unexpected tail %q", tail)
	}
}

func TestCondenseHistoryRuneBoundary(t *testing.T) {
	turns := []Turn{{Role: RoleUser, Content: "ééééé"}}
	got := strings.TrimPrefix(condenseHistory(turns, 3), condensedPrefix)
	if got != "é" {
		t.Errorf("expected a whole rune, got %q", got)
	}
}

func TestNewReformulationResult(t *testing.T) {
	r := NewReformulationResult(map[string]any{"reformulated_question": " Dans quelle ville ? ", "reason": "lieu"})
	if r.Question != "Dans quelle ville ?" || r.Reason != "lieu" {
		t.Errorf("unexpected %+v", r)
	}
}
