package interview

import (
	"strings"

	"github.com/ziadkadry99/orientation-agent/internal/fiche"
)

// Action is the decision engine's verdict on what happens next.
type Action string

const (
	ActionAskFollowup  Action = "ask_followup"
	ActionNextQuestion Action = "next_question"
	ActionFinish       Action = "finish"
)

const (
	reasonSufficient   = "Réponse suffisante."
	reasonInsufficient = "Réponse incomplète."
)

// DecisionResult is the normalized verdict on one answer.
type DecisionResult struct {
	Answered         bool     `json:"answered"`
	NextAction       Action   `json:"next_action"`
	FollowupQuestion string   `json:"followup_question,omitempty"`
	MissingPoints    []string `json:"missing_points"`
	Reason           string   `json:"reason"`
	// Guardrail names the client-side rule that overrode the model, if any.
	Guardrail string `json:"guardrail,omitempty"`
}

// NewDecisionResult builds a DecisionResult from raw model output, filling
// defaults for missing or mistyped fields.
func NewDecisionResult(raw map[string]any) DecisionResult {
	answered, _ := raw["answered"].(bool)
	d := DecisionResult{
		Answered:         answered,
		FollowupQuestion: str(raw["followup_question"]),
		MissingPoints:    strs(raw["missing_points"]),
		Reason:           str(raw["reason"]),
	}

	switch a := Action(strings.ToLower(str(raw["next_action"]))); a {
	case ActionAskFollowup, ActionNextQuestion, ActionFinish:
		d.NextAction = a
	default:
		if answered {
			d.NextAction = ActionNextQuestion
		} else {
			d.NextAction = ActionAskFollowup
		}
	}
	if d.MissingPoints == nil {
		d.MissingPoints = []string{}
	}
	if d.Reason == "" {
		if answered {
			d.Reason = reasonSufficient
		} else {
			d.Reason = reasonInsufficient
		}
	}
	return d
}

// PatchResult is a profile patch proposed for one answer.
type PatchResult struct {
	Patch  map[string]any `json:"patch"`
	Alerts []string       `json:"alerts"`
}

// NewPatchResult keeps only the allowed top-level sections of raw["patch"]
// and prunes empty strings, nulls and empty containers so that absent
// evidence never overwrites known values.
func NewPatchResult(raw map[string]any, allowed []string) PatchResult {
	res := PatchResult{Patch: map[string]any{}, Alerts: strs(raw["alerts"])}
	if res.Alerts == nil {
		res.Alerts = []string{}
	}

	patch, _ := raw["patch"].(map[string]any)
	for _, key := range allowed {
		if v, ok := prune(patch[key]); ok {
			res.Patch[key] = v
		}
	}
	return res
}

// prune drops empty values recursively and reports whether anything remains.
func prune(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if pv, ok := prune(val); ok {
				out[k] = pv
			}
		}
		return out, len(out) > 0
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			if pv, ok := prune(val); ok {
				out = append(out, pv)
			}
		}
		return out, len(out) > 0
	default:
		return t, true
	}
}

// SummaryResult is the model-proposed summary before seeding.
type SummaryResult struct {
	Summary fiche.Summary `json:"summary"`
	// Missing lists required fields the model left empty.
	Missing []string `json:"missing,omitempty"`
}

// NewSummaryResult reads the summary schema out of raw model output.
func NewSummaryResult(raw map[string]any) SummaryResult {
	s := fiche.Summary{
		Objectifs:           strs(raw["objectifs"]),
		Priorites:           strs(raw["priorites"]),
		FormatIdeal:         str(raw["format_ideal"]),
		Langue:              str(raw["langue"]),
		NiveauActuel:        str(raw["niveau_actuel"]),
		NiveauCible:         str(raw["niveau_cible"]),
		AmbitionProgression: str(raw["ambition_progression"]),
		ProjetPhrase:        str(raw["projet_phrase_ultra_positive"]),
	}
	if c, ok := raw["confidence"].(float64); ok && c >= 0 && c <= 1 {
		s.Confidence = &c
	}
	if meta, ok := raw["meta"].(map[string]any); ok {
		s.Meta = fiche.SummaryMeta{
			PaysCibles:      strs(meta["pays_cibles"]),
			DepaysementPref: str(meta["depaysement_pref"]),
			DureePref:       str(meta["duree_pref"]),
			BourseInteret:   str(meta["bourse_interet"]),
			InquietudesTop:  strs(meta["inquietudes_top"]),
		}
	}

	res := SummaryResult{Summary: s}
	required := []struct {
		name  string
		empty bool
	}{
		{"objectifs", len(s.Objectifs) == 0},
		{"priorites", len(s.Priorites) == 0},
		{"format_ideal", s.FormatIdeal == ""},
		{"langue", s.Langue == ""},
		{"projet_phrase_ultra_positive", s.ProjetPhrase == ""},
	}
	for _, r := range required {
		if r.empty {
			res.Missing = append(res.Missing, r.name)
		}
	}
	return res
}

// Recap is the four-section narrative shown at the end of the interview.
type Recap struct {
	ConnaissanceDeSoi  string `json:"connaissance_de_soi"`
	AmbitionAcademique string `json:"ambition_academique"`
	CadreDeVie         string `json:"cadre_de_vie"`
	OrientationSociale string `json:"orientation_sociale"`
}

// RecapSection pairs a section title with its text, in display order.
type RecapSection struct {
	Key   string
	Title string
	Text  string
}

// Sections returns the recap in display order.
func (r Recap) Sections() []RecapSection {
	return []RecapSection{
		{"connaissance_de_soi", "Connaissance de soi", r.ConnaissanceDeSoi},
		{"ambition_academique", "Ambition académique", r.AmbitionAcademique},
		{"cadre_de_vie", "Cadre de vie", r.CadreDeVie},
		{"orientation_sociale", "Orientation sociale", r.OrientationSociale},
	}
}

// DefaultRecap is rendered for every section generation leaves empty.
var DefaultRecap = Recap{
	ConnaissanceDeSoi:  "Tu as pris le temps de réfléchir à ce qui te motive : c'est une vraie force pour construire ton projet.",
	AmbitionAcademique: "Ton projet s'appuie sur l'envie d'apprendre et de progresser, étape par étape.",
	CadreDeVie:         "Tu commences à dessiner l'environnement dans lequel tu te sentiras bien pour vivre cette expérience.",
	OrientationSociale: "Partir, c'est aussi aller vers les autres : ton projet t'ouvrira à de nouvelles rencontres.",
}

// RecapResult is a recap with defaults applied.
type RecapResult struct {
	Recap Recap `json:"recap"`
	// Defaulted lists the sections that fell back to default prose.
	Defaulted []string `json:"defaulted,omitempty"`
}

// NewRecapResult reads the four sections from raw, substituting the default
// prose for any section that is missing, empty or not text.
func NewRecapResult(raw map[string]any) RecapResult {
	var res RecapResult
	pick := func(key, def string) string {
		if s := str(raw[key]); s != "" {
			return s
		}
		res.Defaulted = append(res.Defaulted, key)
		return def
	}
	res.Recap = Recap{
		ConnaissanceDeSoi:  pick("connaissance_de_soi", DefaultRecap.ConnaissanceDeSoi),
		AmbitionAcademique: pick("ambition_academique", DefaultRecap.AmbitionAcademique),
		CadreDeVie:         pick("cadre_de_vie", DefaultRecap.CadreDeVie),
		OrientationSociale: pick("orientation_sociale", DefaultRecap.OrientationSociale),
	}
	return res
}

// ReformulationResult is a revisit phrasing proposed by the model.
type ReformulationResult struct {
	Question string `json:"reformulated_question"`
	Reason   string `json:"reason,omitempty"`
}

// NewReformulationResult reads the reformulation schema out of raw.
func NewReformulationResult(raw map[string]any) ReformulationResult {
	return ReformulationResult{
		Question: str(raw["reformulated_question"]),
		Reason:   str(raw["reason"]),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func strs(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, el := range arr {
		if s := str(el); s != "" {
			out = append(out, s)
		}
	}
	return out
}
