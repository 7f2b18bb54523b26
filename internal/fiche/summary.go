package fiche

import (
	"fmt"
	"strings"
)

// Summary is the final synthesis shown on the summary cards and mindmap.
type Summary struct {
	Objectifs           []string    `json:"objectifs"`
	Priorites           []string    `json:"priorites"`
	FormatIdeal         string      `json:"format_ideal"`
	Langue              string      `json:"langue"`
	NiveauActuel        string      `json:"niveau_actuel,omitempty"`
	NiveauCible         string      `json:"niveau_cible,omitempty"`
	AmbitionProgression string      `json:"ambition_progression,omitempty"`
	ProjetPhrase        string      `json:"projet_phrase_ultra_positive"`
	Meta                SummaryMeta `json:"meta"`
	Confidence          *float64    `json:"confidence,omitempty"`
}

// SummaryMeta carries secondary facts used by exports.
type SummaryMeta struct {
	PaysCibles      []string `json:"pays_cibles,omitempty"`
	DepaysementPref string   `json:"depaysement_pref,omitempty"`
	DureePref       string   `json:"duree_pref,omitempty"`
	BourseInteret   string   `json:"bourse_interet,omitempty"`
	InquietudesTop  []string `json:"inquietudes_top,omitempty"`
}

// maxRanked bounds ranked lists (priorities, concerns) in the summary.
const maxRanked = 3

// DeriveSummary maps profile fields onto summary fields without any model
// call. Every non-empty output field comes from a profile value.
func DeriveSummary(p Profile) Summary {
	var s Summary

	if cat := p.String("motivation", "categorie_prioritaire"); !IsUnknown(cat) {
		s.Objectifs = []string{CategoryObjective(cat)}
	}
	s.Priorites = topN(dedupe(p.Strings("priorites_apprentissage")), maxRanked)

	if t := p.String("sejour", "type_sejour"); !IsUnknown(t) {
		s.FormatIdeal = StayTypeLabel(t)
	} else if ctx := p.String("sejour", "contexte_ideal"); ctx != "" {
		s.FormatIdeal = ctx
	}

	if langs := p.Objects("langues_cibles"); len(langs) > 0 {
		first := Profile(langs[0])
		if l := first.String("langue"); !IsUnknown(l) {
			s.Langue = l
		}
		cur, tgt := first.String("niveau_actuel_CECR"), first.String("niveau_vise_CECR")
		if !IsUnknown(cur) {
			s.NiveauActuel = normalizeLevel(cur)
		}
		if !IsUnknown(tgt) {
			s.NiveauCible = normalizeLevel(tgt)
		}
		s.AmbitionProgression = Ambition(cur, tgt)
	}

	s.ProjetPhrase = projectPhrase(p)

	s.Meta.PaysCibles = dedupe(p.Strings("destinations", "pays_souhaites"))
	if pref := p.String("proximite_culturelle", "preference"); !IsUnknown(pref) {
		s.Meta.DepaysementPref = pref
	}
	if weeks, ok := p.Int("sejour", "duree_preferee_semaines"); ok && weeks > 0 {
		s.Meta.DureePref = weeksLabel(weeks)
	}
	if b := p.String("financement", "interet_bourse"); !IsUnknown(b) {
		s.Meta.BourseInteret = b
	}
	s.Meta.InquietudesTop = topN(dedupe(concerns(p)), maxRanked)

	return s
}

// ApplySeed overlays the profile-derived seed onto a model-proposed summary:
// every non-empty seed field replaces the model's value.
func ApplySeed(model, seed Summary) Summary {
	out := model
	if len(seed.Objectifs) > 0 {
		out.Objectifs = seed.Objectifs
	}
	if len(seed.Priorites) > 0 {
		out.Priorites = seed.Priorites
	}
	overlay(&out.FormatIdeal, seed.FormatIdeal)
	overlay(&out.Langue, seed.Langue)
	overlay(&out.NiveauActuel, seed.NiveauActuel)
	overlay(&out.NiveauCible, seed.NiveauCible)
	overlay(&out.AmbitionProgression, seed.AmbitionProgression)
	overlay(&out.ProjetPhrase, seed.ProjetPhrase)

	if len(seed.Meta.PaysCibles) > 0 {
		out.Meta.PaysCibles = seed.Meta.PaysCibles
	}
	overlay(&out.Meta.DepaysementPref, seed.Meta.DepaysementPref)
	overlay(&out.Meta.DureePref, seed.Meta.DureePref)
	overlay(&out.Meta.BourseInteret, seed.Meta.BourseInteret)
	if len(seed.Meta.InquietudesTop) > 0 {
		out.Meta.InquietudesTop = seed.Meta.InquietudesTop
	}

	out.Objectifs = dedupe(out.Objectifs)
	out.Priorites = topN(dedupe(out.Priorites), maxRanked)
	out.Meta.PaysCibles = dedupe(out.Meta.PaysCibles)
	out.Meta.InquietudesTop = dedupe(out.Meta.InquietudesTop)
	return out
}

func overlay(dst *string, seed string) {
	if seed != "" {
		*dst = seed
	}
}

func projectPhrase(p Profile) string {
	if phrase := p.String("projet", "phrase"); phrase != "" {
		return phrase
	}
	var parts []string
	if lieu := p.String("projet", "lieu"); lieu != "" {
		parts = append(parts, lieu)
	}
	if weeks, ok := p.Int("projet", "duree_semaines"); ok && weeks > 0 {
		parts = append(parts, weeksLabel(weeks))
	}
	if obj := p.String("projet", "objectif"); obj != "" {
		parts = append(parts, obj)
	}
	return strings.Join(parts, " · ")
}

// concerns reads inquietudes, whose items are either strings or
// {inquietude, pistes} objects.
func concerns(p Profile) []string {
	v, _ := p.Lookup("inquietudes")
	arr, _ := v.([]any)
	var out []string
	for _, el := range arr {
		switch t := el.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := asString(t["inquietude"]); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func weeksLabel(weeks int) string {
	if weeks == 1 {
		return "1 semaine"
	}
	return fmt.Sprintf("%d semaines", weeks)
}

func normalizeLevel(level string) string {
	if CECRRank(level) > 0 {
		return strings.ToUpper(strings.TrimSpace(level))
	}
	return strings.TrimSpace(level)
}

// dedupe drops blanks and case/accent-insensitive repeats, keeping order.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := enumKey(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func topN(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
