package fiche

import (
	"reflect"
	"testing"
)

func TestDeriveSummaryLanguageScenario(t *testing.T) {
	p := Merge(New(testTemplate(t)), map[string]any{
		"langues_cibles": []any{
			map[string]any{"langue": "anglais", "niveau_actuel_CECR": "A2", "niveau_vise_CECR": "C1"},
			map[string]any{"langue": "espagnol", "niveau_actuel_CECR": "A1", "niveau_vise_CECR": "A2"},
		},
	}, t0)

	s := DeriveSummary(p)
	if s.Langue != "anglais" || s.NiveauActuel != "A2" || s.NiveauCible != "C1" {
		t.Errorf("unexpected language fields: %+v", s)
	}
	if s.AmbitionProgression != AmbitionStrong {
		t.Errorf("ambition = %q, want %q", s.AmbitionProgression, AmbitionStrong)
	}
}

func TestAmbition(t *testing.T) {
	tests := []struct {
		cur, tgt string
		want     string
	}{
		{"A2", "C1", AmbitionStrong},
		{"B1", "B2", AmbitionModerate},
		{"b2", "b2", AmbitionStabilize},
		{"C1", "B2", AmbitionStabilize},
		{"unknown", "C1", ""},
		{"A2", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := Ambition(tt.cur, tt.tgt); got != tt.want {
			t.Errorf("Ambition(%q, %q) = %q, want %q", tt.cur, tt.tgt, got, tt.want)
		}
	}
}

func TestSeedOverridesModelFormat(t *testing.T) {
	p := Merge(New(testTemplate(t)), map[string]any{
		"sejour": map[string]any{"type_sejour": "stage"},
	}, t0)

	model := Summary{FormatIdeal: "Études", Langue: "anglais", Objectifs: []string{"Voyager"}}
	got := ApplySeed(model, DeriveSummary(p))

	if got.FormatIdeal != "Stage" {
		t.Errorf("format_ideal = %q, want %q", got.FormatIdeal, "Stage")
	}
	if got.Langue != "anglais" {
		t.Errorf("model values without a seed must survive, langue = %q", got.Langue)
	}
	if !reflect.DeepEqual(got.Objectifs, []string{"Voyager"}) {
		t.Errorf("objectifs = %v", got.Objectifs)
	}
}

func TestDeriveSummaryEmptyProfileFabricatesNothing(t *testing.T) {
	s := DeriveSummary(New(testTemplate(t)))
	if !reflect.DeepEqual(s, Summary{}) {
		t.Errorf("expected empty summary, got %+v", s)
	}
}

func TestDeriveSummaryUnknownLevels(t *testing.T) {
	p := Merge(New(testTemplate(t)), map[string]any{
		"langues_cibles": []any{
			map[string]any{"langue": "japonais", "niveau_actuel_CECR": "unknown", "niveau_vise_CECR": "B1"},
		},
	}, t0)
	s := DeriveSummary(p)
	if s.NiveauActuel != "" || s.AmbitionProgression != "" {
		t.Errorf("unknown level must stay unset: %+v", s)
	}
	if s.NiveauCible != "B1" {
		t.Errorf("niveau_cible = %q", s.NiveauCible)
	}
}

func TestDeriveSummaryFields(t *testing.T) {
	p := Merge(New(testTemplate(t)), map[string]any{
		"motivation":              map[string]any{"categorie_prioritaire": "experience_pro"},
		"priorites_apprentissage": []any{"anglais", "autonomie", "Anglais", "marketing", "réseau"},
		"destinations":            map[string]any{"pays_souhaites": []any{"Irlande", "irlande", "Canada"}},
		"proximite_culturelle":    map[string]any{"preference": "depaysant"},
		"sejour":                  map[string]any{"contexte_ideal": "une ville portuaire", "duree_preferee_semaines": float64(24)},
		"financement":             map[string]any{"interet_bourse": "oui"},
		"inquietudes": []any{
			map[string]any{"inquietude": "le budget", "pistes": []any{"job étudiant"}},
			"la solitude",
			map[string]any{"inquietude": "la langue"},
			map[string]any{"inquietude": "le logement"},
		},
		"projet": map[string]any{"lieu": "Dublin", "duree_semaines": float64(24), "objectif": "stage en marketing"},
	}, t0)

	s := DeriveSummary(p)
	want := Summary{
		Objectifs:    []string{"Acquérir une expérience professionnelle"},
		Priorites:    []string{"anglais", "autonomie", "marketing"},
		FormatIdeal:  "une ville portuaire",
		ProjetPhrase: "Dublin · 24 semaines · stage en marketing",
		Meta: SummaryMeta{
			PaysCibles:      []string{"Irlande", "Canada"},
			DepaysementPref: "depaysant",
			DureePref:       "24 semaines",
			BourseInteret:   "oui",
			InquietudesTop:  []string{"le budget", "la solitude", "la langue"},
		},
	}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("DeriveSummary mismatch:\n got %+v\nwant %+v", s, want)
	}
}

func TestDeriveSummaryPrefersProjectPhrase(t *testing.T) {
	p := Merge(New(testTemplate(t)), map[string]any{
		"projet": map[string]any{"phrase": "Six mois à Dublin", "lieu": "Dublin"},
	}, t0)
	if got := DeriveSummary(p).ProjetPhrase; got != "Six mois à Dublin" {
		t.Errorf("projet = %q", got)
	}
}

func TestStayTypeLabel(t *testing.T) {
	tests := map[string]string{
		"stage":               "Stage",
		"Séjour linguistique": "Séjour linguistique",
		"annee_cesure":        "Année de césure",
		"ÉTUDES":              "Études",
		"tour du monde":       "tour du monde",
	}
	for in, want := range tests {
		if got := StayTypeLabel(in); got != want {
			t.Errorf("StayTypeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplySeedKeepsModelWhenSeedEmpty(t *testing.T) {
	model := Summary{
		Objectifs:    []string{"Apprendre", "apprendre"},
		Priorites:    []string{"a", "b", "c", "d"},
		ProjetPhrase: "Un super projet !",
	}
	got := ApplySeed(model, Summary{})
	if !reflect.DeepEqual(got.Objectifs, []string{"Apprendre"}) {
		t.Errorf("objectifs = %v", got.Objectifs)
	}
	if len(got.Priorites) != 3 {
		t.Errorf("priorities must be capped at 3, got %v", got.Priorites)
	}
	if got.ProjetPhrase != "Un super projet !" {
		t.Errorf("projet = %q", got.ProjetPhrase)
	}
}
