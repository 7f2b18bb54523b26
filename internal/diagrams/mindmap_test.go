package diagrams

import (
	"strings"
	"testing"

	"github.com/ziadkadry99/orientation-agent/internal/fiche"
)

func fullSummary() fiche.Summary {
	return fiche.Summary{
		Objectifs:           []string{"Progresser en langue"},
		Priorites:           []string{"oral", "vocabulaire"},
		FormatIdeal:         "Immersion en famille",
		Langue:              "anglais",
		NiveauActuel:        "B1",
		NiveauCible:         "C1",
		AmbitionProgression: "forte",
		ProjetPhrase:        "Partir à Dublin 6 semaines",
		Meta:                fiche.SummaryMeta{DureePref: "6 semaines"},
	}
}

func TestMindmap(t *testing.T) {
	got := Mindmap(fullSummary())

	want := strings.Join([]string{
		"mindmap",
		"  root((Mon projet))",
		"    🎯 Objectifs",
		"      - Progresser en langue",
		"    📋 Priorités",
		"      - oral",
		"      - vocabulaire",
		"    🎓 Format idéal",
		"      - Immersion en famille",
		"      - Durée: 6 semaines",
		"    🗣️ Langue & niveau",
		"      - anglais",
		"      - Niveau actuel: B1",
		"      - Niveau cible: C1",
		"      - Ambition: forte",
		"    ✨ Mon projet",
		"      - Partir à Dublin 6 semaines",
	}, "\n") + "\n"

	if got != want {
		t.Errorf("Mindmap() =\n%s\nwant\n%s", got, want)
	}
}

func TestMindmapEmptySummaryKeepsSections(t *testing.T) {
	got := Mindmap(fiche.Summary{})
	for _, title := range []string{TitleObjectifs, TitlePriorites, TitleFormat, TitleLangue, TitleProjet} {
		if !strings.Contains(got, "    "+title+"\n") {
			t.Errorf("missing section %q", title)
		}
	}
	if strings.Contains(got, "      - ") {
		t.Errorf("empty summary produced leaves:\n%s", got)
	}
}

func TestEscapeMermaid(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"{x}", `\u007Bx\u007D`},
		{"a<b>c", `a\u003Cb\u003Ec`},
		{"deux\nlignes", "deux lignes"},
	}
	for _, tt := range tests {
		if got := escapeMermaid(tt.in); got != tt.want {
			t.Errorf("escapeMermaid(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMindmapEscapesLeaves(t *testing.T) {
	s := fiche.Summary{ProjetPhrase: "Projet <ambitieux> {2026}"}
	got := Mindmap(s)
	if strings.ContainsAny(got, "{}<>") {
		t.Errorf("unescaped characters in:\n%s", got)
	}
}

func TestCards(t *testing.T) {
	cards := Cards(fullSummary())
	if len(cards) != 5 {
		t.Fatalf("got %d cards, want 5", len(cards))
	}
	if cards[2].Title != TitleFormat || len(cards[2].Items) != 1 {
		t.Errorf("format card = %+v (duration belongs to the mindmap only)", cards[2])
	}
	lang := cards[3].Items
	if len(lang) != 4 || lang[1] != "Niveau actuel: B1" || lang[3] != "Ambition: forte" {
		t.Errorf("language card = %v", lang)
	}
}

func TestCardsDropEmptyValues(t *testing.T) {
	cards := Cards(fiche.Summary{Objectifs: []string{"", "  ", "Découvrir"}, NiveauCible: "B2"})
	if got := cards[0].Items; len(got) != 1 || got[0] != "Découvrir" {
		t.Errorf("objectifs = %v", got)
	}
	if got := cards[3].Items; len(got) != 1 || got[0] != "Niveau cible: B2" {
		t.Errorf("langue = %v", got)
	}
	if len(cards[4].Items) != 0 {
		t.Errorf("projet = %v", cards[4].Items)
	}
}

func TestRenderCards(t *testing.T) {
	out := RenderCards(Cards(fiche.Summary{Priorites: []string{"oral"}}))
	if !strings.Contains(out, "📋 Priorités\n  • oral\n") {
		t.Errorf("RenderCards missing priority bullet:\n%s", out)
	}
	if !strings.Contains(out, "🎯 Objectifs\n  (non précisé)\n") {
		t.Errorf("RenderCards missing placeholder:\n%s", out)
	}
}
