// Package diagrams renders the student summary as a Mermaid mindmap and as
// titled cards for text front ends.
package diagrams

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/orientation-agent/internal/fiche"
)

// Section titles shared by the mindmap and the cards.
const (
	TitleObjectifs = "🎯 Objectifs"
	TitlePriorites = "📋 Priorités"
	TitleFormat    = "🎓 Format idéal"
	TitleLangue    = "🗣️ Langue & niveau"
	TitleProjet    = "✨ Mon projet"
)

// Card is one titled block of the summary.
type Card struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Cards returns the five summary blocks in display order. Empty values are
// dropped, so a card may have no items.
func Cards(s fiche.Summary) []Card {
	return []Card{
		{Title: TitleObjectifs, Items: nonEmpty(s.Objectifs...)},
		{Title: TitlePriorites, Items: nonEmpty(s.Priorites...)},
		{Title: TitleFormat, Items: nonEmpty(s.FormatIdeal)},
		{Title: TitleLangue, Items: languageItems(s)},
		{Title: TitleProjet, Items: nonEmpty(s.ProjetPhrase)},
	}
}

// Mindmap generates Mermaid mindmap source for the summary. Section headers
// are always present; leaves are omitted when empty.
func Mindmap(s fiche.Summary) string {
	var b strings.Builder
	b.WriteString("mindmap\n")
	b.WriteString("  root((Mon projet))\n")

	format := nonEmpty(s.FormatIdeal)
	if s.Meta.DureePref != "" {
		format = append(format, "Durée: "+s.Meta.DureePref)
	}

	sections := []Card{
		{Title: TitleObjectifs, Items: nonEmpty(s.Objectifs...)},
		{Title: TitlePriorites, Items: nonEmpty(s.Priorites...)},
		{Title: TitleFormat, Items: format},
		{Title: TitleLangue, Items: languageItems(s)},
		{Title: TitleProjet, Items: nonEmpty(s.ProjetPhrase)},
	}
	for _, sec := range sections {
		fmt.Fprintf(&b, "    %s\n", sec.Title)
		for _, item := range sec.Items {
			fmt.Fprintf(&b, "      - %s\n", escapeMermaid(item))
		}
	}
	return b.String()
}

// RenderCards formats cards as plain text, one bullet per item.
func RenderCards(cards []Card) string {
	var b strings.Builder
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Title + "\n")
		if len(c.Items) == 0 {
			b.WriteString("  (non précisé)\n")
		}
		for _, item := range c.Items {
			fmt.Fprintf(&b, "  • %s\n", item)
		}
	}
	return b.String()
}

func languageItems(s fiche.Summary) []string {
	var items []string
	if s.Langue != "" {
		items = append(items, s.Langue)
	}
	if s.NiveauActuel != "" {
		items = append(items, "Niveau actuel: "+s.NiveauActuel)
	}
	if s.NiveauCible != "" {
		items = append(items, "Niveau cible: "+s.NiveauCible)
	}
	if s.AmbitionProgression != "" {
		items = append(items, "Ambition: "+s.AmbitionProgression)
	}
	return items
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// escapeMermaid replaces characters that break mindmap node text with their
// unicode escape sequences, and flattens line breaks.
func escapeMermaid(s string) string {
	replacer := strings.NewReplacer(
		"{", `\u007B`,
		"}", `\u007D`,
		"<", `\u003C`,
		">", `\u003E`,
		"\r\n", " ",
		"\n", " ",
	)
	return replacer.Replace(s)
}
