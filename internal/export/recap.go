package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/orientation-agent/internal/diagrams"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
)

// RecapMarkdown renders the recap sections, the summary cards and the
// mindmap as one markdown document.
func RecapMarkdown(s *interview.Session) (string, error) {
	if s.Summary == nil {
		return "", ErrNoSummary
	}
	recap := interview.DefaultRecap
	if s.Recap != nil {
		recap = *s.Recap
	}

	var b strings.Builder
	b.WriteString("# Ton projet de séjour\n\n")
	for _, sec := range recap.Sections() {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", sec.Title, escapeMarkdown(sec.Text))
	}

	b.WriteString("## Synthèse\n\n")
	for _, card := range diagrams.Cards(*s.Summary) {
		fmt.Fprintf(&b, "### %s\n\n", card.Title)
		if len(card.Items) == 0 {
			b.WriteString("_Non précisé_\n\n")
			continue
		}
		for _, item := range card.Items {
			fmt.Fprintf(&b, "- %s\n", escapeMarkdown(item))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Mindmap\n\n```mermaid\n")
	b.WriteString(diagrams.Mindmap(*s.Summary))
	b.WriteString("```\n")
	return b.String(), nil
}

// RecapHTML converts RecapMarkdown into a standalone HTML page that renders
// the mindmap client-side.
func RecapHTML(s *interview.Session) ([]byte, error) {
	src, err := RecapMarkdown(s)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	var body bytes.Buffer
	if err := md.Convert([]byte(src), &body); err != nil {
		return nil, fmt.Errorf("converting recap markdown: %w", err)
	}

	tmpl, err := template.New("recap").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing recap template: %w", err)
	}
	var page bytes.Buffer
	err = tmpl.Execute(&page, struct {
		Title   string
		Content template.HTML
	}{
		Title:   "Ton projet de séjour",
		Content: template.HTML(postProcessMermaid(body.String())),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering recap page: %w", err)
	}
	return page.Bytes(), nil
}

// postProcessMermaid turns fenced mermaid blocks into divs picked up by
// mermaid.js.
func postProcessMermaid(html string) string {
	const openTag = `<pre><code class="language-mermaid">`
	const closeTag = `</code></pre>`

	for {
		idx := strings.Index(html, openTag)
		if idx == -1 {
			break
		}
		endIdx := strings.Index(html[idx:], closeTag)
		if endIdx == -1 {
			break
		}
		endIdx += idx
		html = html[:idx] + `<div class="mermaid">` + html[idx+len(openTag):endIdx] + `</div>` + html[endIdx+len(closeTag):]
	}
	return html
}

// escapeMarkdown neutralises characters that would turn model prose into
// markup (raw HTML, emphasis, links).
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"<", "&lt;",
		">", "&gt;",
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
		"`", "\\`",
		"\n", " ",
	)
	return r.Replace(s)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; line-height: 1.55; color: #1f2328; }
    h1 { font-size: 1.8rem; }
    h2 { border-bottom: 1px solid #d0d7de; padding-bottom: .3rem; margin-top: 2rem; }
    h3 { margin-bottom: .3rem; }
    .mermaid { margin: 1.5rem 0; }
  </style>
</head>
<body>
  <main>
{{.Content}}
  </main>
  <script>mermaid.initialize({ startOnLoad: true });</script>
</body>
</html>
`
