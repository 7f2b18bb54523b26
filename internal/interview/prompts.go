package interview

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/orientation-agent/internal/fiche"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
)

const condensedPrefix = "Historique condensé...\n"

// condenseHistory renders turns as "ROLE: content" lines and keeps the last
// maxChars characters.
func condenseHistory(turns []Turn, maxChars int) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, strings.ToUpper(string(t.Role))+": "+t.Content)
	}
	joined := strings.Join(lines, "\n")
	if maxChars <= 0 || len(joined) <= maxChars {
		return joined
	}
	tail := joined[len(joined)-maxChars:]
	// Do not start in the middle of a UTF-8 sequence.
	for len(tail) > 0 && !isRuneStart(tail[0]) {
		tail = tail[1:]
	}
	return condensedPrefix + tail
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

const decisionSystemPrompt = `Tu es un conseiller d'orientation. Une seule question à la fois.
Juge si l'élève a répondu au cœur de la question avec un contenu concret et actionnable : un choix clair ou une information liée au point central, même succincte.
Sont "pas répondu" : réponse vide, hors sujet, "je ne sais pas", généralités non actionnables, élément central manquant.
Si répondu : answered=true et next_action="next_question".
Si pas répondu : answered=false, next_action="ask_followup" et UNE seule relance courte et ciblée sur l'élément manquant, différente de toutes les relances déjà posées.
Ne dépasse jamais le nombre maximal de relances indiqué. Ton bref et bienveillant.

Schéma JSON attendu :
{"answered": bool, "next_action": "ask_followup|next_question|finish", "followup_question": "string", "missing_points": ["string"], "reason": "string"}`

func buildDecisionPrompt(in DecisionInput, historyChars int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Contexte :\n%s\n", condenseHistory(in.History, historyChars))
	fmt.Fprintf(&b, "\nQuestion courante : %q\n", in.Question)
	fmt.Fprintf(&b, "Réponse de l'élève : %q\n", in.Answer)

	b.WriteString("\nRelances déjà posées pour cette question :\n")
	if len(in.Followups) > 0 {
		for _, f := range in.Followups {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	} else {
		b.WriteString("(aucune)\n")
	}

	fmt.Fprintf(&b, "\nrelances_utilisees=%d\nrelances_max=%d\n", in.Attempts, in.MaxFollowups)
	if in.Hint != "" {
		fmt.Fprintf(&b, "indice=%q (à utiliser seulement si l'élément manque réellement)\n", in.Hint)
	}
	return b.String()
}

const rephraseSystemPrompt = `Tu reformules UNE relance d'entretien d'orientation qui ressemble trop à une question déjà posée.
Change d'angle : quand, où, combien, avec qui, ou comment mesurer. Une seule phrase courte, tutoiement.

Schéma JSON attendu :
{"followup_question": "string"}`

func buildRephrasePrompt(proposed string, q questions.Question, ledger []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question de départ : %q\n", q.Text)
	b.WriteString("Déjà posées :\n")
	for _, l := range ledger {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	fmt.Fprintf(&b, "\nRelance à reformuler : %q\n", proposed)
	return b.String()
}

const reformulateSystemPrompt = `Tu reformules UNE SEULE question, concise et claire, pour obtenir le point manquant.
Cible précisément les éléments manquants. Ton but est d'aider l'élève à donner une réponse actionnable.

Schéma JSON attendu :
{"reformulated_question": "string", "reason": "string"}`

func buildReformulatePrompt(q questions.Question, lastAnswers, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question initiale : %q\n\n", q.Text)
	if len(lastAnswers) > 0 {
		fmt.Fprintf(&b, "Dernières réponses de l'élève :\n- %s\n\n", strings.Join(lastAnswers, "\n- "))
	} else {
		b.WriteString("Dernières réponses de l'élève : (aucune)\n\n")
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Points manquants identifiés :\n- %s\n", strings.Join(missing, "\n- "))
	} else {
		b.WriteString("Points manquants : (non précisés)\n")
	}
	return b.String()
}

const extractionSystemPrompt = `Tu remplis une fiche élève structurée à partir d'UNE réponse.
N'écris que les champs explicitement et sans ambiguïté présents dans la réponse. Ne devine jamais : laisse vide, ou "unknown" pour un niveau CECR, tout ce qui n'est pas dit.
Tu ne peux écrire que dans les sections autorisées. Les listes remplacent entièrement la valeur existante : renvoie la liste complète.
Ajoute dans "alerts" toute incohérence ou information sensible repérée (sinon liste vide).

Schéma JSON attendu :
{"patch": {<sections autorisées>}, "alerts": ["string"]}`

func buildExtractionPrompt(q questions.Question, answer string, profile fiche.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sections autorisées : %s\n", strings.Join(q.ProfileFields, ", "))
	if q.Mapping != "" {
		fmt.Fprintf(&b, "Correspondance : %s\n", q.Mapping)
	}
	fmt.Fprintf(&b, "\nValeurs actuelles :\n%s\n", profile.Section(q.ProfileFields...))
	fmt.Fprintf(&b, "\nQuestion : %q\n", q.Text)
	fmt.Fprintf(&b, "Réponse de l'élève : %q\n", answer)
	return b.String()
}

const summarySystemPrompt = `Tu fais une synthèse positive et fidèle du projet de l'élève pour une mindmap.
"projet_phrase_ultra_positive" : courte, claire, enthousiaste et fidèle. N'invente rien.
Les champs déjà présents dans la fiche élève font foi.

Schéma JSON attendu :
{"objectifs": ["string"], "priorites": ["string"], "format_ideal": "string", "langue": "string", "niveau_actuel": "string", "niveau_cible": "string", "ambition_progression": "string", "projet_phrase_ultra_positive": "string", "meta": {"pays_cibles": ["string"], "depaysement_pref": "string", "duree_pref": "string", "bourse_interet": "string", "inquietudes_top": ["string"]}, "confidence": 0.0}`

func buildSummaryPrompt(history []Turn, profile fiche.Profile, historyChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Historique :\n%s\n", condenseHistory(history, historyChars))
	if data, err := profile.JSON(); err == nil {
		fmt.Fprintf(&b, "\nFiche élève :\n%s\n", data)
	}
	return b.String()
}

const recapSystemPrompt = `Tu rédiges le récapitulatif final d'un entretien d'orientation, en quatre sections de deux ou trois phrases chacune, au tutoiement, positives et fidèles.
Sections : connaissance_de_soi, ambition_academique, cadre_de_vie, orientation_sociale.
En cas de désaccord entre la synthèse et la fiche élève, la fiche fait foi. N'invente rien.

Schéma JSON attendu :
{"connaissance_de_soi": "string", "ambition_academique": "string", "cadre_de_vie": "string", "orientation_sociale": "string"}`

func buildRecapPrompt(summary fiche.Summary, profile fiche.Profile) string {
	var b strings.Builder
	if data, err := jsonIndent(summary); err == nil {
		fmt.Fprintf(&b, "Synthèse :\n%s\n", data)
	}
	if data, err := profile.JSON(); err == nil {
		fmt.Fprintf(&b, "\nFiche élève :\n%s\n", data)
	}
	return b.String()
}
