package fiche

import (
	"strings"

	"github.com/ziadkadry99/orientation-agent/internal/similarity"
)

// CECRLevels lists the proficiency scale in ascending order.
var CECRLevels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// CECRRank returns the 1-based rank of a CECR level, or 0 when the value is
// not a level ("unknown", empty, free text).
func CECRRank(level string) int {
	l := strings.ToUpper(strings.TrimSpace(level))
	for i, v := range CECRLevels {
		if v == l {
			return i + 1
		}
	}
	return 0
}

// Progression ambition labels.
const (
	AmbitionStrong    = "forte"
	AmbitionModerate  = "modérée"
	AmbitionStabilize = "stabilisation"
)

// Ambition labels the gap between the current and target levels. It returns
// "" unless both levels are known.
func Ambition(current, target string) string {
	cur, tgt := CECRRank(current), CECRRank(target)
	if cur == 0 || tgt == 0 {
		return ""
	}
	switch gap := tgt - cur; {
	case gap >= 2:
		return AmbitionStrong
	case gap == 1:
		return AmbitionModerate
	default:
		return AmbitionStabilize
	}
}

// stayTypeLabels maps type_sejour values to display labels.
var stayTypeLabels = map[string]string{
	"etudes":              "Études",
	"stage":               "Stage",
	"volontariat":         "Volontariat",
	"job":                 "Job",
	"sejour_linguistique": "Séjour linguistique",
	"annee_cesure":        "Année de césure",
}

// StayTypeLabel returns the display label of a stay type. Matching ignores
// case, accents and spaces versus underscores; unknown values are returned as is.
func StayTypeLabel(v string) string {
	if label, ok := stayTypeLabels[enumKey(v)]; ok {
		return label
	}
	return strings.TrimSpace(v)
}

// categoryObjectives maps motivation.categorie_prioritaire to an objective.
var categoryObjectives = map[string]string{
	"langue":                  "Progresser dans une langue étrangère",
	"etudes":                  "Poursuivre mes études à l'étranger",
	"experience_pro":          "Acquérir une expérience professionnelle",
	"ouverture_culturelle":    "Découvrir une autre culture",
	"developpement_personnel": "Gagner en autonomie et en confiance",
	"aventure":                "Vivre une aventure",
}

// CategoryObjective returns the objective label of a motivation category;
// unknown values are returned as is.
func CategoryObjective(v string) string {
	if label, ok := categoryObjectives[enumKey(v)]; ok {
		return label
	}
	return strings.TrimSpace(v)
}

// IsUnknown reports whether v carries no information.
func IsUnknown(v string) bool {
	switch enumKey(v) {
	case "", "unknown", "inconnu", "non_precise", "n_a":
		return true
	}
	return false
}

func enumKey(v string) string {
	return strings.ReplaceAll(similarity.Normalize(v), " ", "_")
}
