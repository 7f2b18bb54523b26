package similarity

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Quel pays ?", "quel pays"},
		{"  Études,   à l'étranger!! ", "etudes a l etranger"},
		{"Q3: Où veux-tu aller ?", "q3 ou veux tu aller"},
		{"", ""},
		{"?!...", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("Séjour Linguistique"); got != "sejour linguistique" {
		t.Errorf("Fold = %q", got)
	}
	if got := Fold("Année de CÉSURE"); got != "annee de cesure" {
		t.Errorf("Fold = %q", got)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"bonjour", "", 0},
		{"a b c", "a b c", 1},
		{"a b c d", "a b", 0.5},
		{"Où veux-tu aller ?", "où VEUX tu aller", 1},
		{"chat chien", "poisson oiseau", 0},
	}
	for _, tt := range tests {
		got := Jaccard(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Jaccard(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsDuplicate(t *testing.T) {
	base := "Quelle langue veux-tu pratiquer, quel est ton niveau actuel et quel niveau vises-tu ?"
	tests := []struct {
		name      string
		candidate string
		previous  []string
		last      string
		want      bool
	}{
		{"identical to base", base, []string{base}, "", true},
		{"identical to last assistant", "Peux-tu préciser ?", nil, "peux tu preciser", true},
		{"punctuation only differs", "Quelle langue veux tu pratiquer quel est ton niveau actuel et quel niveau vises tu", []string{base}, "", true},
		{"different angle", "As-tu déjà passé un test officiel comme le TOEIC ?", []string{base}, base, false},
		{"empty history", "Peux-tu donner un exemple ?", nil, "", false},
		{"blank previous ignored", "Peux-tu donner un exemple ?", []string{"", "  "}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicate(tt.candidate, tt.previous, tt.last, DefaultThreshold); got != tt.want {
				t.Errorf("IsDuplicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDuplicateThreshold(t *testing.T) {
	// 4 shared tokens out of 5: similarity 0.8.
	a := "un deux trois quatre"
	b := "un deux trois quatre cinq"
	if !IsDuplicate(b, []string{a}, "", 0.78) {
		t.Error("0.8 should exceed 0.78")
	}
	if IsDuplicate(b, []string{a}, "", 0.85) {
		t.Error("0.8 should not exceed 0.85")
	}
	if !IsDuplicate(b, []string{a}, "", 0) {
		t.Error("zero threshold should fall back to the default")
	}
}
