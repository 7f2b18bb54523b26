// Package questions loads the interview script and the empty profile
// template it fills. Both ship embedded; files on disk override them.
package questions

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/questions.yml defaults/profile_template.json
var defaults embed.FS

// MaxFollowupsLimit is the largest follow-up cap a question may have: one
// per distinct fallback phrasing the interviewer can show.
const MaxFollowupsLimit = 7

// Question is one entry of the fixed interview script.
type Question struct {
	ID   string `yaml:"id" json:"id"`
	Text string `yaml:"text" json:"text"`
	Hint string `yaml:"hint,omitempty" json:"hint,omitempty"`
	// MaxFollowups overrides the configured cap for this question when set.
	MaxFollowups *int `yaml:"max_followups,omitempty" json:"max_followups,omitempty"`
	// SkipRevisit keeps the question out of the end-of-interview revisit pass.
	SkipRevisit bool `yaml:"skip_revisit,omitempty" json:"skip_revisit,omitempty"`
	// ProfileFields are the top-level profile sections an answer may fill.
	ProfileFields []string `yaml:"profile_fields,omitempty" json:"profile_fields,omitempty"`
	// Mapping tells the extraction model how the answer maps onto ProfileFields.
	Mapping string `yaml:"mapping,omitempty" json:"mapping,omitempty"`
}

// Default returns the embedded French interview script.
func Default() ([]Question, error) {
	data, err := defaults.ReadFile("defaults/questions.yml")
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Load reads questions from path, or the embedded defaults when path is empty.
// YAML and JSON files are both accepted.
func Load(path string) ([]Question, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading questions %s: %w", path, err)
	}
	qs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing questions %s: %w", path, err)
	}
	return qs, nil
}

// Parse decodes a YAML (or JSON) list of questions.
func Parse(data []byte) ([]Question, error) {
	var qs []Question
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&qs); err != nil {
		return nil, err
	}
	for i := range qs {
		qs[i].ID = strings.TrimSpace(qs[i].ID)
		qs[i].Text = strings.TrimSpace(qs[i].Text)
	}
	return qs, nil
}

// DefaultTemplate returns the embedded empty profile document.
func DefaultTemplate() (map[string]any, error) {
	data, err := defaults.ReadFile("defaults/profile_template.json")
	if err != nil {
		return nil, err
	}
	return parseTemplate(data)
}

// LoadTemplate reads the profile template from path, or the embedded default
// when path is empty.
func LoadTemplate(path string) (map[string]any, error) {
	if path == "" {
		return DefaultTemplate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile template %s: %w", path, err)
	}
	tmpl, err := parseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("parsing profile template %s: %w", path, err)
	}
	return tmpl, nil
}

func parseTemplate(data []byte) (map[string]any, error) {
	var tmpl map[string]any
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, errors.New("profile template is not a JSON object")
	}
	return tmpl, nil
}

// Validate checks ids are unique and non-empty, every question has text,
// caps are within [0, MaxFollowupsLimit] and every profile field exists in
// the template. It returns every problem found, joined.
func Validate(qs []Question, template map[string]any) error {
	if len(qs) == 0 {
		return errors.New("no questions")
	}
	var errs []error
	seen := make(map[string]bool, len(qs))
	for i, q := range qs {
		switch {
		case q.ID == "":
			errs = append(errs, fmt.Errorf("question %d: missing id", i+1))
		case seen[q.ID]:
			errs = append(errs, fmt.Errorf("question %d: duplicate id %q", i+1, q.ID))
		}
		seen[q.ID] = true
		if q.Text == "" {
			errs = append(errs, fmt.Errorf("question %q: missing text", q.ID))
		}
		if q.MaxFollowups != nil && (*q.MaxFollowups < 0 || *q.MaxFollowups > MaxFollowupsLimit) {
			errs = append(errs, fmt.Errorf("question %q: max_followups must be within [0, %d]", q.ID, MaxFollowupsLimit))
		}
		for _, f := range q.ProfileFields {
			if f == "meta" {
				errs = append(errs, fmt.Errorf("question %q: meta is reserved", q.ID))
				continue
			}
			if _, ok := template[f]; !ok {
				errs = append(errs, fmt.Errorf("question %q: unknown profile field %q", q.ID, f))
			}
		}
	}
	return errors.Join(errs...)
}
