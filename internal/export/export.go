// Package export renders a finished interview session to files: the profile
// JSON, the dialogue with its summary, the mindmap source and the recap page.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/orientation-agent/internal/diagrams"
	"github.com/ziadkadry99/orientation-agent/internal/fiche"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
)

// ErrNoSummary is returned for exports that need a generated summary.
var ErrNoSummary = errors.New("summary not generated yet")

// Kind names one export format.
type Kind string

const (
	KindProfile  Kind = "profile"
	KindDialogue Kind = "dialogue"
	KindMindmap  Kind = "mindmap"
	KindRecap    Kind = "recap"
)

// Kinds lists every export format in a stable order.
var Kinds = []Kind{KindProfile, KindDialogue, KindMindmap, KindRecap}

// ParseKind validates a user-supplied export name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown export %q: must be one of profile, dialogue, mindmap, recap", s)
}

// Document is a rendered export.
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Render produces the export of the given kind.
func Render(s *interview.Session, kind Kind) (*Document, error) {
	switch kind {
	case KindProfile:
		data, err := ProfileJSON(s)
		if err != nil {
			return nil, err
		}
		return &Document{data, "application/json", "fiche_" + s.ID + ".json"}, nil
	case KindDialogue:
		data, err := DialogueJSON(s)
		if err != nil {
			return nil, err
		}
		return &Document{data, "application/json", "dialogue_" + s.ID + ".json"}, nil
	case KindMindmap:
		mm, err := Mindmap(s)
		if err != nil {
			return nil, err
		}
		return &Document{[]byte(mm), "text/plain; charset=utf-8", "mindmap_" + s.ID + ".mmd"}, nil
	case KindRecap:
		page, err := RecapHTML(s)
		if err != nil {
			return nil, err
		}
		return &Document{page, "text/html; charset=utf-8", "recap_" + s.ID + ".html"}, nil
	default:
		return nil, fmt.Errorf("unknown export %q", kind)
	}
}

// ProfileJSON returns the indented student profile.
func ProfileJSON(s *interview.Session) ([]byte, error) {
	data, err := json.MarshalIndent(s.Profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding profile: %w", err)
	}
	return data, nil
}

// Dialogue is the shareable record of an interview.
type Dialogue struct {
	SessionID  string            `json:"session_id"`
	AppVersion string            `json:"app_version"`
	Phase      interview.Phase   `json:"phase"`
	History    []interview.Turn  `json:"history"`
	Summary    *fiche.Summary    `json:"summary,omitempty"`
	Recap      *interview.Recap  `json:"recap,omitempty"`
	Alerts     []string          `json:"alerts,omitempty"`
	Events     []interview.Event `json:"events,omitempty"`
}

// DialogueJSON returns the dialogue, summary and recap as indented JSON.
func DialogueJSON(s *interview.Session) ([]byte, error) {
	d := Dialogue{
		SessionID:  s.ID,
		AppVersion: s.AppVersion,
		Phase:      s.Phase,
		History:    s.History,
		Summary:    s.Summary,
		Recap:      s.Recap,
		Alerts:     s.Alerts,
		Events:     s.Events,
	}
	if d.History == nil {
		d.History = []interview.Turn{}
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding dialogue: %w", err)
	}
	return data, nil
}

// Mindmap returns the Mermaid mindmap of the session summary.
func Mindmap(s *interview.Session) (string, error) {
	if s.Summary == nil {
		return "", ErrNoSummary
	}
	return diagrams.Mindmap(*s.Summary), nil
}

// WriteAll writes every available export into dir and returns the written
// paths. Summary-dependent exports are skipped while no summary exists.
func WriteAll(dir string, s *interview.Session) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	var written []string
	for _, kind := range Kinds {
		doc, err := Render(s, kind)
		if errors.Is(err, ErrNoSummary) {
			continue
		}
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, doc.Filename)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
