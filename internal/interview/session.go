package interview

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/orientation-agent/internal/fiche"
)

// Phase is a state of the interview machine.
type Phase string

const (
	PhaseMain       Phase = "main"
	PhaseRevisit    Phase = "revisit"
	PhaseFinalizing Phase = "finalizing"
	PhaseFinished   Phase = "finished"
)

// Role identifies the author of a dialogue turn.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Turn is one message of the dialogue history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UnsatisfiedRecord tracks a question that was not answered within its cap.
type UnsatisfiedRecord struct {
	QuestionID    string   `json:"question_id"`
	LastAnswers   []string `json:"last_answers"`
	MissingPoints []string `json:"missing_points"`
}

// Event is an entry of the per-session event log.
type Event struct {
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
	Kind       string    `json:"kind"`
	QuestionID string    `json:"question_id,omitempty"`
	LatencyMS  int64     `json:"latency_ms,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Session is the full interview state. It is persisted as one JSON snapshot
// after every mutation and is owned by a single goroutine at a time.
type Session struct {
	ID         string `json:"id"`
	AppVersion string `json:"app_version"`
	Phase      Phase  `json:"phase"`
	// Index is the position in the question list; len(questions) once the
	// main pass is over.
	Index int `json:"index"`
	// Attempts counts the follow-ups asked for each question, in [0, cap].
	Attempts map[string]int `json:"attempts"`
	// Ledger lists every phrasing shown for a question, base text first.
	Ledger       map[string][]string           `json:"followup_ledger"`
	Completed    []string                      `json:"completed"`
	Unsatisfied  map[string]*UnsatisfiedRecord `json:"unsatisfied"`
	RevisitQueue []string                      `json:"revisit_queue,omitempty"`
	History      []Turn                        `json:"history"`
	Profile      fiche.Profile                 `json:"profile"`
	Summary      *fiche.Summary                `json:"summary,omitempty"`
	Recap        *Recap                        `json:"recap,omitempty"`
	Events       []Event                       `json:"events"`
	Alerts       []string                      `json:"alerts,omitempty"`
	// PromptedAt is when the current question or follow-up was shown.
	PromptedAt time.Time `json:"prompted_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSession returns an empty session positioned before the first question.
// An empty id is replaced by a random UUID.
func NewSession(id, appVersion string, template map[string]any, now time.Time) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		ID:          id,
		AppVersion:  appVersion,
		Phase:       PhaseMain,
		Attempts:    map[string]int{},
		Ledger:      map[string][]string{},
		Unsatisfied: map[string]*UnsatisfiedRecord{},
		Profile:     fiche.New(template),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Done reports whether the interview reached its terminal state.
func (s *Session) Done() bool {
	return s.Phase == PhaseFinished
}

// LastAssistant returns the most recent assistant message, or "".
func (s *Session) LastAssistant() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleAssistant {
			return s.History[i].Content
		}
	}
	return ""
}

func (s *Session) say(role Role, content string, now time.Time) {
	s.History = append(s.History, Turn{Role: role, Content: content})
	s.UpdatedAt = now
}

func (s *Session) record(now time.Time, kind, questionID string, latency time.Duration, detail string) {
	s.Events = append(s.Events, Event{
		ID:         uuid.NewString(),
		At:         now.UTC(),
		Kind:       kind,
		QuestionID: questionID,
		LatencyMS:  latency.Milliseconds(),
		Detail:     detail,
	})
	s.UpdatedAt = now
}

func (s *Session) complete(questionID string) {
	if !slices.Contains(s.Completed, questionID) {
		s.Completed = append(s.Completed, questionID)
	}
}

// markUnsatisfied upserts the record for questionID, keeping the last two answers.
func (s *Session) markUnsatisfied(questionID, answer string, missing []string) {
	if s.Unsatisfied == nil {
		s.Unsatisfied = map[string]*UnsatisfiedRecord{}
	}
	rec, ok := s.Unsatisfied[questionID]
	if !ok {
		rec = &UnsatisfiedRecord{QuestionID: questionID}
		s.Unsatisfied[questionID] = rec
	}
	rec.LastAnswers = append(rec.LastAnswers, answer)
	if len(rec.LastAnswers) > 2 {
		rec.LastAnswers = rec.LastAnswers[len(rec.LastAnswers)-2:]
	}
	if len(missing) > 0 {
		rec.MissingPoints = missing
	}
}
