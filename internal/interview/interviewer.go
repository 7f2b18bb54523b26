package interview

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/orientation-agent/internal/fiche"
	"github.com/ziadkadry99/orientation-agent/internal/logger"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
)

// Messages shown by the machine itself.
const (
	msgPreparing    = "Merci ! Je prépare une synthèse positive de ton projet…"
	msgSummaryReady = "Synthèse et mindmap générées ✅"
	msgRevisitAck   = "Merci, c'est noté."
	msgRevisitIntro = "Avant de conclure, revenons rapidement sur quelques points."
)

// Policy is the follow-up policy applied to a question.
type Policy struct {
	MaxFollowups            int
	RevisitEnabled          bool
	SubstituteEmptyFollowup bool
	SimilarityThreshold     float64
	// ModelFinishEnds finalizes the interview when the model answers
	// next_action "finish" on an insufficient answer.
	ModelFinishEnds bool
}

// Saver persists session snapshots.
type Saver interface {
	Save(ctx context.Context, s *Session) error
}

// Options configures an Interviewer.
type Options struct {
	Questions []questions.Question
	Template  map[string]any
	Client    Completer
	// Policy is the default; questions may narrow MaxFollowups.
	Policy             Policy
	ExtractionEnabled  bool
	HistoryWindowChars int
	SummaryWindowChars int
	AppVersion         string
	// Store, when set, receives a snapshot after every mutation.
	Store  Saver
	Logger *logger.Logger
	Now    func() time.Time
}

// Interviewer drives sessions through the question list. It holds no
// per-session state and is safe for concurrent use across sessions; a single
// session must not be driven concurrently.
type Interviewer struct {
	questions  []questions.Question
	index      map[string]int
	template   map[string]any
	policy     Policy
	extraction bool
	appVersion string

	decider      *Decider
	vetter       *FollowupVetter
	reformulator *Reformulator
	extractor    *Extractor
	summarizer   *Summarizer

	store Saver
	log   *logger.Logger
	now   func() time.Time
}

// New creates an Interviewer.
func New(opts Options) *Interviewer {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	index := make(map[string]int, len(opts.Questions))
	for i, q := range opts.Questions {
		index[q.ID] = i
	}
	return &Interviewer{
		questions:    opts.Questions,
		index:        index,
		template:     opts.Template,
		policy:       opts.Policy,
		extraction:   opts.ExtractionEnabled,
		appVersion:   opts.AppVersion,
		decider:      NewDecider(opts.Client, opts.HistoryWindowChars),
		vetter:       NewFollowupVetter(opts.Client, opts.Policy.SimilarityThreshold),
		reformulator: NewReformulator(opts.Client),
		extractor:    NewExtractor(opts.Client),
		summarizer:   NewSummarizer(opts.Client, opts.SummaryWindowChars),
		store:        opts.Store,
		log:          opts.Logger,
		now:          opts.Now,
	}
}

// TurnResult describes what one operation changed.
type TurnResult struct {
	// Messages are the assistant messages appended by the operation.
	Messages []string        `json:"messages"`
	Phase    Phase           `json:"phase"`
	Progress int             `json:"progress"`
	Decision *DecisionResult `json:"decision,omitempty"`
	Alerts   []string        `json:"alerts,omitempty"`
	Summary  *fiche.Summary  `json:"summary,omitempty"`
	Recap    *Recap          `json:"recap,omitempty"`
}

// Questions returns the question list.
func (iv *Interviewer) Questions() []questions.Question {
	return iv.questions
}

// PolicyFor returns the policy for q, applying its cap override. The cap is
// clamped to questions.MaxFollowupsLimit, past which the vetter runs out of
// distinct phrasings.
func (iv *Interviewer) PolicyFor(q questions.Question) Policy {
	p := iv.policy
	if q.MaxFollowups != nil {
		p.MaxFollowups = *q.MaxFollowups
	}
	p.MaxFollowups = min(max(p.MaxFollowups, 0), questions.MaxFollowupsLimit)
	return p
}

// Progress returns the completion percentage of s.
func (iv *Interviewer) Progress(s *Session) int {
	if s.Done() || len(iv.questions) == 0 {
		return 100
	}
	pct := int(math.Round(float64(s.Index) / float64(len(iv.questions)) * 100))
	return min(100, max(0, pct))
}

// Start creates a session and asks the first question.
func (iv *Interviewer) Start(ctx context.Context, id string) (*Session, *TurnResult, error) {
	s := NewSession(id, iv.appVersion, iv.template, iv.now())
	mark := iv.mark(s)
	s.record(iv.now(), "start", "", 0, "")
	if len(iv.questions) > 0 {
		iv.ask(s)
	}
	if err := iv.persist(ctx, s); err != nil {
		return nil, nil, err
	}
	return s, iv.result(s, mark, nil), nil
}

// Answer submits the student's answer to the current question. On a decision
// failure the answer stays in the history, the question is unchanged and the
// error is returned so the student can resend.
func (iv *Interviewer) Answer(ctx context.Context, s *Session, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyAnswer
	}
	if s.Phase == PhaseFinalizing || s.Phase == PhaseFinished {
		return nil, ErrFinished
	}

	mark := iv.mark(s)
	now := iv.now()
	var responseTime time.Duration
	if !s.PromptedAt.IsZero() {
		responseTime = now.Sub(s.PromptedAt)
	}
	s.say(RoleUser, text, now)

	if s.Phase == PhaseRevisit {
		return iv.answerRevisit(ctx, s, text, mark, responseTime)
	}
	if s.Index >= len(iv.questions) {
		if err := iv.finalize(ctx, s); err != nil {
			return nil, err
		}
		return iv.commit(ctx, s, mark, nil)
	}

	q := iv.questions[s.Index]
	s.record(now, "answer", q.ID, responseTime, "")
	if err := iv.persist(ctx, s); err != nil {
		return nil, err
	}

	log := iv.log.With("session_id", s.ID, "question_id", q.ID)
	policy := iv.PolicyFor(q)
	in := DecisionInput{
		History:                 s.History,
		Question:                q.Text,
		Answer:                  text,
		Hint:                    q.Hint,
		Followups:               s.Ledger[q.ID],
		Attempts:                s.Attempts[q.ID],
		MaxFollowups:            policy.MaxFollowups,
		SubstituteEmptyFollowup: policy.SubstituteEmptyFollowup,
		AllowFinish:             policy.ModelFinishEnds,
	}

	// Decision and extraction run side by side. Extraction never fails the
	// turn, so a decision error must not cancel it.
	var (
		g            errgroup.Group
		decision     DecisionResult
		patch        PatchResult
		patchErr     error
		decisionTook time.Duration
		extractTook  time.Duration
	)
	g.Go(func() error {
		start := time.Now()
		d, err := iv.decider.Decide(ctx, in)
		decisionTook = time.Since(start)
		decision = d
		return err
	})
	if iv.extraction {
		g.Go(func() error {
			start := time.Now()
			patch, patchErr = iv.extractor.Extract(ctx, q, text, s.Profile)
			extractTook = time.Since(start)
			return nil
		})
	}
	err := g.Wait()

	if iv.extraction {
		iv.applyPatch(s, q, patch, patchErr, extractTook, log)
	}

	if err != nil {
		log.Error("decision failed", "call", "decision", "latency_ms", decisionTook.Milliseconds(), "error", err)
		s.record(iv.now(), "decision_error", q.ID, decisionTook, err.Error())
		if perr := iv.persist(ctx, s); perr != nil {
			log.Warn("persisting after decision failure", "error", perr)
		}
		return nil, err
	}

	log.Info("decision",
		"call", "decision",
		"latency_ms", decisionTook.Milliseconds(),
		"answered", decision.Answered,
		"next_action", decision.NextAction,
	)
	if decision.Guardrail != "" {
		log.Info("guardrail applied", "guardrail", decision.Guardrail, "reason", decision.Reason)
	}
	s.record(iv.now(), "decision", q.ID, decisionTook,
		fmt.Sprintf("answered=%t next_action=%s guardrail=%s", decision.Answered, decision.NextAction, decision.Guardrail))

	if decision.Answered {
		delete(s.Unsatisfied, q.ID)
		s.complete(q.ID)
		if err := iv.advance(ctx, s); err != nil {
			return nil, err
		}
		return iv.commit(ctx, s, mark, &decision)
	}

	s.markUnsatisfied(q.ID, text, decision.MissingPoints)
	if decision.NextAction == ActionFinish {
		delete(s.Attempts, q.ID)
		log.Info("model ended the interview", "reason", decision.Reason)
		s.record(iv.now(), "model_finish", q.ID, 0, decision.Reason)
		if err := iv.finalize(ctx, s); err != nil {
			return nil, err
		}
		return iv.commit(ctx, s, mark, &decision)
	}
	if decision.NextAction == ActionAskFollowup && s.Attempts[q.ID] < policy.MaxFollowups {
		followup := iv.vetter.Ensure(ctx, decision.FollowupQuestion, q, s.Ledger[q.ID], s.LastAssistant())
		if followup != decision.FollowupQuestion {
			log.Info("follow-up replaced", "proposed", decision.FollowupQuestion, "shown", followup)
		}
		s.Ledger[q.ID] = append(s.Ledger[q.ID], followup)
		s.Attempts[q.ID]++
		now := iv.now()
		s.say(RoleAssistant, followup, now)
		s.PromptedAt = now
		s.record(now, "followup", q.ID, 0, followup)
		return iv.commit(ctx, s, mark, &decision)
	}

	if err := iv.advance(ctx, s); err != nil {
		return nil, err
	}
	return iv.commit(ctx, s, mark, &decision)
}

// Skip leaves the current question without consulting the model, resetting
// its attempt counter and follow-up ledger.
func (iv *Interviewer) Skip(ctx context.Context, s *Session) (*TurnResult, error) {
	if s.Phase == PhaseFinalizing || s.Phase == PhaseFinished {
		return nil, ErrFinished
	}
	mark := iv.mark(s)

	if s.Phase == PhaseRevisit {
		if len(s.RevisitQueue) > 0 {
			s.record(iv.now(), "skip", s.RevisitQueue[0], 0, "revisit")
			s.RevisitQueue = s.RevisitQueue[1:]
		}
		if err := iv.nextRevisit(ctx, s); err != nil {
			return nil, err
		}
		return iv.commit(ctx, s, mark, nil)
	}

	if s.Index < len(iv.questions) {
		q := iv.questions[s.Index]
		s.record(iv.now(), "skip", q.ID, 0, "")
		// Follow-ups shown so far are dropped; an unsatisfied record stays so
		// the revisit pass can come back to the question.
		s.Ledger[q.ID] = []string{q.Text}
	}
	if err := iv.advance(ctx, s); err != nil {
		return nil, err
	}
	return iv.commit(ctx, s, mark, nil)
}

// Finish ends the interview now and generates the summary and recap, without
// a revisit pass. Finishing a finished session is a no-op; a session whose
// finalization failed can be finished again.
func (iv *Interviewer) Finish(ctx context.Context, s *Session) (*TurnResult, error) {
	mark := iv.mark(s)
	if s.Done() {
		return iv.result(s, mark, nil), nil
	}
	if err := iv.finalize(ctx, s); err != nil {
		return nil, err
	}
	return iv.commit(ctx, s, mark, nil)
}

// ask shows the current base question and opens its ledger.
func (iv *Interviewer) ask(s *Session) {
	q := iv.questions[s.Index]
	if len(s.Ledger[q.ID]) == 0 {
		s.Ledger[q.ID] = []string{q.Text}
	}
	now := iv.now()
	s.say(RoleAssistant, fmt.Sprintf("Q%d: %s", s.Index+1, q.Text), now)
	s.PromptedAt = now
}

// advance resets the current question's counter and moves on, ending the
// main pass after the last question.
func (iv *Interviewer) advance(ctx context.Context, s *Session) error {
	if s.Index < len(iv.questions) {
		delete(s.Attempts, iv.questions[s.Index].ID)
		s.Index++
	}
	if s.Index < len(iv.questions) {
		iv.ask(s)
		return nil
	}

	if iv.policy.RevisitEnabled {
		var queue []string
		for _, q := range iv.questions {
			if _, ok := s.Unsatisfied[q.ID]; ok && !q.SkipRevisit {
				queue = append(queue, q.ID)
			}
		}
		if len(queue) > 0 {
			s.Phase = PhaseRevisit
			s.RevisitQueue = queue
			s.say(RoleAssistant, msgRevisitIntro, iv.now())
			s.record(iv.now(), "revisit", "", 0, strings.Join(queue, ","))
			return iv.nextRevisit(ctx, s)
		}
	}
	return iv.finalize(ctx, s)
}

// nextRevisit asks the head of the revisit queue, or finalizes when empty.
func (iv *Interviewer) nextRevisit(ctx context.Context, s *Session) error {
	for len(s.RevisitQueue) > 0 {
		id := s.RevisitQueue[0]
		i, ok := iv.index[id]
		if !ok {
			s.RevisitQueue = s.RevisitQueue[1:]
			continue
		}
		q := iv.questions[i]

		var lastAnswers, missing []string
		if rec := s.Unsatisfied[id]; rec != nil {
			lastAnswers, missing = rec.LastAnswers, rec.MissingPoints
		}
		start := time.Now()
		text, err := iv.reformulator.Reformulate(ctx, q, lastAnswers, missing)
		took := time.Since(start)
		if err != nil {
			iv.log.Warn("reformulation failed, using original question",
				"session_id", s.ID, "question_id", id, "call", "reformulate", "error", err)
		}
		s.record(iv.now(), "reformulate", id, took, text)

		now := iv.now()
		s.Ledger[id] = append(s.Ledger[id], text)
		s.say(RoleAssistant, text, now)
		s.PromptedAt = now
		return nil
	}
	return iv.finalize(ctx, s)
}

// answerRevisit records the answer to a revisited question once, without
// further probing, and moves to the next one.
func (iv *Interviewer) answerRevisit(ctx context.Context, s *Session, text string, mark resultMark, responseTime time.Duration) (*TurnResult, error) {
	if len(s.RevisitQueue) == 0 {
		if err := iv.finalize(ctx, s); err != nil {
			return nil, err
		}
		return iv.commit(ctx, s, mark, nil)
	}

	id := s.RevisitQueue[0]
	s.record(iv.now(), "revisit_answer", id, responseTime, "")
	if err := iv.persist(ctx, s); err != nil {
		return nil, err
	}

	if i, ok := iv.index[id]; ok && iv.extraction {
		q := iv.questions[i]
		start := time.Now()
		patch, err := iv.extractor.Extract(ctx, q, text, s.Profile)
		iv.applyPatch(s, q, patch, err, time.Since(start), iv.log.With("session_id", s.ID, "question_id", id))
	}

	s.say(RoleAssistant, msgRevisitAck, iv.now())
	delete(s.Unsatisfied, id)
	s.RevisitQueue = s.RevisitQueue[1:]

	if err := iv.nextRevisit(ctx, s); err != nil {
		return nil, err
	}
	return iv.commit(ctx, s, mark, nil)
}

// finalize generates the summary and recap. On a summary failure the session
// stays in PhaseFinalizing with an alert, and the error is returned.
func (iv *Interviewer) finalize(ctx context.Context, s *Session) error {
	log := iv.log.With("session_id", s.ID)
	if s.Phase != PhaseFinalizing {
		s.Phase = PhaseFinalizing
		s.RevisitQueue = nil
		s.say(RoleAssistant, msgPreparing, iv.now())
		if err := iv.persist(ctx, s); err != nil {
			return err
		}
	}

	start := time.Now()
	res, err := iv.summarizer.Summarize(ctx, s.History, s.Profile)
	took := time.Since(start)
	if err != nil {
		log.Error("summary failed", "call", "summary", "latency_ms", took.Milliseconds(), "error", err)
		s.record(iv.now(), "summary_error", "", took, err.Error())
		s.Alerts = append(s.Alerts, "La synthèse n'a pas pu être générée : "+err.Error())
		if perr := iv.persist(ctx, s); perr != nil {
			log.Warn("persisting after summary failure", "error", perr)
		}
		return err
	}
	log.Info("summary", "call", "summary", "latency_ms", took.Milliseconds(), "missing", res.Missing)
	s.record(iv.now(), "summary", "", took, strings.Join(res.Missing, ","))
	summary := res.Summary
	s.Summary = &summary

	start = time.Now()
	recap, err := iv.summarizer.Recap(ctx, summary, s.Profile)
	took = time.Since(start)
	if err != nil {
		log.Warn("recap failed, using defaults", "call", "recap", "latency_ms", took.Milliseconds(), "error", err)
	}
	if len(recap.Defaulted) > 0 {
		s.Alerts = append(s.Alerts, "Récapitulatif : texte par défaut pour "+strings.Join(recap.Defaulted, ", ")+".")
	}
	s.record(iv.now(), "recap", "", took, strings.Join(recap.Defaulted, ","))
	s.Recap = &recap.Recap

	s.Unsatisfied = map[string]*UnsatisfiedRecord{}
	s.Phase = PhaseFinished
	s.say(RoleAssistant, msgSummaryReady, iv.now())
	return nil
}

func (iv *Interviewer) applyPatch(s *Session, q questions.Question, res PatchResult, err error, took time.Duration, log *logger.Logger) {
	if err != nil {
		log.Warn("extraction failed, keeping profile", "call", "extraction", "latency_ms", took.Milliseconds(), "error", err)
		s.record(iv.now(), "extraction_error", q.ID, took, err.Error())
		return
	}
	if len(res.Patch) > 0 {
		s.Profile = fiche.Merge(s.Profile, res.Patch, iv.now())
	}
	sections := make([]string, 0, len(res.Patch))
	for k := range res.Patch {
		sections = append(sections, k)
	}
	slices.Sort(sections)
	log.Debug("extraction", "call", "extraction", "latency_ms", took.Milliseconds(), "sections", sections)
	s.record(iv.now(), "extraction", q.ID, took, strings.Join(sections, ","))
	s.Alerts = append(s.Alerts, res.Alerts...)
}

func (iv *Interviewer) persist(ctx context.Context, s *Session) error {
	s.UpdatedAt = iv.now()
	if iv.store == nil {
		return nil
	}
	if err := iv.store.Save(ctx, s); err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return nil
}

// commit persists s and reports what changed since m.
func (iv *Interviewer) commit(ctx context.Context, s *Session, m resultMark, d *DecisionResult) (*TurnResult, error) {
	if err := iv.persist(ctx, s); err != nil {
		return nil, err
	}
	return iv.result(s, m, d), nil
}

type resultMark struct {
	history, alerts int
}

func (iv *Interviewer) mark(s *Session) resultMark {
	return resultMark{history: len(s.History), alerts: len(s.Alerts)}
}

func (iv *Interviewer) result(s *Session, m resultMark, d *DecisionResult) *TurnResult {
	res := &TurnResult{
		Messages: []string{},
		Phase:    s.Phase,
		Progress: iv.Progress(s),
		Decision: d,
		Summary:  s.Summary,
		Recap:    s.Recap,
	}
	for _, t := range s.History[min(m.history, len(s.History)):] {
		if t.Role == RoleAssistant {
			res.Messages = append(res.Messages, t.Content)
		}
	}
	if m.alerts < len(s.Alerts) {
		res.Alerts = append([]string(nil), s.Alerts[m.alerts:]...)
	}
	return res
}
