package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/orientation-agent/internal/diagrams"
	"github.com/ziadkadry99/orientation-agent/internal/export"
	"github.com/ziadkadry99/orientation-agent/internal/fiche"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

var errBusy = errors.New("a turn is already in progress for this session")

// sessionView is the JSON view of a stored session.
type sessionView struct {
	ID        string           `json:"id"`
	Phase     interview.Phase  `json:"phase"`
	Progress  int              `json:"progress"`
	Prompt    string           `json:"prompt,omitempty"`
	History   []interview.Turn `json:"history"`
	Profile   fiche.Profile    `json:"profile"`
	Summary   *fiche.Summary   `json:"summary,omitempty"`
	Cards     []diagrams.Card  `json:"cards,omitempty"`
	Recap     *interview.Recap `json:"recap,omitempty"`
	Alerts    []string         `json:"alerts,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (s *Server) view(sess *interview.Session) sessionView {
	v := sessionView{
		ID:        sess.ID,
		Phase:     sess.Phase,
		Progress:  s.iv.Progress(sess),
		History:   sess.History,
		Profile:   sess.Profile,
		Summary:   sess.Summary,
		Recap:     sess.Recap,
		Alerts:    sess.Alerts,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
	if !sess.Done() {
		v.Prompt = sess.LastAssistant()
	}
	if sess.Summary != nil {
		v.Cards = diagrams.Cards(*sess.Summary)
	}
	if v.History == nil {
		v.History = []interview.Turn{}
	}
	return v
}

// turnResponse wraps a turn result with the session it belongs to.
type turnResponse struct {
	SessionID string `json:"session_id"`
	*interview.TurnResult
}

type answerRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.iv.Questions())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	metas, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if metas == nil {
		metas = []store.Meta{}
	}
	writeJSON(w, http.StatusOK, metas)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, res, err := s.iv.Start(r.Context(), "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, turnResponse{SessionID: sess.ID, TurnResult: res})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	release, ok := s.locks.tryAcquire(id)
	if !ok {
		s.writeError(w, errBusy)
		return
	}
	defer release()

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.locks.forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	s.turn(w, r, func(ctx context.Context, sess *interview.Session) (*interview.TurnResult, error) {
		return s.iv.Answer(ctx, sess, req.Text)
	})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, s.iv.Skip)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, s.iv.Finish)
}

type turnFunc func(ctx context.Context, sess *interview.Session) (*interview.TurnResult, error)

// turn runs fn on the stored session while holding its lock.
func (s *Server) turn(w http.ResponseWriter, r *http.Request, fn turnFunc) {
	id := chi.URLParam(r, "id")
	res, err := s.runTurn(r.Context(), id, fn)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{SessionID: id, TurnResult: res})
}

func (s *Server) runTurn(ctx context.Context, id string, fn turnFunc) (*interview.TurnResult, error) {
	release, ok := s.locks.tryAcquire(id)
	if !ok {
		return nil, errBusy
	}
	defer release()

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return fn(ctx, sess)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, err := export.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sess, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := export.Render(sess, kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

// statusFor maps domain errors to HTTP statuses. Anything unrecognised comes
// from the model or the snapshot store.
func statusFor(err error) int {
	switch {
	case errors.Is(err, interview.ErrEmptyAnswer):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBusy),
		errors.Is(err, interview.ErrFinished),
		errors.Is(err, export.ErrNoSummary):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusBadGateway {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
