package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/orientation-agent/internal/interview"
	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

// scriptedModel answers every call name with a fixed object. Calls named in
// block wait until release is closed.
type scriptedModel struct {
	mu      sync.Mutex
	replies map[string]map[string]any
	errs    map[string]error
	block   map[string]bool
	entered chan struct{}
	release chan struct{}
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		replies: map[string]map[string]any{
			"decision": {"answered": true, "next_action": "next_question", "reason": "ok"},
			"summary": {
				"objectifs": []any{"Progresser en anglais"},
				"priorites": []any{"oral"},
				"langue":    "anglais",
			},
			"recap": {"connaissance_de_soi": "Tu te connais bien."},
		},
		errs:    map[string]error{},
		block:   map[string]bool{},
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (m *scriptedModel) CompleteJSON(ctx context.Context, system, user string, opts llm.CallOptions) (map[string]any, error) {
	m.mu.Lock()
	reply, err, blocking := m.replies[opts.Name], m.errs[opts.Name], m.block[opts.Name]
	m.mu.Unlock()

	if blocking {
		m.entered <- struct{}{}
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if reply == nil {
		reply = map[string]any{}
	}
	return reply, nil
}

func newTestServer(t *testing.T, model *scriptedModel) (*Server, store.Store) {
	t.Helper()
	tmpl, err := questions.DefaultTemplate()
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore("test")
	iv := interview.New(interview.Options{
		Questions: []questions.Question{
			{ID: "motivation", Text: "Pourquoi partir ?", ProfileFields: []string{"motivation"}},
			{ID: "sejour", Text: "Quel séjour ?", ProfileFields: []string{"sejour"}},
		},
		Template:           tmpl,
		Client:             model,
		Policy:             interview.Policy{MaxFollowups: 2, SubstituteEmptyFollowup: true, SimilarityThreshold: 0.78},
		HistoryWindowChars: 1800,
		SummaryWindowChars: 4000,
		AppVersion:         "test",
		Store:              st,
	})
	return New(Config{Port: 0}, iv, st, nil), st
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func create(t *testing.T, srv *Server) string {
	t.Helper()
	w := do(t, srv, "POST", "/api/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string   `json:"session_id"`
		Messages  []string `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" || len(resp.Messages) != 1 || resp.Messages[0] != "Q1: Pourquoi partir ?" {
		t.Fatalf("unexpected create response: %s", w.Body.String())
	}
	return resp.SessionID
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, newScriptedModel())

	w := do(t, srv, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	tmpl, _ := questions.DefaultTemplate()
	iv := interview.New(interview.Options{Template: tmpl, Client: newScriptedModel()})
	srv := New(Config{AllowAll: true}, iv, store.NewMemoryStore("test"), nil)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestInterviewOverREST(t *testing.T) {
	srv, st := newTestServer(t, newScriptedModel())
	id := create(t, srv)

	w := do(t, srv, "POST", "/api/sessions/"+id+"/answer", `{"text":"Pour parler anglais"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("answer: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Messages []string        `json:"messages"`
		Phase    interview.Phase `json:"phase"`
		Progress int             `json:"progress"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Messages) != 1 || res.Messages[0] != "Q2: Quel séjour ?" || res.Progress != 50 {
		t.Errorf("answer result = %+v", res)
	}

	w = do(t, srv, "POST", "/api/sessions/"+id+"/skip", "")
	if w.Code != http.StatusOK {
		t.Fatalf("skip: %d %s", w.Code, w.Body.String())
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Phase != interview.PhaseFinished || res.Progress != 100 {
		t.Errorf("skip of last question should finish, got %+v", res)
	}

	sess, err := st.Load(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Summary == nil || sess.Recap == nil {
		t.Fatal("summary and recap should be persisted")
	}

	w = do(t, srv, "GET", "/api/sessions/"+id, "")
	var view sessionView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Phase != interview.PhaseFinished || len(view.Cards) != 5 || view.Prompt != "" {
		t.Errorf("view = %+v", view)
	}

	w = do(t, srv, "POST", "/api/sessions/"+id+"/answer", `{"text":"encore"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("answer after finish: expected 409, got %d", w.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t, newScriptedModel())
	id := create(t, srv)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown session", "GET", "/api/sessions/nope", "", http.StatusNotFound},
		{"answer unknown session", "POST", "/api/sessions/nope/answer", `{"text":"x"}`, http.StatusNotFound},
		{"bad json", "POST", "/api/sessions/" + id + "/answer", `{`, http.StatusBadRequest},
		{"empty answer", "POST", "/api/sessions/" + id + "/answer", `{"text":"  "}`, http.StatusBadRequest},
		{"unknown export", "GET", "/api/sessions/" + id + "/export/svg", "", http.StatusBadRequest},
		{"mindmap before summary", "GET", "/api/sessions/" + id + "/export/mindmap", "", http.StatusConflict},
		{"delete unknown", "DELETE", "/api/sessions/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	model := newScriptedModel()
	model.errs["decision"] = &llm.APIError{Provider: "openai", Status: 500, Message: "boom"}
	srv, st := newTestServer(t, model)
	id := create(t, srv)

	w := do(t, srv, "POST", "/api/sessions/"+id+"/answer", `{"text":"Pour parler anglais"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}

	sess, err := st.Load(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Index != 0 {
		t.Errorf("failed turn advanced to %d", sess.Index)
	}
	if last := sess.History[len(sess.History)-1]; last.Role != interview.RoleUser {
		t.Errorf("user answer should be kept, last turn = %+v", last)
	}
}

func TestConcurrentTurnIsRejected(t *testing.T) {
	model := newScriptedModel()
	srv, _ := newTestServer(t, model)
	id := create(t, srv)

	model.mu.Lock()
	model.block["decision"] = true
	model.mu.Unlock()

	done := make(chan int)
	go func() {
		w := do(t, srv, "POST", "/api/sessions/"+id+"/answer", `{"text":"Pour parler anglais"}`)
		done <- w.Code
	}()

	select {
	case <-model.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("decision call never started")
	}

	if w := do(t, srv, "POST", "/api/sessions/"+id+"/skip", ""); w.Code != http.StatusConflict {
		t.Errorf("concurrent skip: expected 409, got %d", w.Code)
	}
	if w := do(t, srv, "DELETE", "/api/sessions/"+id, ""); w.Code != http.StatusConflict {
		t.Errorf("concurrent delete: expected 409, got %d", w.Code)
	}

	close(model.release)
	if code := <-done; code != http.StatusOK {
		t.Errorf("first turn: expected 200, got %d", code)
	}
}

func TestDeleteAndList(t *testing.T) {
	srv, _ := newTestServer(t, newScriptedModel())
	a := create(t, srv)
	create(t, srv)

	w := do(t, srv, "GET", "/api/sessions", "")
	var metas []store.Meta
	json.Unmarshal(w.Body.Bytes(), &metas)
	if len(metas) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(metas))
	}

	if w := do(t, srv, "DELETE", "/api/sessions/"+a, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w := do(t, srv, "GET", "/api/sessions/"+a, ""); w.Code != http.StatusNotFound {
		t.Errorf("deleted session still readable: %d", w.Code)
	}
}

func TestExportEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, newScriptedModel())
	id := create(t, srv)
	if w := do(t, srv, "POST", "/api/sessions/"+id+"/finish", ""); w.Code != http.StatusOK {
		t.Fatalf("finish: %d %s", w.Code, w.Body.String())
	}

	tests := []struct {
		kind        string
		contentType string
		contains    string
	}{
		{"profile", "application/json", `"motivation"`},
		{"dialogue", "application/json", `"session_id"`},
		{"mindmap", "text/plain; charset=utf-8", "mindmap\n  root((Mon projet))"},
		{"recap", "text/html; charset=utf-8", `<div class="mermaid">`},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			w := do(t, srv, "GET", "/api/sessions/"+id+"/export/"+tt.kind, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q", ct)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestQuestionsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, newScriptedModel())
	w := do(t, srv, "GET", "/api/questions", "")
	var qs []questions.Question
	if err := json.Unmarshal(w.Body.Bytes(), &qs); err != nil {
		t.Fatal(err)
	}
	if len(qs) != 2 || qs[0].ID != "motivation" {
		t.Errorf("questions = %+v", qs)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{interview.ErrEmptyAnswer, http.StatusBadRequest},
		{store.ErrNotFound, http.StatusNotFound},
		{interview.ErrFinished, http.StatusConflict},
		{errBusy, http.StatusConflict},
		{errors.New("decision: upstream"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/interview"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) chatResponse {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestWebSocketInterview(t *testing.T) {
	srv, _ := newTestServer(t, newScriptedModel())
	conn := dialWS(t, srv)

	conn.WriteJSON(chatRequest{Type: "start"})
	first := readFrame(t, conn)
	if first.Type != "message" || first.Content != "Q1: Pourquoi partir ?" || first.SessionID == "" {
		t.Fatalf("unexpected first frame: %+v", first)
	}

	conn.WriteJSON(chatRequest{Type: "answer", SessionID: first.SessionID, Content: "Pour parler anglais"})
	second := readFrame(t, conn)
	if second.Content != "Q2: Quel séjour ?" || second.Progress != 50 {
		t.Errorf("unexpected second frame: %+v", second)
	}

	conn.WriteJSON(chatRequest{Type: "finish", SessionID: first.SessionID})
	var summary chatResponse
	for i := 0; i < 5; i++ {
		f := readFrame(t, conn)
		if f.Type == "summary" {
			summary = f
			break
		}
	}
	if summary.Summary == nil || !strings.HasPrefix(summary.Content, "mindmap\n") || len(summary.Cards) != 5 {
		t.Errorf("unexpected summary frame: %+v", summary)
	}
}

func TestWebSocketErrors(t *testing.T) {
	srv, _ := newTestServer(t, newScriptedModel())
	conn := dialWS(t, srv)

	tests := []struct {
		name string
		send string
		want string
	}{
		{"invalid json", `{`, "invalid message format"},
		{"missing session", `{"type":"answer","content":"x"}`, "session_id is required"},
		{"unknown type", `{"type":"ask","session_id":"s"}`, "unknown message type: ask"},
		{"unknown session", `{"type":"skip","session_id":"nope"}`, store.ErrNotFound.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.send)); err != nil {
				t.Fatal(err)
			}
			resp := readFrame(t, conn)
			if resp.Type != "error" || resp.Content != tt.want {
				t.Errorf("got %+v, want error %q", resp, tt.want)
			}
		})
	}
}
