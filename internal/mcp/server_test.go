package mcp

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/orientation-agent/internal/interview"
	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

// mockModel answers each call name with a fixed object.
type mockModel struct {
	mu      sync.Mutex
	replies map[string]map[string]any
	errs    map[string]error
}

func newMockModel() *mockModel {
	return &mockModel{
		replies: map[string]map[string]any{
			"decision": {"answered": true, "next_action": "next_question", "reason": "ok"},
			"summary": {
				"objectifs": []any{"Travailler à l'étranger"},
				"priorites": []any{"anglais"},
				"langue":    "anglais",
			},
			"recap": {"connaissance_de_soi": "Tu sais ce que tu veux."},
		},
		errs: map[string]error{},
	}
}

func (m *mockModel) CompleteJSON(_ context.Context, _, _ string, opts llm.CallOptions) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[opts.Name]; err != nil {
		return nil, err
	}
	if r := m.replies[opts.Name]; r != nil {
		return r, nil
	}
	return map[string]any{}, nil
}

func newTestServer(t *testing.T, model *mockModel) (*Server, store.Store) {
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
	return NewServer(iv, st, nil), st
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String(), result.IsError
}

func startSession(t *testing.T, srv *Server, st store.Store) string {
	t.Helper()
	text, isErr := call(t, srv.handleStartInterview, nil)
	if isErr {
		t.Fatalf("start_interview failed: %s", text)
	}
	if !strings.Contains(text, "Q1: Pourquoi partir ?") {
		t.Errorf("first question missing: %s", text)
	}
	metas, err := st.List(context.Background())
	if err != nil || len(metas) != 1 {
		t.Fatalf("expected one stored session, got %v (%v)", metas, err)
	}
	return metas[0].ID
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{startInterviewTool, "start_interview"},
		{answerTool, "answer"},
		{skipQuestionTool, "skip_question"},
		{finishInterviewTool, "finish_interview"},
		{getSessionTool, "get_session"},
		{listSessionsTool, "list_sessions"},
		{exportSessionTool, "export_session"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, st := newTestServer(t, newMockModel())
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.store != st {
		t.Error("store not set correctly")
	}
}

func TestInterviewThroughTools(t *testing.T) {
	srv, st := newTestServer(t, newMockModel())
	id := startSession(t, srv, st)

	text, isErr := call(t, srv.handleAnswer, map[string]any{"session_id": id, "answer": "Pour travailler en anglais"})
	if isErr || !strings.Contains(text, "Q2: Quel séjour ?") || !strings.Contains(text, "Progress: 50%") {
		t.Fatalf("unexpected answer result (error=%t): %s", isErr, text)
	}

	text, isErr = call(t, srv.handleSkip, map[string]any{"session_id": id})
	if isErr {
		t.Fatalf("skip_question failed: %s", text)
	}
	if !strings.Contains(text, "Phase: finished") || !strings.Contains(text, "Travailler à l'étranger") {
		t.Errorf("expected the synthesis after the last question: %s", text)
	}

	text, _ = call(t, srv.handleGetSession, map[string]any{"session_id": id})
	if !strings.Contains(text, "Progress: 100%") || strings.Contains(text, "Pending question") {
		t.Errorf("unexpected session state: %s", text)
	}

	text, isErr = call(t, srv.handleAnswer, map[string]any{"session_id": id, "answer": "encore"})
	if !isErr || !strings.Contains(text, "finished") {
		t.Errorf("answering a finished interview should fail: %s", text)
	}
}

func TestHandleExport(t *testing.T) {
	srv, st := newTestServer(t, newMockModel())
	id := startSession(t, srv, st)

	text, isErr := call(t, srv.handleExport, map[string]any{"session_id": id, "kind": "mindmap"})
	if !isErr || !strings.Contains(text, "finish the interview") {
		t.Errorf("mindmap before the synthesis should fail: %s", text)
	}

	text, isErr = call(t, srv.handleExport, map[string]any{"session_id": id, "kind": "dialogue"})
	if isErr || !strings.Contains(text, "Pourquoi partir ?") {
		t.Errorf("dialogue export: %s", text)
	}

	if _, isErr := call(t, srv.handleFinish, map[string]any{"session_id": id}); isErr {
		t.Fatal("finish_interview failed")
	}

	text, isErr = call(t, srv.handleExport, map[string]any{"session_id": id, "kind": "mindmap"})
	if isErr || !strings.HasPrefix(text, "mindmap") {
		t.Errorf("mindmap export: %s", text)
	}
	text, isErr = call(t, srv.handleExport, map[string]any{"session_id": id, "kind": "recap"})
	if isErr || !strings.Contains(text, "```mermaid") {
		t.Errorf("recap export should be Markdown: %s", text)
	}

	if _, isErr := call(t, srv.handleExport, map[string]any{"session_id": id, "kind": "pdf"}); !isErr {
		t.Error("unknown kind should be a tool error")
	}
}

func TestToolErrors(t *testing.T) {
	model := newMockModel()
	srv, st := newTestServer(t, model)
	id := startSession(t, srv, st)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		want    string
	}{
		{"missing session id", srv.handleSkip, map[string]any{}, "session_id"},
		{"missing answer", srv.handleAnswer, map[string]any{"session_id": id}, "answer"},
		{"unknown session", srv.handleGetSession, map[string]any{"session_id": "nope"}, "not found"},
		{"blank answer", srv.handleAnswer, map[string]any{"session_id": id, "answer": "  "}, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, tt.handler, tt.args)
			if !isErr || !strings.Contains(text, tt.want) {
				t.Errorf("expected tool error containing %q, got %q (error=%t)", tt.want, text, isErr)
			}
		})
	}

	model.errs["decision"] = &llm.APIError{Provider: "openai", Status: 500, Message: "boom"}
	text, isErr := call(t, srv.handleAnswer, map[string]any{"session_id": id, "answer": "réponse"})
	if !isErr || !strings.Contains(text, "did not advance") {
		t.Errorf("upstream failure should be retryable: %s", text)
	}
	sess, err := st.Load(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Index != 0 {
		t.Errorf("turn advanced despite the failure, index=%d", sess.Index)
	}
}

func TestBusySession(t *testing.T) {
	srv, st := newTestServer(t, newMockModel())
	id := startSession(t, srv, st)

	release, ok := srv.acquire(id)
	if !ok {
		t.Fatal("first acquire should succeed")
	}
	text, isErr := call(t, srv.handleSkip, map[string]any{"session_id": id})
	if !isErr || !strings.Contains(text, "already processing") {
		t.Errorf("concurrent turn should be refused: %s", text)
	}
	release()

	if _, isErr := call(t, srv.handleSkip, map[string]any{"session_id": id}); isErr {
		t.Error("turn should run once the session is released")
	}
}

func TestListSessions(t *testing.T) {
	srv, st := newTestServer(t, newMockModel())

	text, isErr := call(t, srv.handleListSessions, nil)
	if isErr || !strings.Contains(text, "No interviews") {
		t.Errorf("empty list: %s", text)
	}

	id := startSession(t, srv, st)
	text, _ = call(t, srv.handleListSessions, nil)
	if !strings.Contains(text, id) || !strings.Contains(text, "phase=main") {
		t.Errorf("list should show the session: %s", text)
	}
}

func TestFormatTurnIncludesAlerts(t *testing.T) {
	out := formatTurn("abc", &interview.TurnResult{Phase: interview.PhaseFinalizing, Progress: 100, Alerts: []string{"synthèse indisponible"}})
	if !strings.Contains(out, "Alert: synthèse indisponible") {
		t.Errorf("alerts missing: %s", out)
	}
}
