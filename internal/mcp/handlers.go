package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/orientation-agent/internal/diagrams"
	"github.com/ziadkadry99/orientation-agent/internal/export"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

func (s *Server) handleStartInterview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res, err := s.iv.Start(ctx, "")
	if err != nil {
		return s.toolError("starting interview", err), nil
	}
	return mcp.NewToolResultText(formatTurn(sess.ID, res)), nil
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	answer, err := request.RequireString("answer")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: answer"), nil
	}
	return s.turn(ctx, request, func(ctx context.Context, sess *interview.Session) (*interview.TurnResult, error) {
		return s.iv.Answer(ctx, sess, answer)
	})
}

func (s *Server) handleSkip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.turn(ctx, request, s.iv.Skip)
}

func (s *Server) handleFinish(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.turn(ctx, request, s.iv.Finish)
}

type turnFunc func(ctx context.Context, sess *interview.Session) (*interview.TurnResult, error)

// turn loads the session named in the request and runs fn on it, one call
// per session at a time.
func (s *Server) turn(ctx context.Context, request mcp.CallToolRequest, fn turnFunc) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	release, ok := s.acquire(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Session %q is already processing a turn; retry once it completes.", id)), nil
	}
	defer release()

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return s.toolError("loading session", err), nil
	}
	res, err := fn(ctx, sess)
	if err != nil {
		return s.toolError("running turn", err), nil
	}
	return mcp.NewToolResultText(formatTurn(id, res)), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return s.toolError("loading session", err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session: %s\nPhase: %s\nProgress: %d%%\n", sess.ID, sess.Phase, s.iv.Progress(sess))
	if !sess.Done() {
		if prompt := sess.LastAssistant(); prompt != "" {
			fmt.Fprintf(&sb, "Pending question: %s\n", prompt)
		}
	}
	for _, alert := range sess.Alerts {
		fmt.Fprintf(&sb, "Alert: %s\n", alert)
	}
	if sess.Summary != nil {
		sb.WriteString("\n")
		sb.WriteString(diagrams.RenderCards(diagrams.Cards(*sess.Summary)))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.List(ctx)
	if err != nil {
		return s.toolError("listing sessions", err), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("No interviews stored yet. Use start_interview to begin one."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d interview(s):\n", len(metas))
	for _, m := range metas {
		fmt.Fprintf(&sb, "- %s  phase=%s  question=%d  updated=%s\n",
			m.ID, m.Phase, m.Index+1, m.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	kindStr, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: kind"), nil
	}
	kind, err := export.ParseKind(kindStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return s.toolError("loading session", err), nil
	}

	// Agents read Markdown better than the standalone HTML page.
	if kind == export.KindRecap {
		md, err := export.RecapMarkdown(sess)
		if err != nil {
			return s.toolError("exporting recap", err), nil
		}
		return mcp.NewToolResultText(md), nil
	}
	doc, err := export.Render(sess, kind)
	if err != nil {
		return s.toolError("exporting "+string(kind), err), nil
	}
	return mcp.NewToolResultText(string(doc.Data)), nil
}

// toolError turns a domain error into a tool error the agent can act on.
// Upstream failures are logged; the turn can be retried.
func (s *Server) toolError(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return mcp.NewToolResultError("Session not found. Use list_sessions to see stored interviews.")
	case errors.Is(err, interview.ErrEmptyAnswer):
		return mcp.NewToolResultError("The answer is empty; relay the question to the student again.")
	case errors.Is(err, interview.ErrFinished):
		return mcp.NewToolResultError("This interview is finished; use get_session or export_session.")
	case errors.Is(err, export.ErrNoSummary):
		return mcp.NewToolResultError("No synthesis yet; finish the interview first.")
	}
	s.log.Error("mcp tool failed", "action", action, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v. The interview did not advance; retry the call.", action, err))
}

// formatTurn renders a turn for the agent: the messages to relay to the
// student, then the state.
func formatTurn(id string, res *interview.TurnResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session: %s\nPhase: %s\nProgress: %d%%\n", id, res.Phase, res.Progress)
	if len(res.Messages) > 0 {
		sb.WriteString("\nMessages for the student:\n")
		for _, m := range res.Messages {
			fmt.Fprintf(&sb, "%s\n", m)
		}
	}
	for _, alert := range res.Alerts {
		fmt.Fprintf(&sb, "\nAlert: %s\n", alert)
	}
	if res.Summary != nil {
		sb.WriteString("\nSynthesis:\n")
		sb.WriteString(diagrams.RenderCards(diagrams.Cards(*res.Summary)))
	}
	return sb.String()
}
