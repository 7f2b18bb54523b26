package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/orientation-agent/internal/diagrams"
	"github.com/ziadkadry99/orientation-agent/internal/fiche"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "start", "answer", "skip" or "finish"
	SessionID string `json:"session_id"` // empty for start
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string           `json:"type"` // "message", "summary" or "error"
	SessionID string           `json:"session_id"`
	Content   string           `json:"content"`
	Phase     interview.Phase  `json:"phase,omitempty"`
	Progress  int              `json:"progress"`
	Summary   *fiche.Summary   `json:"summary,omitempty"`
	Cards     []diagrams.Card  `json:"cards,omitempty"`
	Recap     *interview.Recap `json:"recap,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", "error", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(conn, "", "invalid message format")
			continue
		}

		if req.Type != "start" && req.SessionID == "" {
			s.sendError(conn, "", "session_id is required")
			continue
		}

		switch req.Type {
		case "start":
			s.wsStart(conn, r.Context())
		case "answer":
			s.wsTurn(conn, r.Context(), req.SessionID, func(ctx context.Context, sess *interview.Session) (*interview.TurnResult, error) {
				return s.iv.Answer(ctx, sess, req.Content)
			})
		case "skip":
			s.wsTurn(conn, r.Context(), req.SessionID, s.iv.Skip)
		case "finish":
			s.wsTurn(conn, r.Context(), req.SessionID, s.iv.Finish)
		default:
			s.sendError(conn, req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) wsStart(conn *websocket.Conn, ctx context.Context) {
	sess, res, err := s.iv.Start(ctx, "")
	if err != nil {
		s.sendError(conn, "", "failed to start session: "+err.Error())
		return
	}
	s.sendResult(conn, sess.ID, res)
}

func (s *Server) wsTurn(conn *websocket.Conn, ctx context.Context, id string, fn turnFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TurnTimeout)
	defer cancel()

	res, err := s.runTurn(ctx, id, fn)
	if err != nil {
		if statusFor(err) == http.StatusBadGateway {
			s.log.Error("websocket turn failed", "session_id", id, "error", err)
		}
		s.sendError(conn, id, err.Error())
		return
	}
	s.sendResult(conn, id, res)
}

// sendResult emits one message frame per assistant message, then a summary
// frame when the turn produced the final synthesis.
func (s *Server) sendResult(conn *websocket.Conn, id string, res *interview.TurnResult) {
	for _, m := range res.Messages {
		s.sendResponse(conn, chatResponse{
			Type:      "message",
			SessionID: id,
			Content:   m,
			Phase:     res.Phase,
			Progress:  res.Progress,
		})
	}
	for _, a := range res.Alerts {
		s.sendError(conn, id, a)
	}
	if res.Phase == interview.PhaseFinished && res.Summary != nil {
		s.sendResponse(conn, chatResponse{
			Type:      "summary",
			SessionID: id,
			Content:   diagrams.Mindmap(*res.Summary),
			Phase:     res.Phase,
			Progress:  res.Progress,
			Summary:   res.Summary,
			Cards:     diagrams.Cards(*res.Summary),
			Recap:     res.Recap,
		})
	}
}

func (s *Server) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.log.Warn("websocket write", "error", err)
	}
}

func (s *Server) sendError(conn *websocket.Conn, sessionID, message string) {
	resp := chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		s.log.Warn("websocket write error", "error", err)
	}
}
