// Package mcp exposes the interview as Model Context Protocol tools, so an
// assistant client can run an orientation interview with a student and read
// back the synthesis and exports.
package mcp

import (
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/orientation-agent/internal/interview"
	"github.com/ziadkadry99/orientation-agent/internal/logger"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

// Version is set from the cmd package at startup.
var Version = "dev"

// Server wraps an MCP server driving interviews stored in a snapshot store.
type Server struct {
	iv    *interview.Interviewer
	store store.Store
	log   *logger.Logger
	mcp   *server.MCPServer

	mu   sync.Mutex
	busy map[string]bool
}

// NewServer creates an MCP server. The interviewer must persist into st.
func NewServer(iv *interview.Interviewer, st store.Store, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		iv:    iv,
		store: st,
		log:   log,
		busy:  map[string]bool{},
	}

	s.mcp = server.NewMCPServer(
		"orientation",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(startInterviewTool, s.handleStartInterview)
	s.mcp.AddTool(answerTool, s.handleAnswer)
	s.mcp.AddTool(skipQuestionTool, s.handleSkip)
	s.mcp.AddTool(finishInterviewTool, s.handleFinish)
	s.mcp.AddTool(getSessionTool, s.handleGetSession)
	s.mcp.AddTool(listSessionsTool, s.handleListSessions)
	s.mcp.AddTool(exportSessionTool, s.handleExport)
}

// Serve runs the MCP server on stdio. Stdout carries protocol messages, so
// logs must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

// acquire marks a session as having a turn in flight; false means another
// call holds it.
func (s *Server) acquire(id string) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[id] {
		return nil, false
	}
	s.busy[id] = true
	return func() {
		s.mu.Lock()
		delete(s.busy, id)
		s.mu.Unlock()
	}, true
}
