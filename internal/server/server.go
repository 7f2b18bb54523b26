package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/orientation-agent/internal/interview"
	"github.com/ziadkadry99/orientation-agent/internal/logger"
	"github.com/ziadkadry99/orientation-agent/internal/store"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
	// TurnTimeout bounds one request; a turn makes up to three model calls.
	TurnTimeout time.Duration
}

// Server exposes the interview over REST and a websocket chat.
type Server struct {
	cfg        Config
	iv         *interview.Interviewer
	store      store.Store
	log        *logger.Logger
	locks      *sessionLocks
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. The interviewer must persist into st, which is also
// where sessions are loaded from between requests.
func New(cfg Config, iv *interview.Interviewer, st store.Store, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = 5 * time.Minute
	}
	s := &Server{
		cfg:   cfg,
		iv:    iv,
		store: st,
		log:   log,
		locks: newSessionLocks(),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.TurnTimeout))
		r.Get("/questions", s.handleQuestions)
		r.Get("/sessions", s.handleList)
		r.Post("/sessions", s.handleCreate)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/answer", s.handleAnswer)
			r.Post("/skip", s.handleSkip)
			r.Post("/finish", s.handleFinish)
			r.Get("/export/{kind}", s.handleExport)
		})
	})

	r.Get("/ws/interview", s.handleWebSocket)

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.TurnTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("orientation server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// sessionLocks allows at most one turn in flight per session.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: map[string]*sync.Mutex{}}
}

// tryAcquire locks the session and returns its release func, or false when
// another turn holds it.
func (l *sessionLocks) tryAcquire(id string) (func(), bool) {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, false
	}
	return m.Unlock, true
}

// forget drops the lock of a deleted session.
func (l *sessionLocks) forget(id string) {
	l.mu.Lock()
	delete(l.locks, id)
	l.mu.Unlock()
}
