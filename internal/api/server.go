package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pokerzoo/pokerzoo/internal/arena"
	"github.com/pokerzoo/pokerzoo/internal/engine"
	"github.com/pokerzoo/pokerzoo/internal/env"
	"github.com/pokerzoo/pokerzoo/internal/store"
)

// tableSession is one live interactive table.
type tableSession struct {
	id         string
	variant    string
	serverHash string
	table      env.Environment
	mu         sync.Mutex
}

// Server handles HTTP requests.
type Server struct {
	db           store.DB
	runner       *arena.Runner
	errorHandler *ErrorHandler
	logger       *log.Logger
	startTime    time.Time

	defaultSeeds engine.Seeds
	matchWorkers int

	tablesMu sync.RWMutex
	tables   map[string]*tableSession
}

// ServerOption configures optional server defaults.
type ServerOption func(*Server)

// WithDefaultSeeds sets the seeds used when a request omits its own.
func WithDefaultSeeds(seeds engine.Seeds) ServerOption {
	return func(s *Server) { s.defaultSeeds = seeds }
}

// WithMatchWorkers sets the worker count for match requests that do not ask
// for one. Zero sizes the pool to the machine.
func WithMatchWorkers(n int) ServerOption {
	return func(s *Server) { s.matchWorkers = n }
}

// NewServer creates a new API server.
func NewServer(db store.DB, opts ...ServerOption) *Server {
	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)

	s := &Server{
		db:           db,
		runner:       arena.NewRunner(),
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
		tables:       make(map[string]*tableSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes sets up the HTTP routes with proper middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/variants", s.handleListVariants)
		r.Post("/seed/hash", s.handleSeedHash)

		r.Route("/tables", func(r chi.Router) {
			r.Post("/", s.handleCreateTable)
			r.Route("/{tableID}", func(r chi.Router) {
				r.Get("/", s.handleGetTable)
				r.Delete("/", s.handleDeleteTable)
				r.Post("/reset", s.handleResetTable)
				r.Post("/step", s.handleStepTable)
				r.Get("/observe", s.handleObserveTable)
				r.Get("/render", s.handleRenderTable)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Post("/", s.handleRunMatch)
			r.Get("/", s.handleListMatches)
			r.Get("/{matchID}", s.handleGetMatch)
			r.Get("/{matchID}/hands", s.handleGetMatchHands)
		})

		r.Route("/scripts", func(r chi.Router) {
			r.Post("/", s.handleSaveScript)
			r.Get("/", s.handleListScripts)
			r.Get("/{scriptID}", s.handleGetScript)
			r.Delete("/{scriptID}", s.handleDeleteScript)
		})
	})

	return r
}

// getTable looks up a live table session.
func (s *Server) getTable(id string) (*tableSession, bool) {
	s.tablesMu.RLock()
	defer s.tablesMu.RUnlock()
	session, ok := s.tables[id]
	return session, ok
}

// putTable registers a new table session under a fresh ID.
func (s *Server) putTable(session *tableSession) string {
	id := uuid.NewString()
	session.id = id
	s.tablesMu.Lock()
	s.tables[id] = session
	s.tablesMu.Unlock()
	return id
}

// dropTable removes a table session; reports whether it existed.
func (s *Server) dropTable(id string) bool {
	s.tablesMu.Lock()
	defer s.tablesMu.Unlock()
	if _, ok := s.tables[id]; !ok {
		return false
	}
	delete(s.tables, id)
	return true
}

// writeJSON writes a JSON response with proper headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError writes a structured error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	engineErr := NewError(errType, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		Build()
	s.errorHandler.writeErrorResponse(w, status, engineErr)
}
