// Package server exposes graph assets and dialogue playback over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /version
//	GET    /graphs                       list asset names
//	GET    /graphs/{name}                store JSON, ETag = store hash
//	PUT    /graphs/{name}                replace (validated, If-Match honored)
//	DELETE /graphs/{name}
//	GET    /graphs/{name}/dot            diagram (?format=svg|png, ?open=1)
//	POST   /graphs/{name}/sessions       begin playback
//	GET    /sessions/{id}                current state
//	POST   /sessions/{id}/select         {"index": n}
//	DELETE /sessions/{id}
//
// Errors are returned as {"code": ..., "message": ...}.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/dialoguegraph/pkg/assets"
	"github.com/matzehuels/dialoguegraph/pkg/cache"
	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
)

// Limits.
const (
	// DefaultSessionTTL is how long an idle playback session is kept.
	DefaultSessionTTL = 30 * time.Minute

	// maxBodyBytes bounds uploaded stores.
	maxBodyBytes = 4 << 20

	shutdownTimeout = 5 * time.Second
)

// Server serves the HTTP API. It is safe for concurrent use.
type Server struct {
	repo     assets.Repository
	diagrams cache.Cache
	logger   *log.Logger
	ttl      time.Duration
	now      func() time.Time
	router   chi.Router

	mu       sync.Mutex
	sessions map[string]*session

	// writes serializes read-compare-write sequences per graph name.
	writesMu sync.Mutex
	writes   map[string]*graphLock
}

type graphLock struct {
	mu   sync.Mutex
	refs int
}

// session is one player's walk through a graph.
type session struct {
	mu       sync.Mutex
	id       string
	graph    string
	walker   *dialogue.Walker
	lastUsed time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithSessionTTL sets the idle timeout for playback sessions.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithCache sets the cache for rendered SVG and PNG diagrams. The default
// is an in-memory LRU cache.
func WithCache(c cache.Cache) Option {
	return func(s *Server) {
		if c != nil {
			s.diagrams = c
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server backed by repo.
func New(repo assets.Repository, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		repo:     repo,
		diagrams: cache.NewMemoryCache(cache.DefaultMemoryEntries),
		logger:   logger,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		sessions: make(map[string]*session),
		writes:   make(map[string]*graphLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/graphs", func(r chi.Router) {
		r.Get("/", s.handleListGraphs)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetGraph)
			r.Put("/", s.handlePutGraph)
			r.Delete("/", s.handleDeleteGraph)
			r.Get("/dot", s.handleDiagram)
			r.Post("/sessions", s.handleCreateSession)
		})
	})

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Post("/select", s.handleSelect)
		r.Delete("/", s.handleDeleteSession)
	})
	return r
}

// lockGraph blocks until no other write to name is in progress. The
// returned function releases the lock.
func (s *Server) lockGraph(name string) func() {
	s.writesMu.Lock()
	l, ok := s.writes[name]
	if !ok {
		l = &graphLock{}
		s.writes[name] = l
	}
	l.refs++
	s.writesMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.writesMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.writes, name)
		}
		s.writesMu.Unlock()
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// logRequests logs each request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) addSession(graph string, w *dialogue.Walker) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	sess := &session{
		id:       uuid.NewString(),
		graph:    graph,
		walker:   w,
		lastUsed: s.now(),
	}
	s.sessions[sess.id] = sess
	return sess
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.lastUsed) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastUsed = s.now()
	return sess, true
}

func (s *Server) removeSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// pruneLocked drops idle sessions. Callers hold s.mu.
func (s *Server) pruneLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
