package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/listsync/internal/auth"
	"github.com/vbonduro/listsync/internal/coordinator"
	"github.com/vbonduro/listsync/internal/metrics"
	"github.com/vbonduro/listsync/internal/notify"
	"github.com/vbonduro/listsync/internal/service"
	"github.com/vbonduro/listsync/internal/suggest"
)

type Server struct {
	app           *service.ListApp
	sessions      *coordinator.Coordinator
	notifications *notify.Queue
	verifier      *auth.Verifier
	suggester     suggest.Suggester
	metrics       *metrics.Metrics
	mux           *http.ServeMux
	logger        *slog.Logger
}

type Option func(*Server)

// WithVerifier enables POST /api/session.
func WithVerifier(v *auth.Verifier) Option {
	return func(s *Server) { s.verifier = v }
}

// WithSuggester enables POST /api/suggestions.
func WithSuggester(sg suggest.Suggester) Option {
	return func(s *Server) { s.suggester = sg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func NewServer(app *service.ListApp, sessions *coordinator.Coordinator, notifications *notify.Queue, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		app:           app,
		sessions:      sessions,
		notifications: notifications,
		mux:           http.NewServeMux(),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("PUT /api/route", s.handleRoute)
	s.mux.HandleFunc("PUT /api/settings/show-completed", s.handleShowCompleted)

	s.mux.HandleFunc("POST /api/lists", s.handleCreateList)
	s.mux.HandleFunc("PATCH /api/lists/{id}", s.handleRenameList)
	s.mux.HandleFunc("DELETE /api/lists/{id}", s.handleDeleteList)
	s.mux.HandleFunc("POST /api/lists/{id}/leave", s.handleLeaveList)
	s.mux.HandleFunc("POST /api/join", s.handleJoinList)

	s.mux.HandleFunc("POST /api/items", s.handleAddItems)
	s.mux.HandleFunc("DELETE /api/items", s.handleClearItems)
	s.mux.HandleFunc("POST /api/items/{id}/toggle", s.handleToggleItem)
	s.mux.HandleFunc("POST /api/items/{id}/quantity", s.handleItemQuantity)
	s.mux.HandleFunc("DELETE /api/items/{id}", s.handleDeleteItem)
	s.mux.HandleFunc("DELETE /api/recents", s.handleClearRecents)

	s.mux.HandleFunc("POST /api/overlay", s.handleOpenOverlay)
	s.mux.HandleFunc("DELETE /api/overlay", s.handleCloseOverlay)
	s.mux.HandleFunc("PUT /api/overlay/input", s.handleOverlayInput)
	s.mux.HandleFunc("POST /api/overlay/submit", s.handleOverlaySubmit)
	s.mux.HandleFunc("POST /api/overlay/selection", s.handleToggleSelection)
	s.mux.HandleFunc("PATCH /api/overlay/selection", s.handleSelectionQuantity)
	s.mux.HandleFunc("POST /api/overlay/commit", s.handleCommitSelection)

	s.mux.HandleFunc("POST /api/suggestions", s.handleSuggest)
	s.mux.HandleFunc("POST /api/session", s.handleSignIn)
	s.mux.HandleFunc("DELETE /api/session", s.handleSignOut)
	s.mux.HandleFunc("GET /api/notifications", s.handleNotifications)

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// securityHeaders sets browser hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// NewHTTPServer wraps s with the listen address and timeouts.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
