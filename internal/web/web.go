// Package web serves the daemon's HTTP API: calendar reads, the
// planning agents, an SSE event stream, and Prometheus metrics.
package web

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vita-ai/vita/internal/assistant"
	"github.com/vita-ai/vita/internal/bus"
	"github.com/vita-ai/vita/internal/calendar"
	"github.com/vita-ai/vita/internal/metrics"
)

// Config holds web server settings passed to New.
type Config struct {
	Listen   string `mapstructure:"listen"`
	Username string `mapstructure:"username"` // HTTP Basic Auth username (empty = no auth)
	Password string `mapstructure:"password"` // HTTP Basic Auth password (empty = no auth)
}

// Server serves the HTTP API on a TCP port.
type Server struct {
	listen      string
	calendar    *calendar.Service
	upcoming    calendar.UpcomingSource // may be nil
	coordinator *assistant.Coordinator  // may be nil
	eventBus    *EventBus
	msgBus      *bus.Bus // may be nil
	startedAt   time.Time
	httpServer  *http.Server
	logger      zerolog.Logger
	username    string
	password    string
	now         func() time.Time

	mu sync.Mutex
	ln net.Listener
}

// New creates the API server. coordinator may be nil when no LLM is
// configured; upcoming may be nil when no calendar provider is
// configured. If cfg.Username and cfg.Password are non-empty, HTTP
// Basic Auth is required for all routes.
func New(cfg Config, cal *calendar.Service, upcoming calendar.UpcomingSource,
	coordinator *assistant.Coordinator, msgBus *bus.Bus, startedAt time.Time,
	logger zerolog.Logger) *Server {

	s := &Server{
		listen:      cfg.Listen,
		calendar:    cal,
		upcoming:    upcoming,
		coordinator: coordinator,
		eventBus:    NewEventBus(50),
		msgBus:      msgBus,
		startedAt:   startedAt,
		logger:      logger.With().Str("component", "web").Logger(),
		username:    cfg.Username,
		password:    cfg.Password,
		now:         time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/calendar/events", s.handleEvents)
	mux.HandleFunc("GET /api/calendar/month-split", s.handleMonthSplit)
	mux.HandleFunc("GET /api/calendar/now-and-next", s.handleNowAndNext)
	mux.HandleFunc("POST /api/plan", s.handlePlan)
	mux.HandleFunc("POST /api/food/generate", s.handleFoodGenerate)
	mux.HandleFunc("POST /api/fitness/generate", s.handleFitnessGenerate)
	mux.HandleFunc("GET /api/events/stream", s.handleEventStream)
	mux.Handle("GET /metrics", metrics.Handler())

	s.httpServer = &http.Server{Handler: s.securityMiddleware(s.metricsMiddleware(mux))}
	return s
}

// securityMiddleware adds security headers and optional HTTP Basic Auth to all responses.
func (s *Server) securityMiddleware(next http.Handler) http.Handler {
	authEnabled := s.username != "" && s.password != ""
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		if authEnabled {
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="vita"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The SSE stream holds the connection open; counting it by
		// final status would block until disconnect.
		if r.URL.Path == "/api/events/stream" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
	})
}

// Start begins listening on TCP. Blocks until Shutdown or error.
func (s *Server) Start() error {
	if s.msgBus != nil {
		_, err := s.msgBus.Subscribe(bus.EventSubjectPrefix+".>", func(ev bus.Event) {
			s.eventBus.Publish(ev)
		})
		if err != nil {
			return err
		}
	}

	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info().Str("listen", ln.Addr().String()).Msg("API listening")
	return s.httpServer.Serve(ln)
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// publishEvent emits a domain event on the bus, which feeds the SSE
// stream. Publish failures are logged, never surfaced to the caller.
func (s *Server) publishEvent(source, eventType string, payload any) {
	if s.msgBus == nil {
		return
	}
	if err := s.msgBus.Publish(source, eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("type", eventType).Msg("publish event failed")
	}
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
