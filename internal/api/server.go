package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pulsedesk/pulsedesk/internal/sensor"
	"github.com/pulsedesk/pulsedesk/internal/session"
	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/pulsedesk/pulsedesk/internal/tracking"
	"github.com/rs/zerolog"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr      string
	RateLimit       int
	RateLimitWindow time.Duration
}

// Server is the JSON API surface consumed by the dashboard frontend.
// It owns no accounting state of its own; every write goes through the
// session controller so the one-open-interval policy holds.
type Server struct {
	config     Config
	controller *session.Controller
	tracker    *tracking.Tracker
	adapter    sensor.Adapter
	activities storage.ActivityStore
	server     *http.Server
	router     *mux.Router
	listener   net.Listener
	logger     zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, controller *session.Controller, tracker *tracking.Tracker, adapter sensor.Adapter, activities storage.ActivityStore, logger zerolog.Logger) *Server {
	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = 100
	}
	rateLimitWindow := cfg.RateLimitWindow
	if rateLimitWindow == 0 {
		rateLimitWindow = time.Minute
	}

	router := mux.NewRouter()

	s := &Server{
		config:     cfg,
		controller: controller,
		tracker:    tracker,
		adapter:    adapter,
		activities: activities,
		router:     router,
		logger:     logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes(NewRateLimiter(rateLimit, rateLimitWindow))

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(limiter *RateLimiter) {
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RateLimitMiddleware(limiter))

	s.router.HandleFunc("/api/healthz", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/session", s.handleSessionState).Methods("GET")
	s.router.HandleFunc("/api/session/start", s.handleSessionStart).Methods("POST")
	s.router.HandleFunc("/api/session/stop", s.handleSessionStop).Methods("POST")
	s.router.HandleFunc("/api/session/reset", s.handleSessionReset).Methods("POST")
	s.router.HandleFunc("/api/session/visibility", s.handleVisibility).Methods("POST")

	s.router.HandleFunc("/api/usage/today", s.handleUsageToday).Methods("GET")
	s.router.HandleFunc("/api/usage/series", s.handleUsageSeries).Methods("GET")

	s.router.HandleFunc("/api/sensor/connect", s.handleSensorConnect).Methods("POST")
	s.router.HandleFunc("/api/sensor/disconnect", s.handleSensorDisconnect).Methods("POST")
	s.router.HandleFunc("/api/sensor/snapshot", s.handleSensorSnapshot).Methods("GET")

	s.router.HandleFunc("/api/insight", s.handleInsight).Methods("GET")

	s.router.HandleFunc("/api/activities", s.handleActivityCreate).Methods("POST")
	s.router.HandleFunc("/api/activities", s.handleActivityList).Methods("GET")
}

// SetListener sets a pre-created listener for systemd socket activation.
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting API server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping API server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the configured router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
