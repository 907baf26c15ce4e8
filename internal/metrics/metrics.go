package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Session metrics
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsedesk_sessions_started_total",
			Help: "Total accounting intervals opened",
		},
		[]string{"target"},
	)

	SessionsStopped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsedesk_sessions_stopped_total",
			Help: "Total accounting intervals closed",
		},
		[]string{"target"},
	)

	TrackedMinutes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsedesk_tracked_minutes_total",
			Help: "Total minutes attributed to targets",
		},
		[]string{"target"},
	)

	// Rollover metrics
	RolloversTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulsedesk_rollovers_total",
			Help: "Total daily rollovers performed",
		},
	)

	// Sensor metrics
	SensorUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulsedesk_sensor_updates_total",
			Help: "Total sensor feed updates persisted",
		},
	)

	SensorConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulsedesk_sensor_connected",
			Help: "Whether a sensor device is currently connected",
		},
	)

	// API metrics
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulsedesk_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	RateLimitedRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulsedesk_rate_limited_requests_total",
			Help: "Total API requests rejected by the rate limiter",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		SessionsStarted,
		SessionsStopped,
		TrackedMinutes,
		RolloversTotal,
		SensorUpdates,
		SensorConnected,
		RequestDuration,
		RateLimitedRequests,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
