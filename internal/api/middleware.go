package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pulsedesk/pulsedesk/internal/metrics"
	"github.com/rs/zerolog"
)

// RateLimiter bounds requests per client address inside a rolling
// window. Counters live in an expiring LRU so idle clients age out on
// their own.
type RateLimiter struct {
	cache *expirable.LRU[string, *requestCounter]
	limit int
	mu    sync.Mutex
}

type requestCounter struct {
	count int
}

// NewRateLimiter creates a rate limiter allowing limit requests per
// window per client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		cache: expirable.NewLRU[string, *requestCounter](1024, nil, window),
		limit: limit,
	}
}

// Allow records one request for the client and reports whether it is
// within the limit.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	counter, ok := rl.cache.Get(client)
	if !ok {
		counter = &requestCounter{}
		rl.cache.Add(client, counter)
	}
	counter.count++
	return counter.count <= rl.limit
}

// RateLimitMiddleware rejects clients that exceed the rate limit.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				client = host
			}

			if !limiter.Allow(client) {
				metrics.RateLimitedRequests.Inc()
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs each request and records its duration.
func LoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			metrics.RequestDuration.WithLabelValues(route, r.Method).Observe(duration.Seconds())

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", wrapped.statusCode).
				Dur("duration", duration).
				Msg("API request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
