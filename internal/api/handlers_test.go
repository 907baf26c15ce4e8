package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pulsedesk/pulsedesk/internal/sensor"
	"github.com/pulsedesk/pulsedesk/internal/session"
	"github.com/pulsedesk/pulsedesk/internal/storage"
	"github.com/pulsedesk/pulsedesk/internal/storage/bolt"
	"github.com/pulsedesk/pulsedesk/internal/tracking"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()

	store, err := bolt.Open(filepath.Join(t.TempDir(), "test.bolt"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	// Mark today as already rolled over so aggregate reads do not
	// archive the usage seeded by the test.
	today := time.Now().Format("2006-01-02")
	if err := store.Usage().SetRolloverDate(t.Context(), today); err != nil {
		t.Fatalf("seed rollover marker: %v", err)
	}

	logger := zerolog.Nop()
	rollover := tracking.NewRollover(store.Usage(), tracking.RealClock{}, logger)
	tracker := tracking.NewTracker(store.Usage(), rollover, tracking.Config{}, tracking.RealClock{}, logger)
	controller := session.NewController(tracker, logger)
	adapter := sensor.NewSimulator(store.Fitness(), sensor.SimulatorConfig{UpdateInterval: time.Hour}, logger)

	server := NewServer(Config{}, controller, tracker, adapter, store.Activities(), logger)
	return server, store
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "127.0.0.1:52000"
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, value any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(value); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestSessionStartRequiresTarget(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/session/start", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "target is required" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestSessionStartStopFlow(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/session/start", `{"target":"GitHub"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", rec.Code)
	}

	var state session.State
	decodeBody(t, rec, &state)
	if state.CurrentTarget != "GitHub" || !state.Tracking {
		t.Fatalf("unexpected state after start: %+v", state)
	}

	rec = doRequest(t, server, http.MethodGet, "/api/session", "")
	decodeBody(t, rec, &state)
	if !state.Tracking {
		t.Fatalf("expected tracking state, got %+v", state)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/session/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &state)
	if state.Tracking {
		t.Fatalf("expected stopped state, got %+v", state)
	}
}

func TestVisibilityPausesSession(t *testing.T) {
	server, _ := newTestServer(t)

	doRequest(t, server, http.MethodPost, "/api/session/start", `{"target":"Browser"}`)

	rec := doRequest(t, server, http.MethodPost, "/api/session/visibility", `{"hidden":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var state session.State
	decodeBody(t, rec, &state)
	if state.Tracking || !state.Paused || state.CurrentTarget != "Browser" {
		t.Fatalf("unexpected state after hide: %+v", state)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/session/visibility", `{"hidden":false}`)
	decodeBody(t, rec, &state)
	if !state.Tracking || state.Paused {
		t.Fatalf("unexpected state after show: %+v", state)
	}
}

func TestUsageToday(t *testing.T) {
	server, store := newTestServer(t)

	err := store.Usage().PutAll(t.Context(), map[string]storage.UsageRecord{
		"GitHub":  {Today: 30},
		"VS Code": {Today: 12.5},
	})
	if err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	rec := doRequest(t, server, http.MethodGet, "/api/usage/today", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]float64
	decodeBody(t, rec, &body)
	if body["total_minutes"] != 42.5 {
		t.Fatalf("expected 42.5 total minutes, got %v", body["total_minutes"])
	}
}

func TestUsageSeriesFilter(t *testing.T) {
	server, store := newTestServer(t)

	err := store.Usage().PutAll(t.Context(), map[string]storage.UsageRecord{
		"GitHub":  {Today: 30},
		"VS Code": {Today: 20},
		"Browser": {Today: 10},
	})
	if err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	rec := doRequest(t, server, http.MethodGet, "/api/usage/series?targets=GitHub,Browser", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var points []tracking.SeriesPoint
	decodeBody(t, rec, &points)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	for _, point := range points {
		if point.Name != "GitHub" && point.Name != "Browser" {
			t.Fatalf("unexpected point %+v", point)
		}
		if point.Placeholder {
			t.Fatalf("filtered series must not contain placeholders: %+v", point)
		}
	}
}

func TestSensorConnectDisconnect(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/sensor/connect", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result sensor.Result
	decodeBody(t, rec, &result)
	if !result.Success || result.Handle == "" {
		t.Fatalf("unexpected connect result: %+v", result)
	}

	rec = doRequest(t, server, http.MethodGet, "/api/sensor/snapshot", "")
	var snapshot storage.FitnessSnapshot
	decodeBody(t, rec, &snapshot)
	if snapshot.StepCount == 0 {
		t.Fatal("expected seeded step count after connect")
	}

	rec = doRequest(t, server, http.MethodPost, "/api/sensor/disconnect", `{"handle":"`+string(result.Handle)+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("disconnect: expected 200, got %d", rec.Code)
	}
}

func TestSensorDisconnectRequiresHandle(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/sensor/disconnect", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestInsightEndpoint(t *testing.T) {
	server, store := newTestServer(t)

	err := store.Usage().PutAll(t.Context(), map[string]storage.UsageRecord{
		"GitHub": {Today: 240},
	})
	if err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	rec := doRequest(t, server, http.MethodGet, "/api/insight", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["category"] != "workout" {
		t.Fatalf("expected workout suggestion for a long desk day, got %v", body)
	}
}

func TestActivityCreateAndList(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/activities", `{"type":"Meetings","minutes":45}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodGet, "/api/activities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entries []storage.ActivityEntry
	decodeBody(t, rec, &entries)
	if len(entries) != 1 || entries[0].Type != "Meetings" || entries[0].Minutes != 45 {
		t.Fatalf("unexpected activity log: %+v", entries)
	}
}

func TestActivityCreateValidation(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/activities", `{"minutes":10}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing type: expected 400, got %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/activities", `{"type":"Run","minutes":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero minutes: expected 400, got %d", rec.Code)
	}
}

func TestResetClearsUsage(t *testing.T) {
	server, store := newTestServer(t)

	err := store.Usage().PutAll(t.Context(), map[string]storage.UsageRecord{
		"GitHub": {Today: 30},
	})
	if err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	rec := doRequest(t, server, http.MethodPost, "/api/session/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	records, err := store.Usage().GetAll(t.Context())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected cleared usage, got %d records", len(records))
	}
}

func TestRateLimiting(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)
	handler := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
		req.RemoteAddr = "10.0.0.9:40000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.RemoteAddr = "10.0.0.9:40000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", rec.Code)
	}
}
