package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pulsedesk/pulsedesk/internal/insight"
	"github.com/pulsedesk/pulsedesk/internal/sensor"
	"github.com/pulsedesk/pulsedesk/internal/storage"
)

type startRequest struct {
	Target string `json:"target"`
}

type visibilityRequest struct {
	Hidden bool `json:"hidden"`
}

type disconnectRequest struct {
	Handle string `json:"handle"`
}

type activityRequest struct {
	Type    string `json:"type"`
	Minutes int    `json:"minutes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Target == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}

	if err := s.controller.StartTracking(r.Context(), req.Target); err != nil {
		s.logger.Error().Err(err).Str("target", req.Target).Msg("Failed to start tracking")
		writeError(w, http.StatusInternalServerError, "failed to start tracking")
		return
	}

	writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.StopTracking(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to stop tracking")
		writeError(w, http.StatusInternalServerError, "failed to stop tracking")
		return
	}

	writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Reset(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to reset tracking data")
		writeError(w, http.StatusInternalServerError, "failed to reset tracking data")
		return
	}

	writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.controller.HandleVisibility(r.Context(), req.Hidden); err != nil {
		s.logger.Error().Err(err).Bool("hidden", req.Hidden).Msg("Failed to handle visibility transition")
		writeError(w, http.StatusInternalServerError, "failed to handle visibility transition")
		return
	}

	writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleUsageToday(w http.ResponseWriter, r *http.Request) {
	total, err := s.tracker.AggregateToday(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read today's aggregate")
		writeError(w, http.StatusInternalServerError, "failed to read usage data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"total_minutes": total})
}

func (s *Server) handleUsageSeries(w http.ResponseWriter, r *http.Request) {
	var targets []string
	if raw := r.URL.Query().Get("targets"); raw != "" {
		for _, target := range strings.Split(raw, ",") {
			if target = strings.TrimSpace(target); target != "" {
				targets = append(targets, target)
			}
		}
	}

	points, err := s.tracker.Series(r.Context(), targets...)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build usage series")
		writeError(w, http.StatusInternalServerError, "failed to read usage data")
		return
	}

	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleSensorConnect(w http.ResponseWriter, r *http.Request) {
	if !s.adapter.Available() {
		writeJSON(w, http.StatusOK, sensor.Result{
			Success: false,
			Message: "no sensor feed is available on this host",
		})
		return
	}

	result := s.adapter.Connect(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSensorDisconnect(w http.ResponseWriter, r *http.Request) {
	var req disconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}

	s.adapter.Disconnect(sensor.Handle(req.Handle))
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (s *Server) handleSensorSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.Snapshot(r.Context()))
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	total, err := s.tracker.AggregateToday(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read today's aggregate")
		writeError(w, http.StatusInternalServerError, "failed to read usage data")
		return
	}

	snapshot := s.adapter.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, insight.Generate(total, snapshot.StepCount))
}

func (s *Server) handleActivityCreate(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	if req.Minutes <= 0 {
		writeError(w, http.StatusBadRequest, "minutes must be positive")
		return
	}

	entry := storage.ActivityEntry{
		Type:      req.Type,
		Minutes:   req.Minutes,
		Timestamp: time.Now(),
	}
	if err := s.activities.Append(r.Context(), entry); err != nil {
		s.logger.Error().Err(err).Str("type", req.Type).Msg("Failed to append activity entry")
		writeError(w, http.StatusInternalServerError, "failed to log activity")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.activities.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list activity entries")
		writeError(w, http.StatusInternalServerError, "failed to read activity log")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
