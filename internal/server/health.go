// Package server exposes the flow compiler over HTTP with health probes,
// metrics and graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single health check.
type HealthCheck struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is the response from health endpoints.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// HealthChecker is a function that performs a health check.
type HealthChecker func(ctx context.Context) HealthCheck

// Health serves liveness, readiness and dependency checks.
type Health struct {
	mu      sync.RWMutex
	checks  map[string]HealthChecker
	version string
	ready   bool
	live    bool
}

// NewHealth returns a live but not yet ready Health.
func NewHealth(version string) *Health {
	return &Health{
		checks:  make(map[string]HealthChecker),
		version: version,
		live:    true,
	}
}

// RegisterCheck adds a health check.
func (s *Health) RegisterCheck(name string, checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = checker
}

// SetReady marks the server as ready to accept traffic.
func (s *Health) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// SetLive marks the server as live (or not).
func (s *Health) SetLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
}

// Register mounts the probe endpoints on mux.
func (s *Health) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /live", s.handleLive)
	mux.HandleFunc("GET /livez", s.handleLive)
}

func (s *Health) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s.mu.RLock()
	checks := make(map[string]HealthChecker, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	version := s.version
	s.mu.RUnlock()

	response := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   version,
		Checks:    make([]HealthCheck, 0, len(checks)),
	}
	for name, checker := range checks {
		check := checker(ctx)
		check.Name = name
		response.Checks = append(response.Checks, check)

		if check.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		} else if check.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy {
			response.Status = HealthStatusDegraded
		}
	}

	statusCode := http.StatusOK
	if response.Status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, response)
}

func (s *Health) handleReady(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()
	s.probe(w, ready)
}

func (s *Health) handleLive(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	live := s.live
	s.mu.RUnlock()
	s.probe(w, live)
}

func (s *Health) probe(w http.ResponseWriter, ok bool) {
	response := HealthResponse{Status: HealthStatusHealthy, Timestamp: time.Now().UTC()}
	if !ok {
		response.Status = HealthStatusUnhealthy
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// TemporalHealthChecker creates a health check for Temporal connectivity.
func TemporalHealthChecker(checkFn func(ctx context.Context) error) HealthChecker {
	return dependencyChecker("Temporal", HealthStatusUnhealthy, checkFn)
}

// GraphStoreHealthChecker creates a health check for the graph database.
// The graph store is optional, so failures only degrade the service.
func GraphStoreHealthChecker(checkFn func(ctx context.Context) error) HealthChecker {
	return dependencyChecker("Graph store", HealthStatusDegraded, checkFn)
}

func dependencyChecker(name string, failed HealthStatus, checkFn func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		if err := checkFn(ctx); err != nil {
			return HealthCheck{Status: failed, Message: name + " connection failed: " + err.Error()}
		}
		return HealthCheck{Status: HealthStatusHealthy, Message: name + " connection OK"}
	}
}

// SnapshotDirHealthChecker verifies that dir exists and is writable.
func SnapshotDirHealthChecker(dir string) HealthChecker {
	return func(context.Context) HealthCheck {
		details := map[string]string{"path": dir}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return HealthCheck{Status: HealthStatusDegraded, Message: fmt.Sprintf("snapshot dir not writable: %v", err), Details: details}
		}
		name := f.Name()
		f.Close()
		os.Remove(filepath.Clean(name))
		return HealthCheck{Status: HealthStatusHealthy, Message: "Snapshot dir OK", Details: details}
	}
}
