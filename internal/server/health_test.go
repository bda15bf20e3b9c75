package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func healthMux(h *Health) *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func get(t *testing.T, mux http.Handler, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec, resp
}

func TestHealth_Probes(t *testing.T) {
	h := NewHealth("1.0.0")
	mux := healthMux(h)

	tests := []struct {
		name  string
		setup func()
		path  string
		code  int
	}{
		{"live by default", func() {}, "/live", http.StatusOK},
		{"not ready by default", func() {}, "/ready", http.StatusServiceUnavailable},
		{"ready", func() { h.SetReady(true) }, "/readyz", http.StatusOK},
		{"not live", func() { h.SetLive(false) }, "/livez", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			rec, _ := get(t, mux, tt.path)
			if rec.Code != tt.code {
				t.Errorf("%s: got %d, want %d", tt.path, rec.Code, tt.code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type %q", ct)
			}
		})
	}
}

func TestHealth_Checks(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name   string
		checks map[string]HealthChecker
		status HealthStatus
		code   int
	}{
		{"no checks", nil, HealthStatusHealthy, http.StatusOK},
		{"all ok", map[string]HealthChecker{
			"temporal": TemporalHealthChecker(ok),
			"graph":    GraphStoreHealthChecker(ok),
		}, HealthStatusHealthy, http.StatusOK},
		{"graph down degrades", map[string]HealthChecker{
			"temporal": TemporalHealthChecker(ok),
			"graph":    GraphStoreHealthChecker(fail),
		}, HealthStatusDegraded, http.StatusOK},
		{"temporal down", map[string]HealthChecker{
			"temporal": TemporalHealthChecker(fail),
			"graph":    GraphStoreHealthChecker(fail),
		}, HealthStatusUnhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealth("v")
			for name, c := range tt.checks {
				h.RegisterCheck(name, c)
			}
			rec, resp := get(t, healthMux(h), "/healthz")
			if rec.Code != tt.code || resp.Status != tt.status {
				t.Errorf("got %d %s, want %d %s", rec.Code, resp.Status, tt.code, tt.status)
			}
			if len(resp.Checks) != len(tt.checks) || resp.Version != "v" {
				t.Errorf("unexpected response %+v", resp)
			}
		})
	}
}

func TestSnapshotDirHealthChecker(t *testing.T) {
	dir := t.TempDir()
	if c := SnapshotDirHealthChecker(dir)(context.Background()); c.Status != HealthStatusHealthy {
		t.Errorf("expected healthy, got %+v", c)
	}
	missing := filepath.Join(dir, "missing")
	if c := SnapshotDirHealthChecker(missing)(context.Background()); c.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %+v", c)
	}
}
