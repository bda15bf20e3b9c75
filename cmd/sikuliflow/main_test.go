package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openDescriptors(t *testing.T, target string) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("fd listing unavailable: %v", err)
	}
	n := 0
	for _, e := range entries {
		if link, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name())); err == nil && link == target {
			n++
		}
	}
	return n
}

func TestNewApp_SecretsFailureClosesAudit(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("SIKULIFLOW_TEST_MISSING_TOKEN", "")

	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.jsonl")
	configPath := filepath.Join(dir, "sikuliflow.yaml")
	cfg := strings.Join([]string{
		"audit:",
		"  enabled: true",
		"  output: " + auditPath,
		"secrets:",
		"  vault_address: http://127.0.0.1:1",
		`  vault_token: "env:SIKULIFLOW_TEST_MISSING_TOKEN"`,
		"",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := newApp(context.Background(), configPath)
	if err == nil {
		a.close(context.Background())
		t.Fatal("expected secrets error")
	}
	if !strings.Contains(err.Error(), "secrets") {
		t.Errorf("unexpected error: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(auditPath)
	if err != nil {
		t.Fatalf("resolve audit path: %v", err)
	}
	if n := openDescriptors(t, resolved); n != 0 {
		t.Errorf("audit log left open by %d descriptors", n)
	}
}
