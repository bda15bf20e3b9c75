package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"defaults", LogConfig{}, false},
		{"json debug", LogConfig{Level: "debug", Format: "json"}, false},
		{"upper case", LogConfig{Level: "WARN", Format: "TEXT"}, false},
		{"bad level", LogConfig{Level: "loud"}, true},
		{"bad format", LogConfig{Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLogger(&bytes.Buffer{}, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger_JSONLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	log.Info("dropped")
	log.Warn("kept", "nodes", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "kept" || rec["nodes"] != 3.0 || rec["level"] != slog.LevelWarn.String() {
		t.Errorf("unexpected record %v", rec)
	}
}
