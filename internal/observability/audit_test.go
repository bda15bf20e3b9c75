package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []AuditEvent {
	t.Helper()
	var out []AuditEvent
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var ev AuditEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, ev)
	}
	return out
}

func TestNewAuditLogger_Disabled(t *testing.T) {
	l, err := NewAuditLogger(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Log(&AuditEvent{EventType: AuditEventProjectSave}); err != nil {
		t.Fatalf("disabled logger returned error: %v", err)
	}
}

func TestNewAuditLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: path, SessionID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.LogSnapshot(context.Background(), AuditEventSnapshotSave, "abc", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"session_id":"s1"`) {
		t.Errorf("expected session id in %s", data)
	}
}

func TestNewAuditLogger_BadPath(t *testing.T) {
	_, err := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: filepath.Join(t.TempDir(), "missing", "audit.log")})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestAuditLogger_Events(t *testing.T) {
	var buf bytes.Buffer
	l := NewAuditWriter(&buf, "sess")
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	l.LogProject(ctx, AuditEventProjectLoad, "flow.json", 2, errors.New("bad version"))
	l.LogScript(ctx, AuditEventScriptExport, "sikuli", 3, 1)
	l.LogFunction(ctx, AuditEventFunctionExtract, "f1", "Func_1", 4, 0, 2)
	l.LogCompile(ctx, AuditEventCompileEnd, "wf", true, time.Second, 3)

	events := decodeLines(t, &buf)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[0].Success || events[0].ErrorDetail != "bad version" || events[0].ProjectPath != "flow.json" {
		t.Errorf("unexpected project event %+v", events[0])
	}
	if events[1].Details["nodes"] != 3.0 {
		t.Errorf("unexpected script details %v", events[1].Details)
	}
	if events[2].Details["dropped"] != 2.0 || events[2].EventType != AuditEventFunctionExtract {
		t.Errorf("unexpected function event %+v", events[2])
	}
	if events[3].WorkflowID != "wf" {
		t.Errorf("unexpected compile event %+v", events[3])
	}
	for _, ev := range events {
		if ev.SessionID != "sess" || ev.Timestamp.Year() != 2026 {
			t.Errorf("defaults not applied to %+v", ev)
		}
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var l *AuditLogger
	if err := l.Log(&AuditEvent{}); err != nil {
		t.Fatalf("nil logger returned error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("nil close returned error: %v", err)
	}
}
