package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventProjectLoad     AuditEventType = "project.load"
	AuditEventProjectSave     AuditEventType = "project.save"
	AuditEventScriptExport    AuditEventType = "script.export"
	AuditEventScriptImport    AuditEventType = "script.import"
	AuditEventFunctionExtract AuditEventType = "function.extract"
	AuditEventFunctionSave    AuditEventType = "function.save"
	AuditEventSnapshotSave    AuditEventType = "snapshot.save"
	AuditEventSnapshotRestore AuditEventType = "snapshot.restore"
	AuditEventLibraryPublish  AuditEventType = "library.publish"
	AuditEventCompileStart    AuditEventType = "compile.start"
	AuditEventCompileEnd      AuditEventType = "compile.end"
)

// AuditEvent is one JSONL line of the audit trail.
type AuditEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventType   AuditEventType `json:"event_type"`
	SessionID   string         `json:"session_id"`
	ProjectPath string         `json:"project_path,omitempty"`
	WorkflowID  string         `json:"workflow_id,omitempty"`
	Success     bool           `json:"success"`
	Duration    time.Duration  `json:"duration_ms,omitempty"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // file path or "stdout"/"stderr"
	SessionID  string
}

// DefaultAuditConfig returns a disabled configuration writing to stderr.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{OutputPath: "stderr"}
}

// AuditLogger appends audit events as JSON lines.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
	now       func() time.Time
}

// NewAuditLogger opens the configured output.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}
	if !config.Enabled {
		return Disabled(), nil
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}
	return NewAuditWriter(writer, sessionID), nil
}

// NewAuditWriter returns an enabled logger writing to w.
func NewAuditWriter(w io.Writer, sessionID string) *AuditLogger {
	return &AuditLogger{writer: w, sessionID: sessionID, enabled: true, now: time.Now}
}

// Disabled returns a logger that drops every event.
func Disabled() *AuditLogger {
	return &AuditLogger{enabled: false, now: time.Now}
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if l == nil || !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogProject records a project file being loaded or saved.
func (l *AuditLogger) LogProject(ctx context.Context, typ AuditEventType, path string, functions int, err error) {
	ev := &AuditEvent{
		EventType:   typ,
		ProjectPath: path,
		Success:     err == nil,
		Message:     fmt.Sprintf("%s %s", typ, path),
		Details:     map[string]any{"functions": functions},
	}
	if err != nil {
		ev.ErrorDetail = err.Error()
	}
	l.Log(ev)
}

// LogScript records an export or import of a script.
func (l *AuditLogger) LogScript(ctx context.Context, typ AuditEventType, dialect string, nodes, files int) {
	l.Log(&AuditEvent{
		EventType: typ,
		Success:   true,
		Message:   fmt.Sprintf("%s %s: %d nodes, %d files", typ, dialect, nodes, files),
		Details: map[string]any{
			"dialect": dialect,
			"nodes":   nodes,
			"files":   files,
		},
	})
}

// LogFunction records an extraction or a definition save and what it did
// to the surrounding graphs.
func (l *AuditLogger) LogFunction(ctx context.Context, typ AuditEventType, defID, name string, nodes, rebound, dropped int) {
	l.Log(&AuditEvent{
		EventType: typ,
		Success:   true,
		Message:   fmt.Sprintf("%s %s", typ, name),
		Details: map[string]any{
			"function_id": defID,
			"nodes":       nodes,
			"rebound":     rebound,
			"dropped":     dropped,
		},
	})
}

// LogSnapshot records a snapshot store operation.
func (l *AuditLogger) LogSnapshot(ctx context.Context, typ AuditEventType, id string, err error) {
	ev := &AuditEvent{
		EventType: typ,
		Success:   err == nil,
		Message:   fmt.Sprintf("%s %s", typ, id),
		Details:   map[string]any{"snapshot_id": id},
	}
	if err != nil {
		ev.ErrorDetail = err.Error()
	}
	l.Log(ev)
}

// LogCompile records the start or end of a batch compile workflow.
func (l *AuditLogger) LogCompile(ctx context.Context, typ AuditEventType, workflowID string, success bool, duration time.Duration, files int) {
	l.Log(&AuditEvent{
		EventType:  typ,
		WorkflowID: workflowID,
		Success:    success,
		Duration:   duration,
		Message:    fmt.Sprintf("%s: %d files", typ, files),
		Details:    map[string]any{"files": files},
	})
}

// Close closes the audit logger (if using a file).
func (l *AuditLogger) Close() error {
	if l == nil {
		return nil
	}
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}
