package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/efebarandurmaz/sikuliflow/internal/depgraph"
	"github.com/efebarandurmaz/sikuliflow/internal/graph"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/observability"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	"github.com/efebarandurmaz/sikuliflow/internal/project"
)

const maxBodyBytes = 16 << 20

// File is a script file in API payloads.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ExportRequest asks for the scripts of a project.
type ExportRequest struct {
	Dialect string       `json:"dialect"`
	Project project.File `json:"project"`
}

// ExportResponse carries generated scripts.
type ExportResponse struct {
	Files []File `json:"files"`
}

// ImportRequest asks for the graph of a set of scripts.
type ImportRequest struct {
	Dialect string `json:"dialect"`
	Files   []File `json:"files"`
}

// ImportResponse carries the reconstructed graph.
type ImportResponse struct {
	Graph      ir.Graph       `json:"graph"`
	Violations []ir.Violation `json:"violations,omitempty"`
}

// AnalyzeRequest asks for the dependency graph of a project.
type AnalyzeRequest struct {
	Project project.File `json:"project"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// API serves the compiler endpoints.
type API struct {
	registry *plugins.Registry
	metrics  *observability.FlowMetrics
	audit    *observability.AuditLogger
	repo     graph.Repository
	events   *Hub
	log      *slog.Logger
}

// APIOption configures an API.
type APIOption func(*API)

// WithMetrics records request and compile metrics in m.
func WithMetrics(m *observability.FlowMetrics) APIOption { return func(a *API) { a.metrics = m } }

// WithAudit records exports and imports in l.
func WithAudit(l *observability.AuditLogger) APIOption { return func(a *API) { a.audit = l } }

// WithRepository enables library publishing to repo.
func WithRepository(repo graph.Repository) APIOption { return func(a *API) { a.repo = repo } }

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) APIOption { return func(a *API) { a.log = l } }

// NewAPI returns an API compiling with the plugins in reg.
func NewAPI(reg *plugins.Registry, opts ...APIOption) *API {
	a := &API{
		registry: reg,
		metrics:  observability.NewFlowMetrics(),
		audit:    observability.Disabled(),
		events:   NewHub(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Events returns the activity stream hub served at /api/events.
func (a *API) Events() *Hub { return a.events }

// Metrics returns the metrics the API records into.
func (a *API) Metrics() *observability.FlowMetrics { return a.metrics }

// Register mounts the API and metrics endpoints on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dialects", a.handleDialects)
	mux.HandleFunc("POST /api/export", a.handleExport)
	mux.HandleFunc("POST /api/import", a.handleImport)
	mux.HandleFunc("POST /api/analyze", a.handleAnalyze)
	mux.HandleFunc("POST /api/projects/{name}/publish", a.handlePublish)
	mux.Handle("GET /api/events", a.events)
	mux.Handle("GET /metrics", a.metrics.Handler())
}

// Middleware logs each request and records it in the request metrics.
func (a *API) Middleware(next http.Handler) http.Handler {
	tracked := a.metrics.Track(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &observability.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		tracked.ServeHTTP(rec, r)
		a.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"duration", time.Since(start),
		)
	})
}

func (a *API) handleDialects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"dialects": a.registry.Languages()})
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !a.decode(w, r, &req) {
		return
	}
	if _, err := a.registry.Target(req.Dialect); err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}
	ctx, span := observability.StartExportSpan(r.Context(), req.Dialect, len(req.Project.Graph.Nodes))
	defer span.End()

	prog := plugins.Program{Main: req.Project.Graph, Functions: req.Project.Functions}
	files, err := project.Compile(ctx, a.registry, req.Dialect, prog)
	if err != nil {
		observability.RecordError(span, err)
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	a.metrics.RecordExport(len(prog.Main.Nodes))
	a.audit.LogScript(ctx, observability.AuditEventScriptExport, req.Dialect, len(prog.Main.Nodes), len(files))
	a.events.Publish(EventScriptExport, map[string]any{"dialect": req.Dialect, "nodes": len(prog.Main.Nodes), "files": len(files)})

	resp := ExportResponse{Files: make([]File, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, File{Path: f.Path, Content: string(f.Content)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !a.decode(w, r, &req) {
		return
	}
	source, err := a.registry.Source(req.Dialect)
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return
	}
	ctx, span := observability.StartImportSpan(r.Context(), req.Dialect, len(req.Files))
	defer span.End()

	files := make([]plugins.SourceFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, plugins.SourceFile{Path: f.Path, Content: []byte(f.Content)})
	}
	g, err := source.Parse(ctx, files)
	if err != nil {
		observability.RecordError(span, err)
		a.fail(w, http.StatusUnprocessableEntity, err)
		return
	}
	observability.RecordGraphResult(span, len(g.Nodes), len(g.Edges))
	a.metrics.RecordImport(len(g.Nodes))
	a.audit.LogScript(ctx, observability.AuditEventScriptImport, req.Dialect, len(g.Nodes), len(files))
	a.events.Publish(EventScriptImport, map[string]any{"dialect": req.Dialect, "nodes": len(g.Nodes), "edges": len(g.Edges)})
	writeJSON(w, http.StatusOK, ImportResponse{Graph: g, Violations: g.Validate()})
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !a.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, depgraph.Analyze(req.Project.Graph, req.Project.Functions))
}

func (a *API) handlePublish(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		a.fail(w, http.StatusServiceUnavailable, errors.New("graph store not configured"))
		return
	}
	var f project.File
	if !a.decode(w, r, &f) {
		return
	}
	name := r.PathValue("name")
	if err := a.repo.StoreLibrary(r.Context(), name, f.Functions); err != nil {
		a.fail(w, http.StatusBadGateway, fmt.Errorf("publish %s: %w", name, err))
		return
	}
	a.events.Publish(EventLibraryPublish, map[string]any{"project": name, "functions": len(f.Functions)})
	writeJSON(w, http.StatusOK, map[string]any{"project": name, "functions": len(f.Functions)})
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.fail(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func (a *API) fail(w http.ResponseWriter, status int, err error) {
	a.log.Warn("request failed", "status", status, "error", err)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
