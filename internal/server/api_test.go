package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/efebarandurmaz/sikuliflow/internal/depgraph"
	"github.com/efebarandurmaz/sikuliflow/internal/graph"
	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
	"github.com/efebarandurmaz/sikuliflow/internal/ir"
	"github.com/efebarandurmaz/sikuliflow/internal/plugins"
	source "github.com/efebarandurmaz/sikuliflow/internal/plugins/source/sikuli"
	target "github.com/efebarandurmaz/sikuliflow/internal/plugins/target/sikuli"
	"github.com/efebarandurmaz/sikuliflow/internal/project"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testRegistry() *plugins.Registry {
	r := plugins.NewRegistry()
	r.RegisterSource(source.New(idgen.NewSequence("n")))
	r.RegisterTarget(target.New())
	return r
}

func newTestServer(opts ...APIOption) *Server {
	api := NewAPI(testRegistry(), append([]APIOption{WithLogger(quiet)}, opts...)...)
	return New(Config{Logger: quiet}, api)
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw)))
	return rec
}

func sampleProject() project.File {
	f := project.Empty()
	click := ir.Node{ID: "a", Type: ir.NodeImageClick, Label: "Click Image",
		Data:        ir.ImageClickData{Image: "ok.png"},
		InputPorts:  []ir.Port{{ID: "a.in", Name: "in"}},
		OutputPorts: []ir.Port{{ID: "a.out", Name: "out"}}}
	wait := ir.Node{ID: "b", Type: ir.NodeWait, Label: "Wait",
		Data:        ir.WaitData{Seconds: 2},
		InputPorts:  []ir.Port{{ID: "b.in", Name: "in"}},
		OutputPorts: []ir.Port{{ID: "b.out", Name: "out"}}}
	f.Graph = f.Graph.AddNode(click).AddNode(wait)
	f.Graph, _ = f.Graph.AddEdge(ir.Edge{ID: "e", FromNodeID: "a", FromPortID: "a.out", ToNodeID: "b", ToPortID: "b.in"})
	f.Functions = append(f.Functions, ir.FunctionDef{ID: "f1", Name: "Helper", Graph: ir.Graph{}})
	return f
}

func TestAPI_Export(t *testing.T) {
	s := newTestServer()
	rec := post(t, s.Handler(), "/api/export", ExportRequest{Dialect: "sikuli", Project: sampleProject()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp ExportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Files) != 2 || resp.Files[0].Path != "script.py" || resp.Files[1].Path != "functions/Helper.py" {
		t.Fatalf("unexpected files %+v", resp.Files)
	}
	if want := "from sikuli import *\nclick(\"ok.png\")\nwait(2)\n"; resp.Files[0].Content != want {
		t.Errorf("script = %q, want %q", resp.Files[0].Content, want)
	}
	if got := s.API.Metrics().ExportsTotal.Value(); got != 1 {
		t.Errorf("exports_total = %v, want 1", got)
	}
}

func TestAPI_Import(t *testing.T) {
	s := newTestServer()
	rec := post(t, s.Handler(), "/api/import", ImportRequest{
		Dialect: "sikuli",
		Files:   []File{{Path: "script.py", Content: "click(\"ok.png\")\nwait(3)\n"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp ImportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Graph.Nodes) != 2 || len(resp.Graph.Edges) != 1 || len(resp.Violations) != 0 {
		t.Errorf("unexpected import %+v", resp)
	}
	if got := s.API.Metrics().NodesImported.Value(); got != 2 {
		t.Errorf("nodes_imported_total = %v, want 2", got)
	}
}

func TestAPI_Errors(t *testing.T) {
	s := newTestServer()
	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"bad json", "/api/export", "{", http.StatusBadRequest},
		{"unknown export dialect", "/api/export", `{"dialect":"autoit"}`, http.StatusBadRequest},
		{"unknown import dialect", "/api/import", `{"dialect":"autoit"}`, http.StatusBadRequest},
		{"publish without store", "/api/projects/demo/publish", `{}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.code {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("expected error body, got %v %+v", err, resp)
			}
		})
	}
	if got := s.API.Metrics().ErrorsTotal.Value(); got != float64(len(tests)) {
		t.Errorf("errors_total = %v, want %d", got, len(tests))
	}
}

func TestAPI_Analyze(t *testing.T) {
	s := newTestServer()
	rec := post(t, s.Handler(), "/api/analyze", AnalyzeRequest{Project: sampleProject()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var g depgraph.Graph
	if err := json.NewDecoder(rec.Body).Decode(&g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.Stats.StepCount != 2 {
		t.Errorf("step count = %d, want 2", g.Stats.StepCount)
	}
}

func TestAPI_Publish(t *testing.T) {
	repo := graph.NewMemory()
	s := newTestServer(WithRepository(repo))
	rec := post(t, s.Handler(), "/api/projects/demo/publish", sampleProject())
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	defs, _ := repo.LoadLibrary(context.Background(), "demo")
	if len(defs) != 1 || defs[0].Name != "Helper" {
		t.Errorf("unexpected stored library %+v", defs)
	}
}

func TestAPI_DialectsAndMetrics(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dialects", nil))
	if !strings.Contains(rec.Body.String(), `"sikuli"`) {
		t.Errorf("dialects = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "sikuliflow_http_request_duration_seconds") {
		t.Errorf("metrics output missing histogram:\n%s", rec.Body.String())
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := newTestServer()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	url := "http://" + l.Addr().String() + "/livez"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live status %d", resp.StatusCode)
	}

	s.Shutdown.Shutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
