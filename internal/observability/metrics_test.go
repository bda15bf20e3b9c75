package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestRegistry_ReusesMetrics(t *testing.T) {
	r := NewMetricsRegistry()
	a := r.Counter("c", "help")
	b := r.Counter("c", "other")
	if a != b {
		t.Fatal("expected the same counter for the same name")
	}
}

func TestCounterConcurrent(t *testing.T) {
	c := NewMetricsRegistry().Counter("c", "")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	if c.Value() != 50 {
		t.Fatalf("expected 50, got %v", c.Value())
	}
}

func TestHistogramBuckets(t *testing.T) {
	h := NewMetricsRegistry().Histogram("h", "", []float64{1, 5})
	for _, v := range []float64{0.5, 3, 10} {
		h.Observe(v)
	}
	var buf bytes.Buffer
	writeHistogram(&buf, h)
	out := buf.String()
	for _, want := range []string{
		`h_bucket{le="1"} 1`,
		`h_bucket{le="5"} 2`,
		`h_bucket{le="+Inf"} 3`,
		"h_sum 13.5",
		"h_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWritePrometheus_Sorted(t *testing.T) {
	r := NewMetricsRegistry()
	r.Counter("b_total", "b").Inc()
	r.Counter("a_total", "a").Add(2)
	r.Gauge("g", "g").Add(-1)

	var buf bytes.Buffer
	r.WritePrometheus(&buf)
	out := buf.String()
	if strings.Index(out, "a_total 2") > strings.Index(out, "b_total 1") {
		t.Errorf("expected sorted output:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE g gauge\ng -1") {
		t.Errorf("missing gauge:\n%s", out)
	}
}

func TestFlowMetrics_Track(t *testing.T) {
	m := NewFlowMetrics()
	h := m.Track(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "nope", http.StatusBadRequest)
			return
		}
		m.RecordExport(3)
	}))

	for _, path := range []string{"/ok", "/fail", "/ok"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}
	if m.ExportsTotal.Value() != 2 || m.NodesExported.Value() != 6 {
		t.Errorf("unexpected export counters %v %v", m.ExportsTotal.Value(), m.NodesExported.Value())
	}
	if m.ErrorsTotal.Value() != 1 {
		t.Errorf("expected 1 error, got %v", m.ErrorsTotal.Value())
	}
	if m.RequestDuration.Count() != 3 {
		t.Errorf("expected 3 observations, got %d", m.RequestDuration.Count())
	}
	if m.RequestsInFlight.Value() != 0 {
		t.Errorf("expected no requests in flight, got %v", m.RequestsInFlight.Value())
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "sikuliflow_exports_total 2") {
		t.Errorf("unexpected exposition:\n%s", rec.Body.String())
	}
}
