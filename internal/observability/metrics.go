package observability

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MetricsRegistry holds named counters, gauges and histograms and renders
// them in the Prometheus text exposition format.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	histos   map[string]*Histogram
}

type metric struct {
	name string
	help string
	mu   sync.Mutex
}

// Counter is a monotonically increasing metric.
type Counter struct {
	metric
	value float64
}

// Gauge is a metric that can go up or down.
type Gauge struct {
	metric
	value float64
}

// Histogram tracks a distribution over fixed upper bounds.
type Histogram struct {
	metric
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		histos:   make(map[string]*Histogram),
	}
}

// Counter returns the counter called name, registering it on first use.
func (r *MetricsRegistry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{metric: metric{name: name, help: help}}
	r.counters[name] = c
	return c
}

// Gauge returns the gauge called name, registering it on first use.
func (r *MetricsRegistry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{metric: metric{name: name, help: help}}
	r.gauges[name] = g
	return g
}

// Histogram returns the histogram called name, registering it on first
// use. Nil buckets select DefaultBuckets.
func (r *MetricsRegistry) Histogram(name, help string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histos[name]; ok {
		return h
	}
	if buckets == nil {
		buckets = DefaultBuckets()
	}
	h := &Histogram{metric: metric{name: name, help: help}, buckets: buckets, counts: make([]uint64, len(buckets))}
	r.histos[name] = h
	return h
}

// DefaultBuckets returns latency buckets in seconds.
func DefaultBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (g *Gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.mu.Unlock()
}

func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i]++
		}
	}
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// ObserveDuration records the time elapsed since start in seconds.
func (h *Histogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Handler serves the registry in Prometheus text format.
func (r *MetricsRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WritePrometheus(w)
	})
}

// WritePrometheus writes every metric sorted by name.
func (r *MetricsRegistry) WritePrometheus(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		writeScalar(w, name, "counter", c.help, c.Value())
	}
	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		writeScalar(w, name, "gauge", g.help, g.Value())
	}
	for _, name := range sortedKeys(r.histos) {
		writeHistogram(w, r.histos[name])
	}
}

func writeScalar(w io.Writer, name, typ, help string, v float64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %s\n", name, help, name, typ, name, formatFloat(v))
}

func writeHistogram(w io.Writer, h *Histogram) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
	for i, bound := range h.buckets {
		fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", h.name, formatFloat(bound), h.counts[i])
	}
	fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.count)
	fmt.Fprintf(w, "%s_sum %s\n%s_count %d\n", h.name, formatFloat(h.sum), h.name, h.count)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FlowMetrics are the metrics exposed by the API server.
type FlowMetrics struct {
	Registry *MetricsRegistry

	RequestsInFlight *Gauge
	RequestDuration  *Histogram
	ExportsTotal     *Counter
	ImportsTotal     *Counter
	ErrorsTotal      *Counter
	NodesExported    *Counter
	NodesImported    *Counter
}

// NewFlowMetrics registers the server metrics on a fresh registry.
func NewFlowMetrics() *FlowMetrics {
	r := NewMetricsRegistry()
	return &FlowMetrics{
		Registry:         r,
		RequestsInFlight: r.Gauge("sikuliflow_http_requests_in_flight", "Requests being served"),
		RequestDuration:  r.Histogram("sikuliflow_http_request_duration_seconds", "Request duration", nil),
		ExportsTotal:     r.Counter("sikuliflow_exports_total", "Scripts generated"),
		ImportsTotal:     r.Counter("sikuliflow_imports_total", "Scripts parsed"),
		ErrorsTotal:      r.Counter("sikuliflow_errors_total", "Requests that failed"),
		NodesExported:    r.Counter("sikuliflow_nodes_exported_total", "Nodes in exported graphs"),
		NodesImported:    r.Counter("sikuliflow_nodes_imported_total", "Nodes produced by imports"),
	}
}

// Handler serves the metrics endpoint.
func (m *FlowMetrics) Handler() http.Handler { return m.Registry.Handler() }

// RecordExport counts one generated script.
func (m *FlowMetrics) RecordExport(nodes int) {
	m.ExportsTotal.Inc()
	m.NodesExported.Add(float64(nodes))
}

// RecordImport counts one parsed script.
func (m *FlowMetrics) RecordImport(nodes int) {
	m.ImportsTotal.Inc()
	m.NodesImported.Add(float64(nodes))
}

// Track wraps h with in-flight, duration and error accounting.
func (m *FlowMetrics) Track(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		m.RequestsInFlight.Add(1)
		defer m.RequestsInFlight.Add(-1)

		rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		h.ServeHTTP(rec, req)
		m.RequestDuration.ObserveDuration(start)
		if rec.Status >= 400 {
			m.ErrorsTotal.Inc()
		}
	})
}

// StatusRecorder captures the status code written through it.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *StatusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
