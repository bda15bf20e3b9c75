// Package observability provides logging, OpenTelemetry tracing, metrics
// and the edit audit trail for sikuliflow.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TracerName is the instrumentation scope of every sikuliflow span.
const TracerName = "github.com/efebarandurmaz/sikuliflow"

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g. "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate in [0, 1].
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "sikuliflow",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}
	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes and stops the provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Span kinds recorded under sikuliflow.span.kind.
const (
	SpanKindExport    = "export"
	SpanKindImport    = "import"
	SpanKindExtract   = "extract"
	SpanKindPropagate = "propagate"
	SpanKindSnapshot  = "snapshot"
)

func start(ctx context.Context, name, kind string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("sikuliflow.span.kind", kind))
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartExportSpan starts a span for script generation.
func StartExportSpan(ctx context.Context, dialect string, nodes int) (context.Context, trace.Span) {
	return start(ctx, "script.export", SpanKindExport,
		attribute.String("script.dialect", dialect),
		attribute.Int("graph.nodes", nodes),
	)
}

// StartImportSpan starts a span for script parsing.
func StartImportSpan(ctx context.Context, dialect string, files int) (context.Context, trace.Span) {
	return start(ctx, "script.import", SpanKindImport,
		attribute.String("script.dialect", dialect),
		attribute.Int("script.files", files),
	)
}

// StartExtractSpan starts a span for grouping a selection into a function.
func StartExtractSpan(ctx context.Context, selected int) (context.Context, trace.Span) {
	return start(ctx, "function.extract", SpanKindExtract,
		attribute.Int("selection.nodes", selected),
	)
}

// StartPropagateSpan starts a span for resyncing call sites after a
// definition changed.
func StartPropagateSpan(ctx context.Context, defID, defName string) (context.Context, trace.Span) {
	return start(ctx, fmt.Sprintf("function.propagate.%s", defName), SpanKindPropagate,
		attribute.String("function.id", defID),
		attribute.String("function.name", defName),
	)
}

// StartSnapshotSpan starts a span for a snapshot store operation.
func StartSnapshotSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return start(ctx, "snapshot."+op, SpanKindSnapshot)
}

// RecordGraphResult records the size of a produced graph.
func RecordGraphResult(span trace.Span, nodes, edges int) {
	span.SetAttributes(
		attribute.Int("graph.result_nodes", nodes),
		attribute.Int("graph.result_edges", edges),
	)
}

// RecordReport records how many nodes, rebinds and dropped edges an
// abstraction operation produced.
func RecordReport(span trace.Span, nodes, rebound, dropped int) {
	span.SetAttributes(
		attribute.Int("report.nodes", nodes),
		attribute.Int("report.rebound", rebound),
		attribute.Int("report.dropped", dropped),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
