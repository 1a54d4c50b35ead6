// Package telemetry wires OpenTelemetry tracing for the toolkit. Client
// packages call StartSpan/EndSpan unconditionally; without an installed
// Manager the calls fall through to the global no-op tracer.
package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/cexll/foundrykit"

// Config controls exporter and resource identity.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP/HTTP collector host:port. Empty uses the
	// exporter's environment-derived default.
	Endpoint string
	Insecure bool
}

// Manager owns a tracer provider backed by the OTLP HTTP exporter.
type Manager struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

var defaultManager atomic.Pointer[Manager]

// NewManager builds a Manager and its exporter. Call Shutdown before exit to
// flush buffered spans.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "foundrykit"
	}
	var exporterOpts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.Environment))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewSchemaless(attrs...)),
	)
	return &Manager{provider: provider, tracer: provider.Tracer(scopeName)}, nil
}

// Shutdown flushes and stops the provider.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// SetDefault installs m as the process-wide manager used by StartSpan.
func SetDefault(m *Manager) {
	defaultManager.Store(m)
}

// StartSpan opens a span on the default manager's tracer, or the global
// (no-op by default) tracer when none is installed.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if m := defaultManager.Load(); m != nil && m.tracer != nil {
		return m.tracer.Start(ctx, name, opts...)
	}
	return otel.Tracer(scopeName).Start(ctx, name, opts...)
}

// EndSpan records err (when non-nil) and closes the span.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
