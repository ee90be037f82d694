package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultTracerName is the instrumentation name used for rudis spans.
const DefaultTracerName = "github.com/yndnr/rudis-go"

// Config configures the tracer provider.
type Config struct {
	// Enabled turns tracing on.
	Enabled bool
	// TracerName is the instrumentation scope (default: DefaultTracerName).
	TracerName string
}

// Provider hands out spans.
type Provider struct {
	tp     trace.TracerProvider
	tracer trace.Tracer
}

// New creates a provider from cfg. A disabled config yields a no-op provider.
func New(cfg Config) *Provider {
	if !cfg.Enabled {
		return NewWithProvider(noop.NewTracerProvider(), cfg.TracerName)
	}
	return NewWithProvider(otel.GetTracerProvider(), cfg.TracerName)
}

// NewWithProvider wraps an existing TracerProvider.
func NewWithProvider(tp trace.TracerProvider, name string) *Provider {
	if name == "" {
		name = DefaultTracerName
	}
	return &Provider{tp: tp, tracer: tp.Tracer(name)}
}

// Shutdown flushes the underlying provider if it supports it.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if s, ok := p.tp.(interface{ Shutdown(context.Context) error }); ok {
		return s.Shutdown(ctx)
	}
	return nil
}

// StartSpan starts a server span. It is safe on a nil Provider.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	if p == nil {
		return ctx, &Span{span: trace.SpanFromContext(ctx)}
	}
	ctx, span := p.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
	return ctx, &Span{span: span}
}

// Span is a started span.
type Span struct {
	span trace.Span
}

// SetAttributes adds attributes to the span.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// TraceID returns the hex trace id, or "" for a non-recording span.
func (s *Span) TraceID() string {
	sc := s.span.SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// End finishes the span, marking it failed when err is non-nil.
func (s *Span) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
