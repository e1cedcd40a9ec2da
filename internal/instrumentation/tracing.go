package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the meter and tracer of this client.
const InstrumentationName = "github.com/mcp-okta-support/okta-go"

// Span attribute keys.
const (
	SpanAttrOperation  = "okta.operation"
	SpanAttrBucket     = "okta.bucket"
	SpanAttrMethod     = "http.request.method"
	SpanAttrPath       = "url.path"
	SpanAttrStatus     = "http.response.status_code"
	SpanAttrAttempts   = "okta.attempts"
	SpanAttrErrorKind  = "okta.error_kind"
	SpanAttrIdempotent = "okta.idempotent"
)

// Provider bundles the metrics and tracer of one client instance.
type Provider struct {
	Metrics *Metrics
	tracer  trace.Tracer
}

// NewProvider builds a Provider. Nil providers fall back to the otel globals,
// which are no-ops unless the application installed an SDK.
func NewProvider(meterProvider metric.MeterProvider, tracerProvider trace.TracerProvider) (*Provider, error) {
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}

	if tracerProvider == nil {
		tracerProvider = otel.GetTracerProvider()
	}

	metrics, err := NewMetrics(meterProvider.Meter(InstrumentationName))
	if err != nil {
		return nil, err
	}

	return &Provider{
		Metrics: metrics,
		tracer:  tracerProvider.Tracer(InstrumentationName),
	}, nil
}

// StartSpan starts a client span. On a nil Provider it returns a no-op span
// and leaves any span already in ctx alone.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if p == nil || p.tracer == nil {
		return ctx, noop.Span{}
	}

	return p.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// EndSpan records err on span and ends it.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
