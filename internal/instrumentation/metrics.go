package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrBucket    = "bucket"
	attrStatus    = "status"
	attrErrorKind = "error_kind"
	attrResult    = "result"
	attrOperation = "operation"
)

// Result values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics provides methods for recording client metrics. A nil *Metrics, or
// one built from a noop meter, records nothing.
type Metrics struct {
	requestsTotal      metric.Int64Counter
	requestDuration    metric.Float64Histogram
	retriesTotal       metric.Int64Counter
	rateLimitWaits     metric.Int64Counter
	rateLimitWaitTime  metric.Float64Histogram
	tokenRefreshes     metric.Int64Counter
	operationsTotal    metric.Int64Counter
	operationDuration  metric.Float64Histogram
	rateLimitRemaining metric.Int64Gauge
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.requestsTotal, err = meter.Int64Counter(
		"okta_http_requests_total",
		metric.WithDescription("Total number of HTTP requests sent to Okta"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_http_requests_total counter: %w", err)
	}

	m.requestDuration, err = meter.Float64Histogram(
		"okta_http_request_duration_seconds",
		metric.WithDescription("Okta HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_http_request_duration_seconds histogram: %w", err)
	}

	m.retriesTotal, err = meter.Int64Counter(
		"okta_retries_total",
		metric.WithDescription("Total number of retried Okta requests"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_retries_total counter: %w", err)
	}

	m.rateLimitWaits, err = meter.Int64Counter(
		"okta_rate_limit_waits_total",
		metric.WithDescription("Total number of requests suspended by the rate limiter"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_rate_limit_waits_total counter: %w", err)
	}

	m.rateLimitWaitTime, err = meter.Float64Histogram(
		"okta_rate_limit_wait_seconds",
		metric.WithDescription("Time spent suspended by the rate limiter in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 5.0, 15.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_rate_limit_wait_seconds histogram: %w", err)
	}

	m.rateLimitRemaining, err = meter.Int64Gauge(
		"okta_rate_limit_remaining",
		metric.WithDescription("Last observed remaining request budget per bucket"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_rate_limit_remaining gauge: %w", err)
	}

	m.tokenRefreshes, err = meter.Int64Counter(
		"okta_token_refreshes_total",
		metric.WithDescription("Total number of OAuth token exchanges"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_token_refreshes_total counter: %w", err)
	}

	m.operationsTotal, err = meter.Int64Counter(
		"okta_operations_total",
		metric.WithDescription("Total number of logical Okta operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_operations_total counter: %w", err)
	}

	m.operationDuration, err = meter.Float64Histogram(
		"okta_operation_duration_seconds",
		metric.WithDescription("Logical Okta operation duration in seconds, including retries and waits"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create okta_operation_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records one HTTP attempt. status is 0 when no response
// was received.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, bucket string, status int, duration time.Duration) {
	if m == nil || m.requestsTotal == nil || m.requestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrBucket, bucket),
		attribute.String(attrStatus, strconv.Itoa(status)),
	}

	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRetry records a retry scheduled after a failure of errorKind.
func (m *Metrics) RecordRetry(ctx context.Context, bucket, errorKind string) {
	if m == nil || m.retriesTotal == nil {
		return
	}

	m.retriesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrBucket, bucket),
		attribute.String(attrErrorKind, errorKind),
	))
}

// RecordRateLimitWait records time a caller spent suspended on bucket.
func (m *Metrics) RecordRateLimitWait(ctx context.Context, bucket string, waited time.Duration) {
	if m == nil || m.rateLimitWaits == nil || m.rateLimitWaitTime == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrBucket, bucket))

	m.rateLimitWaits.Add(ctx, 1, attrs)
	m.rateLimitWaitTime.Record(ctx, waited.Seconds(), attrs)
}

// RecordRateLimitRemaining records the budget last reported for bucket.
func (m *Metrics) RecordRateLimitRemaining(ctx context.Context, bucket string, remaining int) {
	if m == nil || m.rateLimitRemaining == nil {
		return
	}

	m.rateLimitRemaining.Record(ctx, int64(remaining), metric.WithAttributes(attribute.String(attrBucket, bucket)))
}

// RecordTokenRefresh records an OAuth token exchange.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, err error) {
	if m == nil || m.tokenRefreshes == nil {
		return
	}

	m.tokenRefreshes.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result(err))))
}

// RecordOperation records a logical operation.
func (m *Metrics) RecordOperation(ctx context.Context, operation string, err error, duration time.Duration) {
	if m == nil || m.operationsTotal == nil || m.operationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrResult, result(err)),
	)

	m.operationsTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, duration.Seconds(), attrs)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}

	return ResultSuccess
}
