package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterScope = "github.com/spec-kit/snowsync"

// Metrics records bridge counters into OpenTelemetry instruments. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	requests       metric.Int64Counter
	duration       metric.Float64Histogram
	errors         metric.Int64Counter
	comments       metric.Int64Counter
	tokenRefreshes metric.Int64Counter
	transfers      metric.Int64Counter
}

// NewMetrics creates instruments on the global meter provider.
func NewMetrics() *Metrics {
	return NewMetricsWithMeter(Meter(meterScope))
}

// NewMetricsWithMeter creates instruments on the given meter.
func NewMetricsWithMeter(m metric.Meter) *Metrics {
	requests, _ := m.Int64Counter("snowsync.requests",
		metric.WithDescription("Inbound invocations by route and status"),
	)
	duration, _ := m.Float64Histogram("snowsync.request.duration",
		metric.WithDescription("Inbound invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errors, _ := m.Int64Counter("snowsync.errors",
		metric.WithDescription("Failed invocations by error code"),
	)
	comments, _ := m.Int64Counter("snowsync.jsd.comments",
		metric.WithDescription("Change comments posted to Jira Service Desk"),
	)
	tokenRefreshes, _ := m.Int64Counter("snowsync.snow.token_refreshes",
		metric.WithDescription("ServiceNow access token refreshes"),
	)
	transfers, _ := m.Int64Counter("snowsync.attachments",
		metric.WithDescription("Attachment transfers by direction and outcome"),
	)
	return &Metrics{
		requests:       requests,
		duration:       duration,
		errors:         errors,
		comments:       comments,
		tokenRefreshes: tokenRefreshes,
		transfers:      transfers,
	}
}

// RecordRequest counts one handled invocation.
func (m *Metrics) RecordRequest(ctx context.Context, route, method string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.requests.Add(ctx, 1, attrs)
	if m.duration != nil {
		m.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}
}

// RecordError counts a failure by error code.
func (m *Metrics) RecordError(ctx context.Context, route, method, code string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
		attribute.String("code", code),
	))
}

// RecordComment counts one change comment.
func (m *Metrics) RecordComment(ctx context.Context, field string) {
	if m == nil || m.comments == nil {
		return
	}
	m.comments.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

// RecordTokenRefresh counts one identity round trip.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, reason string) {
	if m == nil || m.tokenRefreshes == nil {
		return
	}
	m.tokenRefreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordTransfer counts one attachment relay attempt.
func (m *Metrics) RecordTransfer(ctx context.Context, direction string, ok bool) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.Bool("ok", ok),
	))
}
