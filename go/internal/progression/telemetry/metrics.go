package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsCollector records reaction and dispatch metrics.
type MetricsCollector interface {
	RecordReaction(ctx context.Context, eventType, outcome string, duration time.Duration)
	RecordMessageSent(ctx context.Context, kind, name string, success bool, duration time.Duration)
}

// NoOpMetricsCollector drops everything.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordReaction(context.Context, string, string, time.Duration) {}
func (NoOpMetricsCollector) RecordMessageSent(context.Context, string, string, bool, time.Duration) {
}

// OtelMetrics implements MetricsCollector with OpenTelemetry instruments.
type OtelMetrics struct {
	reactions        metric.Int64Counter
	reactionDuration metric.Float64Histogram
	messagesSent     metric.Int64Counter
	sendFailures     metric.Int64Counter
	sendDuration     metric.Float64Histogram
}

// NewOtelMetrics creates the instruments on mp, or on the global provider
// when mp is nil.
func NewOtelMetrics(mp metric.MeterProvider) (*OtelMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(TracerName)

	m := &OtelMetrics{}
	var err error
	if m.reactions, err = meter.Int64Counter("progression.reactions",
		metric.WithDescription("Reactions by event type and outcome")); err != nil {
		return nil, err
	}
	if m.reactionDuration, err = meter.Float64Histogram("progression.reaction.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time from decode to last dispatch")); err != nil {
		return nil, err
	}
	if m.messagesSent, err = meter.Int64Counter("progression.messages.sent",
		metric.WithDescription("Outbound messages sent by kind")); err != nil {
		return nil, err
	}
	if m.sendFailures, err = meter.Int64Counter("progression.messages.failed",
		metric.WithDescription("Outbound sends that failed")); err != nil {
		return nil, err
	}
	if m.sendDuration, err = meter.Float64Histogram("progression.message.send.duration",
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *OtelMetrics) RecordReaction(ctx context.Context, eventType, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	)
	m.reactions.Add(ctx, 1, attrs)
	m.reactionDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *OtelMetrics) RecordMessageSent(ctx context.Context, kind, name string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("name", name),
	)
	if success {
		m.messagesSent.Add(ctx, 1, attrs)
	} else {
		m.sendFailures.Add(ctx, 1, attrs)
	}
	m.sendDuration.Record(ctx, duration.Seconds(), attrs)
}
