package dispatch

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/progression/go/internal/progression/telemetry"
)

// MetricTransport wraps a Transport with send metrics.
type MetricTransport struct {
	transport Transport
	metrics   telemetry.MetricsCollector
	clock     clockwork.Clock
}

func NewMetricTransport(t Transport, m telemetry.MetricsCollector, clock clockwork.Clock) *MetricTransport {
	return &MetricTransport{transport: t, metrics: m, clock: clock}
}

func (t *MetricTransport) Send(ctx context.Context, env Envelope) error {
	start := t.clock.Now()
	err := t.transport.Send(ctx, env)
	t.metrics.RecordMessageSent(ctx, string(env.Kind), env.Name, err == nil, t.clock.Since(start))
	return err
}
