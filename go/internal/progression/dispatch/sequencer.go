package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/telemetry"
)

const defaultSendTimeout = 5 * time.Second

// Sequencer sends plan messages strictly in order. Message i+1 is not
// attempted until message i has been accepted. The first failure stops the
// plan; nothing is retried here, redelivery of the inbound event is the
// retry.
type Sequencer struct {
	transport   Transport
	sendTimeout time.Duration
}

func NewSequencer(t Transport, sendTimeout time.Duration) *Sequencer {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Sequencer{transport: t, sendTimeout: sendTimeout}
}

// Dispatch sends every message of p and returns how many were accepted.
// On failure the error is a *outcome.DispatchError naming the failed index.
func (s *Sequencer) Dispatch(ctx context.Context, p plan.Plan) (int, error) {
	if p.Suppressed {
		return 0, plan.ErrEmptyPlan
	}
	for _, env := range Envelopes(p) {
		if err := s.send(ctx, env); err != nil {
			log.Error().
				Err(err).
				Str("event_id", p.EventID.String()).
				Int("index", env.Index).
				Str("message_name", env.Name).
				Int("not_attempted", len(p.Messages)-env.Index-1).
				Msg("Dispatch stopped")
			return env.Index, &outcome.DispatchError{Index: env.Index, Message: env.Name, Err: err}
		}
	}
	return len(p.Messages), nil
}

func (s *Sequencer) send(ctx context.Context, env Envelope) error {
	ctx, span := telemetry.StartSpan(ctx, "dispatch "+env.Name,
		attribute.Int("index", env.Index),
		attribute.String("message_id", env.MessageID.String()),
		attribute.String("target", env.Target),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.transport.Send(ctx, env); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	log.Debug().
		Str("event_id", env.EventID.String()).
		Int("index", env.Index).
		Str("message_name", env.Name).
		Msg("Message sent")
	return nil
}
