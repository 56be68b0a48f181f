package dispatch

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogTransport only logs. It is used for local runs without a broker.
type LogTransport struct{}

func (LogTransport) Send(ctx context.Context, env Envelope) error {
	log.Info().
		Str("event_id", env.EventID.String()).
		Int("index", env.Index).
		Str("kind", string(env.Kind)).
		Str("target", env.Target).
		Str("message_name", env.Name).
		RawJSON("payload", env.Payload).
		Msg("would send message")
	return nil
}
