package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/telemetry"
)

// Headers set on every published message.
const (
	HeaderMessageType   = "Event-Type"
	HeaderMessageID     = "Message-ID"
	HeaderCorrelationID = "Correlation-ID"
	HeaderCausationID   = "Causation-ID"
	HeaderUserID        = "User-ID"
)

// Publisher is the part of jetstream.JetStream used to publish.
type Publisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamConfig names the subjects and streams outbound messages go to.
type JetStreamConfig struct {
	CommandSubjectPrefix string
	CommandStream        string
	PublicSubjectPrefix  string
	PublicStream         string
}

// JetStreamTransport publishes commands to "<commandPrefix>.<target>.<name>"
// and public events to "<publicPrefix>.<name>". Message ids are derived from
// the inbound event, so a redelivered reaction is absorbed by the stream's
// duplicate window.
type JetStreamTransport struct {
	js     Publisher
	config JetStreamConfig
	clock  clockwork.Clock
}

func NewJetStreamTransport(js Publisher, cfg JetStreamConfig, clock clockwork.Clock) *JetStreamTransport {
	return &JetStreamTransport{js: js, config: cfg, clock: clock}
}

// Subject returns the subject and stream env is published to.
func (t *JetStreamTransport) Subject(env Envelope) (subject, stream string) {
	if env.Kind == plan.PublicEvent {
		return fmt.Sprintf("%s.%s", t.config.PublicSubjectPrefix, env.Name), t.config.PublicStream
	}
	return fmt.Sprintf("%s.%s.%s", t.config.CommandSubjectPrefix, env.Target, env.Name), t.config.CommandStream
}

type outboundEnvelope struct {
	MessageID string            `json:"messageId"`
	Name      string            `json:"name"`
	Timestamp string            `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Payload   json.RawMessage   `json:"payload"`
}

func (t *JetStreamTransport) Send(ctx context.Context, env Envelope) error {
	subject, stream := t.Subject(env)

	data, err := json.Marshal(outboundEnvelope{
		MessageID: env.MessageID.String(),
		Name:      env.Name,
		Timestamp: t.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Metadata:  env.Correlation,
		Payload:   env.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	header := nats.Header{}
	header.Set(HeaderMessageType, env.Name)
	header.Set(HeaderMessageID, env.MessageID.String())
	if v := env.Correlation[events.MetaCorrelationID]; v != "" {
		header.Set(HeaderCorrelationID, v)
	}
	if v := env.Correlation[events.MetaCausationID]; v != "" {
		header.Set(HeaderCausationID, v)
	}
	if v := env.Correlation[events.MetaUserID]; v != "" {
		header.Set(HeaderUserID, v)
	}
	telemetry.InjectHeaders(ctx, http.Header(header))

	ack, err := t.js.PublishMsg(ctx, &nats.Msg{Subject: subject, Data: data, Header: header},
		jetstream.WithMsgID(env.MessageID.String()),
		jetstream.WithExpectStream(stream),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Info().
		Str("subject", subject).
		Str("message_id", env.MessageID.String()).
		Uint64("sequence", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Str("stream", ack.Stream).
		Msg("published to JetStream")
	return nil
}
