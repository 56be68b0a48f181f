// Package dispatch sends a plan's messages one at a time, in plan order.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mcdev12/progression/go/internal/progression/plan"
)

// Envelope is one outbound message ready for a transport.
type Envelope struct {
	MessageID   uuid.UUID
	EventID     uuid.UUID
	Index       int
	Kind        plan.Kind
	Name        string
	Target      string
	Payload     json.RawMessage
	Correlation map[string]string
}

// Envelopes converts the plan's messages, in order.
func Envelopes(p plan.Plan) []Envelope {
	out := make([]Envelope, len(p.Messages))
	for i, m := range p.Messages {
		out[i] = Envelope{
			MessageID:   plan.MessageID(p.EventID, i, m),
			EventID:     p.EventID,
			Index:       i,
			Kind:        m.Kind,
			Name:        m.Name,
			Target:      m.Target,
			Payload:     m.Payload,
			Correlation: m.Correlation,
		}
	}
	return out
}

// Transport delivers a single message. Send returns once the message is
// durably accepted or has failed.
type Transport interface {
	Send(ctx context.Context, env Envelope) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, env Envelope) error

func (f TransportFunc) Send(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}
