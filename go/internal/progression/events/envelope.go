package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Metadata keys carried in the correlation context.
const (
	MetaCorrelationID = "correlationId"
	MetaCausationID   = "causationId"
	MetaUserID        = "userId"
)

// Envelope is the wire form of an inbound event on the event stream.
type Envelope struct {
	EventID   uuid.UUID         `json:"eventId"`
	EventType string            `json:"eventType"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Payload   json.RawMessage   `json:"payload"`
}

// Meta is embedded in every typed event.
type Meta struct {
	EventID  uuid.UUID
	Name     string
	Metadata map[string]string
}

func (m Meta) ID() uuid.UUID {
	return m.EventID
}

// Correlation returns the context copied onto every outbound message: the
// inbound correlation id plus the inbound event id as causation.
func (m Meta) Correlation() map[string]string {
	out := map[string]string{MetaCausationID: m.EventID.String()}
	if v := m.Metadata[MetaCorrelationID]; v != "" {
		out[MetaCorrelationID] = v
	}
	if v := m.Metadata[MetaUserID]; v != "" {
		out[MetaUserID] = v
	}
	return out
}
