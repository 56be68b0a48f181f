package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/mcdev12/progression/go/internal/progression/outcome"
)

// Plan is the ordered list of messages a reaction decided to emit.
// A suppressed plan carries no messages and a reason.
type Plan struct {
	EventID    uuid.UUID `json:"eventId"`
	EventType  string    `json:"eventType"`
	Messages   []Message `json:"messages"`
	Suppressed bool      `json:"suppressed"`
	Reason     string    `json:"reason,omitempty"`
}

// Empty reports whether there is nothing to dispatch.
func (p Plan) Empty() bool {
	return len(p.Messages) == 0
}

// Names returns the message names in plan order.
func (p Plan) Names() []string {
	names := make([]string, len(p.Messages))
	for i, m := range p.Messages {
		names[i] = m.Name
	}
	return names
}

// Fingerprint hashes the canonical JSON form of the plan. Two plans with
// the same messages in the same order share a fingerprint.
func (p Plan) Fingerprint() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal plan: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize plan: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Builder accumulates messages for one reaction. The first payload that
// fails to marshal poisons the builder and Build returns a DecisionError.
type Builder struct {
	eventID     uuid.UUID
	eventType   string
	correlation map[string]string
	messages    []Message
	err         error
}

// NewBuilder starts a plan for the given event.
func NewBuilder(eventID uuid.UUID, eventType string, correlation map[string]string) *Builder {
	return &Builder{
		eventID:     eventID,
		eventType:   eventType,
		correlation: correlation,
	}
}

// Command appends a command addressed to target.
func (b *Builder) Command(name, target string, payload any) *Builder {
	return b.add(Command, name, target, payload)
}

// Public appends a public integration event.
func (b *Builder) Public(name string, payload any) *Builder {
	return b.add(PublicEvent, name, TargetPublic, payload)
}

func (b *Builder) add(kind Kind, name, target string, payload any) *Builder {
	if b.err != nil {
		return b
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		b.err = fmt.Errorf("marshal %s payload: %w", name, err)
		return b
	}
	b.messages = append(b.messages, Message{
		Kind:        kind,
		Name:        name,
		Target:      target,
		Payload:     raw,
		Correlation: maps.Clone(b.correlation),
	})
	return b
}

// Len returns the number of messages added so far.
func (b *Builder) Len() int {
	return len(b.messages)
}

// Build finalizes the plan. An empty builder yields a suppressed plan with
// the given fallback reason.
func (b *Builder) Build(emptyReason string) (Plan, error) {
	if b.err != nil {
		return Plan{}, &outcome.DecisionError{Reason: "build plan", Err: b.err}
	}
	if len(b.messages) == 0 {
		return b.NoAction(emptyReason), nil
	}
	return Plan{
		EventID:   b.eventID,
		EventType: b.eventType,
		Messages:  b.messages,
	}, nil
}

// NoAction returns a suppressed plan. Messages added so far are discarded.
func (b *Builder) NoAction(reason string) Plan {
	return Plan{
		EventID:    b.eventID,
		EventType:  b.eventType,
		Messages:   []Message{},
		Suppressed: true,
		Reason:     reason,
	}
}

// ErrEmptyPlan is returned when a caller tries to dispatch a suppressed plan.
var ErrEmptyPlan = errors.New("plan has no messages")
