// Package journal persists one row per reaction so operators can tell a
// deliberate NoAction apart from a failure, and tells other replicas about
// it over LISTEN/NOTIFY.
package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/progression/go/internal/progression/outcome"
)

// NotifyChannel is the Postgres channel journal writes notify on.
const NotifyChannel = "reaction_journal"

// Entry is the record of one reaction.
type Entry struct {
	EventID      uuid.UUID       `json:"event_id"`
	EventType    string          `json:"event_type"`
	Outcome      outcome.Outcome `json:"outcome"`
	Reason       string          `json:"reason,omitempty"`
	Fingerprint  string          `json:"fingerprint,omitempty"`
	MessageNames []string        `json:"message_names"`
	MessagesSent int             `json:"messages_sent"`
	Plan         json.RawMessage `json:"plan,omitempty"`
	Error        string          `json:"error,omitempty"`
	Attempts     int             `json:"attempts,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
}

// Duration is how long the reaction took.
func (e Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}
