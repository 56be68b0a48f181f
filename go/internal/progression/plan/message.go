package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// Kind distinguishes commands addressed to another context from public
// integration events.
type Kind string

const (
	Command     Kind = "COMMAND"
	PublicEvent Kind = "PUBLIC_EVENT"
)

// Destination contexts used by the rules.
const (
	TargetProgression        = "progression"
	TargetHearing            = "hearing"
	TargetListing            = "listing"
	TargetSystemDocGenerator = "systemdocgenerator"
	TargetNotification       = "notification"
	TargetPublic             = "public"
)

// Message is one outbound message of a plan.
type Message struct {
	Kind        Kind              `json:"kind"`
	Name        string            `json:"name"`
	Target      string            `json:"target"`
	Payload     json.RawMessage   `json:"payload"`
	Correlation map[string]string `json:"correlation,omitempty"`
}

// MessageID derives the transport message id for the message at index i of
// the plan produced for eventID. Redelivered events that decide the same
// message get the same id; a changed payload gets a new one.
func MessageID(eventID uuid.UUID, index int, m Message) uuid.UUID {
	body := []byte(m.Payload)
	if canonical, err := jcs.Transform(body); err == nil {
		body = canonical
	}
	sum := sha256.Sum256(body)
	return uuid.NewSHA1(eventID, []byte(strconv.Itoa(index)+":"+m.Name+":"+hex.EncodeToString(sum[:])))
}
