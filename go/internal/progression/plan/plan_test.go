package plan

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventID = uuid.MustParse("5d1c7f3a-8e2b-4c6d-9f0a-1b2c3d4e5f60")

func command(payload string) Message {
	return Message{
		Kind:    Command,
		Name:    "progression.command.disassociate-defence-organisation-for-application",
		Target:  TargetProgression,
		Payload: json.RawMessage(payload),
	}
}

func TestMessageID(t *testing.T) {
	a1 := command(`{"applicationId":"a1","defendantId":"d1"}`)

	t.Run("stable across redelivery", func(t *testing.T) {
		assert.Equal(t, MessageID(eventID, 1, a1), MessageID(eventID, 1, a1))
	})

	t.Run("ignores payload formatting", func(t *testing.T) {
		reordered := command(`{ "defendantId": "d1", "applicationId": "a1" }`)
		assert.Equal(t, MessageID(eventID, 1, a1), MessageID(eventID, 1, reordered))
	})

	t.Run("changes with payload", func(t *testing.T) {
		a2 := command(`{"applicationId":"a2","defendantId":"d1"}`)
		assert.NotEqual(t, MessageID(eventID, 1, a1), MessageID(eventID, 1, a2))
	})

	t.Run("changes with position and event", func(t *testing.T) {
		assert.NotEqual(t, MessageID(eventID, 1, a1), MessageID(eventID, 2, a1))
		assert.NotEqual(t, MessageID(eventID, 1, a1), MessageID(uuid.New(), 1, a1))
	})
}

func TestBuilder(t *testing.T) {
	p, err := NewBuilder(eventID, "public.hearing.resulted", map[string]string{"correlationId": "c1"}).
		Command("progression.command.record-hearing-results", TargetProgression, map[string]string{"hearingId": "h1"}).
		Public("public.progression.hearing-resulted", map[string]string{"hearingId": "h1"}).
		Build("")
	require.NoError(t, err)

	assert.Equal(t, []string{"progression.command.record-hearing-results", "public.progression.hearing-resulted"}, p.Names())
	assert.Equal(t, TargetPublic, p.Messages[1].Target)
	assert.Equal(t, "c1", p.Messages[0].Correlation["correlationId"])

	f1, err := p.Fingerprint()
	require.NoError(t, err)
	f2, err := p.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestBuilder_EmptyIsSuppressed(t *testing.T) {
	p, err := NewBuilder(eventID, "public.hearing.resulted", nil).Build("nothing to do")
	require.NoError(t, err)
	assert.True(t, p.Suppressed)
	assert.Equal(t, "nothing to do", p.Reason)
	assert.True(t, p.Empty())
}

func TestBuilder_UnmarshalablePayload(t *testing.T) {
	_, err := NewBuilder(eventID, "x", nil).Command("bad", TargetProgression, make(chan int)).Build("")
	require.Error(t, err)
}
