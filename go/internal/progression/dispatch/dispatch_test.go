package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/plan"
)

var eventID = uuid.MustParse("8d6f5f6e-54a4-4b8b-9a8e-6f8c2f8b9c01")

func threeMessagePlan(t *testing.T) plan.Plan {
	t.Helper()
	b := plan.NewBuilder(eventID, "public.hearing.resulted", map[string]string{
		events.MetaCausationID:   eventID.String(),
		events.MetaCorrelationID: "corr-1",
	})
	b.Command("progression.command.a", plan.TargetProgression, map[string]int{"n": 0})
	b.Command("hearing.command.b", plan.TargetHearing, map[string]int{"n": 1})
	b.Public("public.progression.c", map[string]int{"n": 2})
	p, err := b.Build("")
	require.NoError(t, err)
	return p
}

type recordingTransport struct {
	mu     sync.Mutex
	sent   []string
	failAt int
	calls  int
}

func (r *recordingTransport) Send(ctx context.Context, env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if env.Index == r.failAt {
		return errors.New("broker unavailable")
	}
	r.sent = append(r.sent, env.Name)
	return nil
}

func TestSequencer_SendsInOrder(t *testing.T) {
	tr := &recordingTransport{failAt: -1}
	n, err := NewSequencer(tr, time.Second).Dispatch(context.Background(), threeMessagePlan(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"progression.command.a", "hearing.command.b", "public.progression.c"}, tr.sent)
}

func TestSequencer_StopsAtFirstFailureWithoutRetry(t *testing.T) {
	tr := &recordingTransport{failAt: 1}
	n, err := NewSequencer(tr, time.Second).Dispatch(context.Background(), threeMessagePlan(t))
	require.Error(t, err)

	var derr *outcome.DispatchError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, 1, derr.Index)
	assert.Equal(t, "hearing.command.b", derr.Message)
	assert.Equal(t, outcome.DispatchFailed, outcome.Classify(err))

	assert.Equal(t, 1, n)
	assert.Equal(t, 2, tr.calls, "failed message is attempted once and later messages never")
	assert.Equal(t, []string{"progression.command.a"}, tr.sent)
}

func TestSequencer_SendTimeout(t *testing.T) {
	blocking := TransportFunc(func(ctx context.Context, env Envelope) error {
		<-ctx.Done()
		return ctx.Err()
	})
	_, err := NewSequencer(blocking, 10*time.Millisecond).Dispatch(context.Background(), threeMessagePlan(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, outcome.DispatchFailed, outcome.Classify(err))
}

func TestSequencer_SuppressedPlan(t *testing.T) {
	tr := &recordingTransport{failAt: -1}
	p := plan.NewBuilder(eventID, "x", nil).NoAction("nothing")
	_, err := NewSequencer(tr, time.Second).Dispatch(context.Background(), p)
	assert.ErrorIs(t, err, plan.ErrEmptyPlan)
	assert.Zero(t, tr.calls)
}

func TestEnvelopes_StableMessageIDs(t *testing.T) {
	p := threeMessagePlan(t)
	first := Envelopes(p)
	second := Envelopes(p)
	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].MessageID, second[i].MessageID)
		assert.Equal(t, i, first[i].Index)
	}
	assert.NotEqual(t, first[0].MessageID, first[1].MessageID)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(msg.Subject, msg.Header.Get(HeaderMessageID))
	ack, _ := args.Get(0).(*jetstream.PubAck)
	return ack, args.Error(1)
}

func TestJetStreamTransport(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	pub := &mockPublisher{}
	tr := NewJetStreamTransport(pub, JetStreamConfig{
		CommandSubjectPrefix: "progression.commands",
		CommandStream:        "PROGRESSION_COMMANDS",
		PublicSubjectPrefix:  "progression.public",
		PublicStream:         "PROGRESSION_PUBLIC",
	}, clock)

	envs := Envelopes(threeMessagePlan(t))
	pub.On("PublishMsg", "progression.commands.hearing.hearing.command.b", envs[1].MessageID.String()).
		Return(&jetstream.PubAck{Stream: "PROGRESSION_COMMANDS", Sequence: 7}, nil).Once()
	pub.On("PublishMsg", "progression.public.public.progression.c", envs[2].MessageID.String()).
		Return(nil, errors.New("nats: timeout")).Once()

	require.NoError(t, tr.Send(context.Background(), envs[1]))
	err := tr.Send(context.Background(), envs[2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to JetStream")
	pub.AssertExpectations(t)

	subject, stream := tr.Subject(envs[0])
	assert.Equal(t, "progression.commands.progression.progression.command.a", subject)
	assert.Equal(t, "PROGRESSION_COMMANDS", stream)
}

func TestJetStreamTransport_EnvelopeAndHeaders(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	var got *nats.Msg
	pub := publisherFunc(func(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
		got = msg
		return &jetstream.PubAck{}, nil
	})
	tr := NewJetStreamTransport(pub, JetStreamConfig{CommandSubjectPrefix: "cmd", PublicSubjectPrefix: "pub"}, clock)

	env := Envelopes(threeMessagePlan(t))[0]
	require.NoError(t, tr.Send(context.Background(), env))
	require.NotNil(t, got)

	assert.Equal(t, "progression.command.a", got.Header.Get(HeaderMessageType))
	assert.Equal(t, "corr-1", got.Header.Get(HeaderCorrelationID))
	assert.Equal(t, eventID.String(), got.Header.Get(HeaderCausationID))

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.Data, &body))
	assert.Equal(t, "2026-03-01T10:00:00.000Z", body["timestamp"])
	assert.Equal(t, map[string]any{"n": float64(0)}, body["payload"])
}

type publisherFunc func(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)

func (f publisherFunc) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	return f(ctx, msg, opts...)
}

type countingMetrics struct {
	ok, failed int
}

func (m *countingMetrics) RecordReaction(context.Context, string, string, time.Duration) {}
func (m *countingMetrics) RecordMessageSent(_ context.Context, _, _ string, success bool, _ time.Duration) {
	if success {
		m.ok++
	} else {
		m.failed++
	}
}

func TestMetricTransport(t *testing.T) {
	m := &countingMetrics{}
	tr := NewMetricTransport(&recordingTransport{failAt: 2}, m, clockwork.NewFakeClock())

	_, err := NewSequencer(tr, time.Second).Dispatch(context.Background(), threeMessagePlan(t))
	require.Error(t, err)
	assert.Equal(t, 2, m.ok)
	assert.Equal(t, 1, m.failed)
}

func TestLogTransport(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	n, err := NewSequencer(LogTransport{}, time.Second).Dispatch(context.Background(), threeMessagePlan(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, bytes.Count(line, []byte(`"message":`)), string(line))
	}
	assert.Contains(t, buf.String(), `"message_name":"progression.command.a"`)
}
