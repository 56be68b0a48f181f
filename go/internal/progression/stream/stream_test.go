package stream

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	jetstream.Stream
	info *jetstream.StreamInfo
}

func (s fakeStream) Info(ctx context.Context, opts ...jetstream.StreamInfoOpt) (*jetstream.StreamInfo, error) {
	return s.info, nil
}

type fakeManager struct {
	existing *jetstream.StreamConfig
	created  []jetstream.StreamConfig
	updated  []jetstream.StreamConfig
}

func (m *fakeManager) Stream(ctx context.Context, name string) (jetstream.Stream, error) {
	if m.existing == nil {
		return nil, jetstream.ErrStreamNotFound
	}
	return fakeStream{info: &jetstream.StreamInfo{Config: *m.existing}}, nil
}

func (m *fakeManager) CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.created = append(m.created, cfg)
	return fakeStream{}, nil
}

func (m *fakeManager) UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	m.updated = append(m.updated, cfg)
	return fakeStream{}, nil
}

func commandsStream() Config {
	return Config{
		Name:            "PROGRESSION_COMMANDS",
		SubjectPrefix:   "progression.commands",
		MaxAge:          24 * time.Hour,
		MaxMsgs:         -1,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
	}
}

func TestEnsure_CreatesMissingStream(t *testing.T) {
	m := &fakeManager{}
	require.NoError(t, Ensure(context.Background(), m, commandsStream()))

	require.Len(t, m.created, 1)
	assert.Equal(t, []string{"progression.commands.>"}, m.created[0].Subjects)
	assert.Equal(t, 2*time.Hour, m.created[0].Duplicates)
	assert.Empty(t, m.updated)
}

func TestEnsure_LeavesMatchingStreamAlone(t *testing.T) {
	sc := commandsStream().streamConfig()
	m := &fakeManager{existing: &sc}
	require.NoError(t, Ensure(context.Background(), m, commandsStream()))
	assert.Empty(t, m.created)
	assert.Empty(t, m.updated)
}

func TestEnsure_UpdatesDriftedStream(t *testing.T) {
	sc := commandsStream().streamConfig()
	sc.Duplicates = time.Minute
	m := &fakeManager{existing: &sc}
	require.NoError(t, Ensure(context.Background(), m, commandsStream()))
	require.Len(t, m.updated, 1)
	assert.Equal(t, 2*time.Hour, m.updated[0].Duplicates)
}
