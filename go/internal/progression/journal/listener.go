package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL          string
	NotifyChannel        string
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
	PingInterval         time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:        NotifyChannel,
		MinReconnectInterval: 10 * time.Second,
		MaxReconnectInterval: time.Minute,
		PingInterval:         90 * time.Second,
	}
}

// Broadcaster receives every journal entry written by any replica.
type Broadcaster interface {
	Broadcast(e Entry)
}

type entrySource interface {
	Latest(ctx context.Context, eventID uuid.UUID) (Entry, error)
}

// Listener turns journal notifications back into entries for the ops feed.
type Listener struct {
	listener    *pq.Listener
	source      entrySource
	broadcaster Broadcaster
	cfg         ListenerConfig
}

func NewListener(source entrySource, broadcaster Broadcaster, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnectInterval,
		cfg.MaxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("journal listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for journal notifications")

	return &Listener{
		listener:    l,
		source:      source,
		broadcaster: broadcaster,
		cfg:         cfg,
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("journal listener shutting down")
			return l.listener.Close()
		case note := <-l.listener.Notify:
			if note == nil {
				// connection was re-established; notifications in between are lost
				continue
			}
			if err := handleNotification(ctx, l.source, l.broadcaster, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle journal notification")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping journal listener")
			}
		}
	}
}

// handleNotification loads the entry named by the notification payload and
// broadcasts it.
func handleNotification(ctx context.Context, source entrySource, b Broadcaster, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}
	e, err := source.Latest(ctx, id)
	if err != nil {
		return err
	}
	b.Broadcast(e)
	return nil
}
