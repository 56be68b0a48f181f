package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/telemetry"
)

// Reacter handles one decoded envelope.
type Reacter interface {
	React(ctx context.Context, env events.Envelope) Result
}

// StreamSource is the part of jetstream.JetStream the consumer needs.
type StreamSource interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
}

type ConsumerConfig struct {
	Stream          string
	Durable         string
	FilterSubject   string
	Workers         int
	BufferSize      int
	MaxDeliver      int
	AckWait         time.Duration
	MaxAckPending   int
	RedeliveryDelay time.Duration
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Stream:          "PROGRESSION_EVENTS",
		Durable:         "progression-orchestrator",
		FilterSubject:   "progression.events.>",
		Workers:         8,
		BufferSize:      100,
		MaxDeliver:      5,
		AckWait:         30 * time.Second,
		MaxAckPending:   256,
		RedeliveryDelay: 2 * time.Second,
	}
}

// Consumer reads inbound events from a durable JetStream consumer and runs
// each through the reactor on a fixed pool of workers.
type Consumer struct {
	js         StreamSource
	reactor    Reacter
	cfg        ConsumerConfig
	instanceID string
	consumer   jetstream.Consumer
	running    atomic.Bool
}

func NewConsumer(js StreamSource, reactor Reacter, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize < cfg.Workers {
		cfg.BufferSize = cfg.Workers * 2
	}
	return &Consumer{
		js:         js,
		reactor:    reactor,
		cfg:        cfg,
		instanceID: uuid.New().String()[:8],
	}
}

// Running reports whether messages are being consumed.
func (c *Consumer) Running() bool {
	return c.running.Load()
}

// ensureConsumer creates or gets the durable consumer.
func (c *Consumer) ensureConsumer(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.cfg.Stream)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.Consumer(ctx, c.cfg.Durable)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
			Name:          c.cfg.Durable,
			Durable:       c.cfg.Durable,
			Description:   "Progression orchestrator inbound event consumer",
			FilterSubject: c.cfg.FilterSubject,
			DeliverPolicy: jetstream.DeliverAllPolicy,
			AckPolicy:     jetstream.AckExplicitPolicy,
			MaxDeliver:    c.cfg.MaxDeliver,
			AckWait:       c.cfg.AckWait,
			MaxAckPending: c.cfg.MaxAckPending,
			ReplayPolicy:  jetstream.ReplayInstantPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().Str("consumer", c.cfg.Durable).Msg("created JetStream consumer")
	} else {
		log.Info().Str("consumer", c.cfg.Durable).Msg("using existing JetStream consumer")
	}

	c.consumer = consumer
	return nil
}

// Run consumes until ctx is cancelled. Reactions already running finish
// before Run returns; buffered messages that never started are nak'd.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureConsumer(ctx); err != nil {
		return err
	}

	eventCh := make(chan jetstream.Msg, c.cfg.BufferSize)
	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case eventCh <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start JetStream consumer: %w", err)
	}
	c.running.Store(true)

	log.Info().
		Str("instance", c.instanceID).
		Int("workers", c.cfg.Workers).
		Str("stream", c.cfg.Stream).
		Msg("orchestrator consuming inbound events")

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go c.worker(ctx, &wg, i, eventCh)
	}

	<-ctx.Done()
	log.Info().Str("instance", c.instanceID).Msg("orchestrator shutdown requested")
	consumeCtx.Stop()
	c.running.Store(false)
	wg.Wait()

	for {
		select {
		case msg := <-eventCh:
			_ = msg.Nak()
		default:
			log.Info().Str("instance", c.instanceID).Msg("all workers shut down")
			return nil
		}
	}
}

func (c *Consumer) worker(ctx context.Context, wg *sync.WaitGroup, id int, eventCh <-chan jetstream.Msg) {
	defer wg.Done()

	log.Debug().Int("worker_id", id).Str("instance", c.instanceID).Msg("worker started")
	// in-flight reactions outlive shutdown; sends and fetches carry their own timeouts
	reactCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Debug().Int("worker_id", id).Str("instance", c.instanceID).Msg("worker stopping")
			return
		case msg := <-eventCh:
			c.handle(reactCtx, msg)
		}
	}
}

// handle reacts to one message and settles it by outcome.
func (c *Consumer) handle(ctx context.Context, msg jetstream.Msg) {
	var env events.Envelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		log.Error().
			Err(err).
			Str("subject", msg.Subject()).
			Str("outcome", string(outcome.DecisionFailed)).
			Msg("Dropping undecodable envelope")
		settle(msg, outcome.DecisionFailed, c.cfg.RedeliveryDelay)
		return
	}

	if !events.Known(env.EventType) {
		log.Debug().
			Str("event_type", env.EventType).
			Str("subject", msg.Subject()).
			Msg("Acking event nobody reacts to")
		settle(msg, outcome.NoAction, c.cfg.RedeliveryDelay)
		return
	}

	ctx = telemetry.ExtractHeaders(ctx, http.Header(msg.Headers()))
	res := c.reactor.React(ctx, env)
	settle(msg, res.Outcome, c.cfg.RedeliveryDelay)
}

// settle acks finished reactions, naks retryable failures and terminates
// everything redelivery cannot fix.
func settle(msg jetstream.Msg, o outcome.Outcome, delay time.Duration) {
	var err error
	action := "ack"
	switch {
	case o == outcome.Dispatched || o == outcome.NoAction:
		err = msg.Ack()
	case o.Retryable():
		action = "nak"
		err = msg.NakWithDelay(delay)
		if meta, merr := msg.Metadata(); merr == nil {
			log.Debug().
				Uint64("delivered", meta.NumDelivered).
				Str("outcome", string(o)).
				Msg("event scheduled for redelivery")
		}
	default:
		action = "term"
		err = msg.Term()
	}
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to settle message")
	}
}
