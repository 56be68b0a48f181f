// Package orchestrator turns one inbound event into one reaction: decode,
// route to the rule for its kind, resolve what the rule needs, decide, and
// dispatch the plan in order.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcdev12/progression/go/internal/progression/dispatch"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/events"
	"github.com/mcdev12/progression/go/internal/progression/journal"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/progression/plan"
	"github.com/mcdev12/progression/go/internal/progression/rules"
	"github.com/mcdev12/progression/go/internal/progression/telemetry"
)

const recordTimeout = 5 * time.Second

// Recorder persists reaction results.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Result is what one reaction did.
type Result struct {
	EventID   uuid.UUID
	EventType string
	Outcome   outcome.Outcome
	Plan      plan.Plan
	Sent      int
	Err       error
	// Ignored is set for event types no rule reacts to.
	Ignored bool
}

func (r Result) hasPlan() bool {
	return r.Plan.Suppressed || len(r.Plan.Messages) > 0
}

// Entry converts the result into its journal record.
func (r Result) Entry(started, finished time.Time) journal.Entry {
	e := journal.Entry{
		EventID:      r.EventID,
		EventType:    r.EventType,
		Outcome:      r.Outcome,
		MessageNames: []string{},
		MessagesSent: r.Sent,
		StartedAt:    started,
		FinishedAt:   finished,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	if r.hasPlan() {
		e.Reason = r.Plan.Reason
		e.MessageNames = r.Plan.Names()
		if fp, err := r.Plan.Fingerprint(); err == nil {
			e.Fingerprint = fp
		}
		if raw, err := json.Marshal(r.Plan); err == nil {
			e.Plan = raw
		}
	}
	return e
}

type Reactor struct {
	rules     rules.Set
	resolver  *enrichment.Resolver
	sequencer *dispatch.Sequencer
	recorder  Recorder
	feed      journal.Broadcaster
	metrics   telemetry.MetricsCollector
	clock     clockwork.Clock

	lastReaction atomic.Int64
}

type Option func(*Reactor)

// WithRecorder journals every reaction.
func WithRecorder(rec Recorder) Option {
	return func(r *Reactor) { r.recorder = rec }
}

// WithFeed broadcasts every reaction locally. Leave unset when the journal
// listener already rebroadcasts.
func WithFeed(b journal.Broadcaster) Option {
	return func(r *Reactor) { r.feed = b }
}

func WithMetrics(m telemetry.MetricsCollector) Option {
	return func(r *Reactor) { r.metrics = m }
}

func WithClock(c clockwork.Clock) Option {
	return func(r *Reactor) { r.clock = c }
}

func NewReactor(set rules.Set, resolver *enrichment.Resolver, sequencer *dispatch.Sequencer, opts ...Option) *Reactor {
	r := &Reactor{
		rules:     set,
		resolver:  resolver,
		sequencer: sequencer,
		metrics:   telemetry.NoOpMetricsCollector{},
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LastReaction returns when the last reaction finished, or the zero time.
func (r *Reactor) LastReaction() time.Time {
	n := r.lastReaction.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// React runs the full reaction for env. Nothing is dispatched unless
// enrichment and decision both succeeded.
func (r *Reactor) React(ctx context.Context, env events.Envelope) Result {
	started := r.clock.Now()
	ctx, span := telemetry.StartSpan(ctx, "reaction "+env.EventType,
		attribute.String("event_id", env.EventID.String()),
		attribute.String("event_type", env.EventType),
	)
	defer span.End()

	res := r.decide(ctx, env)
	if res.Ignored {
		span.SetAttributes(attribute.Bool("ignored", true))
		log.Debug().
			Str("event_id", env.EventID.String()).
			Str("event_type", env.EventType).
			Msg("Ignoring event nobody reacts to")
		return res
	}
	if res.Err == nil && !res.Plan.Suppressed {
		sent, err := r.sequencer.Dispatch(ctx, res.Plan)
		res.Sent = sent
		res.Err = err
		res.Outcome = outcome.Classify(err)
	}

	r.finish(ctx, span, res, started)
	return res
}

// Evaluate decides without dispatching. A non-suppressed plan reports the
// Dispatched outcome it would have if every send succeeded.
func (r *Reactor) Evaluate(ctx context.Context, env events.Envelope) Result {
	ctx, span := telemetry.StartSpan(ctx, "evaluate "+env.EventType,
		attribute.String("event_id", env.EventID.String()),
	)
	defer span.End()

	res := r.decide(ctx, env)
	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	telemetry.RecordError(span, res.Err)
	return res
}

func (r *Reactor) decide(ctx context.Context, env events.Envelope) Result {
	res := Result{EventID: env.EventID, EventType: env.EventType}
	fail := func(err error) Result {
		res.Err = err
		res.Outcome = outcome.Classify(err)
		return res
	}

	ev, err := events.Decode(env)
	if errors.Is(err, events.ErrUnknownEvent) {
		res.Ignored = true
		res.Outcome = outcome.NoAction
		res.Plan = plan.NewBuilder(env.EventID, env.EventType, nil).NoAction("no rule reacts to " + env.EventType)
		return res
	}
	if err != nil {
		return fail(err)
	}
	b, err := route(r.rules, ev)
	if err != nil {
		return fail(err)
	}
	ec, err := r.resolver.Resolve(ctx, b.spec)
	if err != nil {
		return fail(err)
	}
	p, err := b.decide(ec)
	if err != nil {
		return fail(err)
	}

	res.Plan = p
	if p.Suppressed {
		res.Outcome = outcome.NoAction
	} else {
		res.Outcome = outcome.Dispatched
	}
	return res
}

func (r *Reactor) finish(ctx context.Context, span trace.Span, res Result, started time.Time) {
	finished := r.clock.Now()
	r.lastReaction.Store(finished.UnixNano())
	duration := finished.Sub(started)

	span.SetAttributes(
		attribute.String("outcome", string(res.Outcome)),
		attribute.Int("message_count", len(res.Plan.Messages)),
		attribute.Int("messages_sent", res.Sent),
	)
	telemetry.RecordError(span, res.Err)
	logResult(res, duration)
	r.metrics.RecordReaction(ctx, res.EventType, string(res.Outcome), duration)

	entry := res.Entry(started, finished)
	if r.recorder != nil {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		if err := r.recorder.Record(rctx, entry); err != nil {
			log.Error().
				Err(err).
				Str("event_id", res.EventID.String()).
				Msg("Failed to journal reaction")
		}
		cancel()
	}
	if r.feed != nil {
		r.feed.Broadcast(entry)
	}
}

func logResult(res Result, duration time.Duration) {
	switch {
	case res.Outcome == outcome.NoAction:
		log.Info().
			Str("event_id", res.EventID.String()).
			Str("event_type", res.EventType).
			Str("outcome", string(res.Outcome)).
			Str("reason", res.Plan.Reason).
			Dur("duration", duration).
			Msg("No action taken")
	case res.Outcome.IsFailure():
		log.Error().
			Err(res.Err).
			Str("event_id", res.EventID.String()).
			Str("event_type", res.EventType).
			Str("outcome", string(res.Outcome)).
			Int("message_count", len(res.Plan.Messages)).
			Int("messages_sent", res.Sent).
			Dur("duration", duration).
			Msg("Reaction failed")
	default:
		log.Info().
			Str("event_id", res.EventID.String()).
			Str("event_type", res.EventType).
			Str("outcome", string(res.Outcome)).
			Int("message_count", res.Sent).
			Dur("duration", duration).
			Msg("Reaction dispatched")
	}
}
