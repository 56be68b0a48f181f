package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	NATSConnected     bool      `json:"nats_connected"`
	DatabaseConnected bool      `json:"database_connected"`
	ConsumerRunning   bool      `json:"consumer_running"`
	LastReaction      time.Time `json:"last_reaction_time"`
	Idle              bool      `json:"idle"`
	RecentFailures    int       `json:"recent_failures"`
	Errors            []string  `json:"errors"`
}

type natsConn interface {
	IsConnected() bool
}

type pinger interface {
	PingContext(ctx context.Context) error
}

type failureCounter interface {
	PendingFailures(ctx context.Context, since time.Time) (int, error)
}

type consumerState interface {
	Running() bool
}

type reactionClock interface {
	LastReaction() time.Time
}

type HealthConfig struct {
	StaleAfter    time.Duration
	FailureWindow time.Duration
}

// HealthChecker reports whether the orchestrator can react. Database checks
// are skipped when the journal is disabled.
type HealthChecker struct {
	nats      natsConn
	db        pinger
	failures  failureCounter
	consumer  consumerState
	reactions reactionClock
	clock     clockwork.Clock
	cfg       HealthConfig
}

func NewHealthChecker(nc natsConn, consumer consumerState, reactions reactionClock, cfg HealthConfig) *HealthChecker {
	return &HealthChecker{
		nats:      nc,
		consumer:  consumer,
		reactions: reactions,
		clock:     clockwork.NewRealClock(),
		cfg:       cfg,
	}
}

// WithJournal adds the database ping and the failure count.
func (h *HealthChecker) WithJournal(db pinger, failures failureCounter) *HealthChecker {
	h.db = db
	h.failures = failures
	return h
}

func (h *HealthChecker) WithClock(c clockwork.Clock) *HealthChecker {
	h.clock = c
	return h
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if h.nats != nil {
		status.NATSConnected = h.nats.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		} else {
			status.DatabaseConnected = true
		}
	}

	if h.consumer != nil {
		status.ConsumerRunning = h.consumer.Running()
		if !status.ConsumerRunning {
			status.Healthy = false
			status.Errors = append(status.Errors, "consumer not running")
		}
	}

	if h.reactions != nil {
		status.LastReaction = h.reactions.LastReaction()
		// quiet periods are normal; idle is reported, not failed
		status.Idle = status.LastReaction.IsZero() || h.clock.Since(status.LastReaction) > h.cfg.StaleAfter
	}

	if status.DatabaseConnected && h.failures != nil {
		n, err := h.failures.PendingFailures(ctx, h.clock.Now().Add(-h.cfg.FailureWindow))
		if err != nil {
			status.Errors = append(status.Errors, fmt.Sprintf("failed to count failed reactions: %v", err))
		} else {
			status.RecentFailures = n
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}
