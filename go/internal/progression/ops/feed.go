// Package ops serves the operator surface of the orchestrator: a live
// websocket feed of reaction outcomes, health, and a dry-run RPC.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/progression/go/internal/progression/journal"
	"github.com/mcdev12/progression/go/internal/progression/outcome"
)

// FeedConfig holds configuration for feed connections.
type FeedConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// RecentSource supplies the backlog sent to a new connection.
type RecentSource interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Feed fans reaction outcomes out to websocket subscribers. Each
// subscriber may restrict the outcomes it receives.
type Feed struct {
	connections map[*subscriber]bool
	mu          sync.RWMutex

	upgrader    websocket.Upgrader
	config      FeedConfig
	broadcastCh chan journal.Entry

	backlog      RecentSource
	backlogLimit int

	countsMu sync.Mutex
	counts   map[outcome.Outcome]uint64
}

type subscriber struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	outcomes    map[outcome.Outcome]bool
	connectedAt time.Time
	feed        *Feed
}

func (s *subscriber) wants(o outcome.Outcome) bool {
	return len(s.outcomes) == 0 || s.outcomes[o]
}

func NewFeed(config FeedConfig) *Feed {
	return &Feed{
		connections: make(map[*subscriber]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan journal.Entry, 1000),
		counts:      make(map[outcome.Outcome]uint64),
	}
}

// WithBacklog replays the last limit entries to every new subscriber.
func (f *Feed) WithBacklog(src RecentSource, limit int) *Feed {
	f.backlog = src
	f.backlogLimit = limit
	return f
}

// Start delivers broadcasts until ctx is done.
func (f *Feed) Start(ctx context.Context) {
	log.Info().Msg("reaction feed started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reaction feed shutting down")
			f.closeAll()
			return
		case e := <-f.broadcastCh:
			f.deliver(e)
		}
	}
}

// Broadcast queues e for every interested subscriber. It never blocks.
func (f *Feed) Broadcast(e journal.Entry) {
	f.countsMu.Lock()
	f.counts[e.Outcome]++
	f.countsMu.Unlock()

	select {
	case f.broadcastCh <- e:
	default:
		log.Warn().Str("event_id", e.EventID.String()).Msg("feed broadcast channel full, dropping entry")
	}
}

// ParseOutcomes reads a comma separated outcome filter.
func ParseOutcomes(raw string) (map[outcome.Outcome]bool, error) {
	out := map[outcome.Outcome]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		o := outcome.Outcome(part)
		switch o {
		case outcome.Dispatched, outcome.NoAction, outcome.DecisionFailed,
			outcome.EnrichmentUnavailable, outcome.DispatchFailed:
			out[o] = true
		default:
			return nil, fmt.Errorf("unknown outcome %q", part)
		}
	}
	return out, nil
}

// HandleReactions upgrades to a websocket subscribed to reaction outcomes.
// The optional "outcome" query parameter filters by outcome.
func (f *Feed) HandleReactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseOutcomes(r.URL.Query().Get("outcome"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade feed connection")
		return
	}

	s := &subscriber{
		id:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, f.config.SendBuffer),
		outcomes:    filter,
		connectedAt: time.Now(),
		feed:        f,
	}
	f.replay(r.Context(), s)
	f.register(s)

	go s.writePump()
	go s.readPump()

	log.Info().
		Str("connection_id", s.id).
		Int("outcome_filters", len(filter)).
		Msg("feed connection established")
}

// replay queues the backlog oldest first.
func (f *Feed) replay(ctx context.Context, s *subscriber) {
	if f.backlog == nil || f.backlogLimit <= 0 {
		return
	}
	entries, err := f.backlog.Recent(ctx, f.backlogLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load feed backlog")
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if !s.wants(entries[i].Outcome) {
			continue
		}
		data, err := json.Marshal(entries[i])
		if err != nil {
			continue
		}
		select {
		case s.send <- data:
		default:
			return
		}
	}
}

func (f *Feed) register(s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connections[s] = true
}

func (f *Feed) unregister(s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.connections[s]; ok {
		delete(f.connections, s)
		close(s.send)
		log.Info().Str("connection_id", s.id).Msg("feed connection unregistered")
	}
}

func (f *Feed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.connections {
		delete(f.connections, s)
		close(s.send)
	}
}

// deliver sends under the read lock so unregister cannot close a channel
// mid-send. Slow subscribers are dropped afterwards.
func (f *Feed) deliver(e journal.Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal entry for feed")
		return
	}

	var slow []*subscriber
	f.mu.RLock()
	for s := range f.connections {
		if !s.wants(e.Outcome) {
			continue
		}
		select {
		case s.send <- data:
		default:
			slow = append(slow, s)
		}
	}
	f.mu.RUnlock()

	for _, s := range slow {
		log.Warn().Str("connection_id", s.id).Msg("feed send buffer full, closing connection")
		f.unregister(s)
		s.conn.Close()
	}
}

// Stats is the snapshot served on /ws/stats.
type Stats struct {
	Connections int                        `json:"total_connections"`
	Outcomes    map[outcome.Outcome]uint64 `json:"outcomes"`
}

func (f *Feed) Stats() Stats {
	f.mu.RLock()
	n := len(f.connections)
	f.mu.RUnlock()

	f.countsMu.Lock()
	defer f.countsMu.Unlock()
	counts := make(map[outcome.Outcome]uint64, len(f.counts))
	for k, v := range f.counts {
		counts[k] = v
	}
	return Stats{Connections: n, Outcomes: counts}
}

func (f *Feed) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(f.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write feed stats")
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(s.feed.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.feed.config.WriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", s.id).Msg("failed to write feed message")
				s.feed.unregister(s)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.feed.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.feed.unregister(s)
				return
			}
		}
	}
}

// readPump only keeps the connection alive; subscribers send nothing.
func (s *subscriber) readPump() {
	defer func() {
		s.feed.unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(s.feed.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.feed.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.feed.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", s.id).Msg("unexpected feed close error")
			}
			return
		}
	}
}
