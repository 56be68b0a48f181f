package journal

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/progression/go/internal/progression/outcome"
	"github.com/mcdev12/progression/go/internal/sqlutil"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned by Latest when the event has no journal row.
var ErrNotFound = errors.New("journal entry not found")

var failureOutcomes = []string{
	string(outcome.DecisionFailed),
	string(outcome.EnrichmentUnavailable),
	string(outcome.DispatchFailed),
}

type Repository struct {
	db      *sql.DB
	queries *Queries
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:      db,
		queries: New(db),
	}
}

// Migrate creates the journal table and indexes if they are missing.
func (r *Repository) Migrate(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read journal schema: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply journal schema: %w", err)
	}
	return nil
}

// Record writes the entry and notifies listeners in one transaction.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	params := UpsertEntryParams{
		EventID:      e.EventID,
		EventType:    e.EventType,
		Outcome:      string(e.Outcome),
		Reason:       e.Reason,
		Fingerprint:  e.Fingerprint,
		MessageNames: e.MessageNames,
		MessagesSent: int32(e.MessagesSent),
		Plan:         pqtype.NullRawMessage{RawMessage: e.Plan, Valid: len(e.Plan) > 0},
		Error:        sqlutil.ToSqlString(nonEmpty(e.Error)),
		StartedAt:    e.StartedAt,
		FinishedAt:   e.FinishedAt,
	}
	if params.MessageNames == nil {
		params.MessageNames = []string{}
	}

	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *Queries { return r.queries.WithTx(tx) }, func(q *Queries) error {
		attempts, err := q.UpsertEntry(ctx, params)
		if err != nil {
			return fmt.Errorf("upsert journal entry: %w", err)
		}
		if attempts > 1 {
			log.Debug().
				Str("event_id", e.EventID.String()).
				Int32("attempts", attempts).
				Msg("journal entry updated for redelivered event")
		}
		if err := q.NotifyEntry(ctx, NotifyChannel, e.EventID); err != nil {
			return fmt.Errorf("notify journal entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record reaction %s: %w", e.EventID, err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.queries.ListRecent(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent reactions: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, fromRow(row))
	}
	return entries, nil
}

// Latest returns the most recent entry for an event.
func (r *Repository) Latest(ctx context.Context, eventID uuid.UUID) (Entry, error) {
	row, err := r.queries.LatestForEvent(ctx, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to fetch reaction %s: %w", eventID, err)
	}
	return fromRow(row), nil
}

// PendingFailures counts failed reactions finished at or after since.
func (r *Repository) PendingFailures(ctx context.Context, since time.Time) (int, error) {
	n, err := r.queries.CountFailuresSince(ctx, failureOutcomes, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count failed reactions: %w", err)
	}
	return int(n), nil
}

func fromRow(row JournalRow) Entry {
	e := Entry{
		EventID:      row.EventID,
		EventType:    row.EventType,
		Outcome:      outcome.Outcome(row.Outcome),
		Reason:       row.Reason,
		Fingerprint:  row.Fingerprint,
		MessageNames: row.MessageNames,
		MessagesSent: int(row.MessagesSent),
		Error:        sqlutil.FromSqlString(row.Error, ""),
		Attempts:     int(row.Attempts),
		StartedAt:    row.StartedAt,
		FinishedAt:   row.FinishedAt,
	}
	if row.Plan.Valid {
		e.Plan = json.RawMessage(row.Plan.RawMessage)
	}
	return e
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
