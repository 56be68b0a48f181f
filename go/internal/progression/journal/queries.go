package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertEntry = `
INSERT INTO reaction_journal (
    event_id, event_type, outcome, reason, fingerprint, message_names,
    messages_sent, plan, error, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (event_id, fingerprint) DO UPDATE SET
    outcome       = EXCLUDED.outcome,
    reason        = EXCLUDED.reason,
    messages_sent = EXCLUDED.messages_sent,
    error         = EXCLUDED.error,
    finished_at   = EXCLUDED.finished_at,
    attempts      = reaction_journal.attempts + 1
RETURNING attempts`

type UpsertEntryParams struct {
	EventID      uuid.UUID
	EventType    string
	Outcome      string
	Reason       string
	Fingerprint  string
	MessageNames []string
	MessagesSent int32
	Plan         pqtype.NullRawMessage
	Error        sql.NullString
	StartedAt    time.Time
	FinishedAt   time.Time
}

// UpsertEntry inserts the row or, for a redelivered event that produced the
// same plan, overwrites the result and bumps attempts.
func (q *Queries) UpsertEntry(ctx context.Context, arg UpsertEntryParams) (int32, error) {
	row := q.db.QueryRowContext(ctx, upsertEntry,
		arg.EventID,
		arg.EventType,
		arg.Outcome,
		arg.Reason,
		arg.Fingerprint,
		pq.Array(arg.MessageNames),
		arg.MessagesSent,
		arg.Plan,
		arg.Error,
		arg.StartedAt,
		arg.FinishedAt,
	)
	var attempts int32
	err := row.Scan(&attempts)
	return attempts, err
}

const notifyEntry = `SELECT pg_notify($1, $2)`

func (q *Queries) NotifyEntry(ctx context.Context, channel string, eventID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, notifyEntry, channel, eventID.String())
	return err
}

const selectColumns = `
SELECT event_id, event_type, outcome, reason, fingerprint, message_names,
       messages_sent, plan, error, attempts, started_at, finished_at
FROM reaction_journal`

type JournalRow struct {
	EventID      uuid.UUID
	EventType    string
	Outcome      string
	Reason       string
	Fingerprint  string
	MessageNames []string
	MessagesSent int32
	Plan         pqtype.NullRawMessage
	Error        sql.NullString
	Attempts     int32
	StartedAt    time.Time
	FinishedAt   time.Time
}

func scanRow(scan func(dest ...interface{}) error) (JournalRow, error) {
	var i JournalRow
	err := scan(
		&i.EventID,
		&i.EventType,
		&i.Outcome,
		&i.Reason,
		&i.Fingerprint,
		pq.Array(&i.MessageNames),
		&i.MessagesSent,
		&i.Plan,
		&i.Error,
		&i.Attempts,
		&i.StartedAt,
		&i.FinishedAt,
	)
	return i, err
}

const listRecent = selectColumns + `
ORDER BY finished_at DESC
LIMIT $1`

func (q *Queries) ListRecent(ctx context.Context, limit int32) ([]JournalRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []JournalRow
	for rows.Next() {
		i, err := scanRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const latestForEvent = selectColumns + `
WHERE event_id = $1
ORDER BY finished_at DESC
LIMIT 1`

func (q *Queries) LatestForEvent(ctx context.Context, eventID uuid.UUID) (JournalRow, error) {
	return scanRow(q.db.QueryRowContext(ctx, latestForEvent, eventID).Scan)
}

const countFailuresSince = `
SELECT COUNT(*) FROM reaction_journal
WHERE outcome = ANY($1) AND finished_at >= $2`

func (q *Queries) CountFailuresSince(ctx context.Context, outcomes []string, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countFailuresSince, pq.Array(outcomes), since).Scan(&count)
	return count, err
}
