package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository on the local store.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) querier(ctx context.Context) persistence.Querier {
	return persistence.Executor(ctx, r.db)
}

const insertMessageSQL = `
	INSERT INTO outbox (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// Save stores a new outbox message.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	result, err := r.querier(ctx).ExecContext(ctx, insertMessageSQL,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		nullableString(string(msg.Metadata)),
		msg.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	msg.ID, err = result.LastInsertId()
	return err
}

// SaveBatch stores multiple outbox messages. When a transaction is present
// in the context (from a unit of work) the batch joins it; otherwise each
// insert is its own statement against the single-writer pool.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	for _, msg := range msgs {
		if err := r.Save(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// GetUnpublished retrieves publishable messages ordered by creation time.
// Messages waiting on a retry backoff are excluded until due.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, published_at, retry_count,
		       next_retry_at, last_error, dead_lettered_at, dead_letter_reason
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?
	`

	rows, err := r.querier(ctx).QueryContext(ctx, query, time.Now().UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// MarkPublished marks a message as successfully published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.querier(ctx).ExecContext(ctx,
		`UPDATE outbox SET published_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id,
	)
	return err
}

// MarkFailed records a publish failure with the next retry time.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.querier(ctx).ExecContext(ctx,
		`UPDATE outbox
		 SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		 WHERE id = ?`,
		errMsg, nextRetryAt.UTC().Format(time.RFC3339), id,
	)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.querier(ctx).ExecContext(ctx,
		`UPDATE outbox SET dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), reason, id,
	)
	return err
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)
	result, err := r.querier(ctx).ExecContext(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*Message, error) {
	var (
		msg              Message
		eventID          sql.NullString
		metadata         sql.NullString
		createdAt        string
		publishedAt      sql.NullString
		nextRetryAt      sql.NullString
		lastError        sql.NullString
		deadLetteredAt   sql.NullString
		deadLetterReason sql.NullString
	)

	err := row.Scan(
		&msg.ID, &eventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType,
		&msg.RoutingKey, &msg.Payload, &metadata, &createdAt, &publishedAt,
		&msg.RetryCount, &nextRetryAt, &lastError, &deadLetteredAt, &deadLetterReason,
	)
	if err != nil {
		return nil, err
	}

	if eventID.Valid {
		msg.EventID, _ = uuid.Parse(eventID.String)
	}
	if metadata.Valid {
		msg.Metadata = []byte(metadata.String)
	}
	msg.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	msg.PublishedAt = parseNullTime(publishedAt)
	msg.NextRetryAt = parseNullTime(nextRetryAt)
	msg.DeadLetteredAt = parseNullTime(deadLetteredAt)
	if lastError.Valid {
		msg.LastError = &lastError.String
	}
	if deadLetterReason.Valid {
		msg.DeadLetterReason = &deadLetterReason.String
	}

	return &msg, nil
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
