package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/journal-service/internal/database"
	"github.com/helixir/journal-service/internal/domain"
)

// maxErrorLength bounds the last_error column.
const maxErrorLength = 1024

// PgStore reads and writes outbox_events. Every method takes the query
// handle explicitly so callers decide the transaction.
type PgStore struct {
	now func() time.Time
}

// NewPgStore creates a new outbox store.
func NewPgStore() *PgStore {
	return &PgStore{now: func() time.Time { return time.Now().UTC() }}
}

// Insert writes a pending event.
func (s *PgStore) Insert(ctx context.Context, q database.DBTX, event domain.OutboxEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO outbox_events (
			event_id, event_version, aggregate_id, aggregate_type, event_type,
			payload, metadata, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.EventID, event.EventVersion, event.AggregateID, event.AggregateType, event.EventType,
		event.Payload, metadata, string(domain.OutboxStatusPending), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// ClaimBatch locks up to limit pending events in insertion order.
// Rows locked by another relay are skipped. q must be a transaction.
func (s *PgStore) ClaimBatch(ctx context.Context, q database.DBTX, limit int) ([]domain.OutboxEvent, error) {
	rows, err := q.Query(ctx, `
		SELECT event_id, event_version, aggregate_id, aggregate_type, event_type,
			payload, metadata, status, attempts, last_error, created_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY id
		LIMIT $2
		FOR UPDATE SKIP LOCKED`,
		string(domain.OutboxStatusPending), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.OutboxEvent, 0, limit)
	for rows.Next() {
		var (
			e        domain.OutboxEvent
			metadata []byte
			status   string
		)
		if err := rows.Scan(
			&e.EventID, &e.EventVersion, &e.AggregateID, &e.AggregateType, &e.EventType,
			&e.Payload, &metadata, &status, &e.Attempts, &e.LastError, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.Status = domain.OutboxStatus(status)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return events, nil
}

// MarkPublished marks an event as delivered.
func (s *PgStore) MarkPublished(ctx context.Context, q database.DBTX, eventID string) error {
	tag, err := q.Exec(ctx, `
		UPDATE outbox_events
		SET status = $1, published_at = $2
		WHERE event_id = $3`,
		string(domain.OutboxStatusPublished), s.now(), eventID,
	)
	if err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("outbox event", eventID)
	}
	return nil
}

// MarkFailed records a failed delivery attempt. Once attempts reach
// maxRetries the event is marked dead and reported as such.
func (s *PgStore) MarkFailed(ctx context.Context, q database.DBTX, eventID string, cause error, maxRetries int) (bool, error) {
	msg := cause.Error()
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength]
	}

	var status string
	err := q.QueryRow(ctx, `
		UPDATE outbox_events
		SET attempts = attempts + 1,
			last_error = $1,
			status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE status END
		WHERE event_id = $4
		RETURNING status`,
		msg, maxRetries, string(domain.OutboxStatusDead), eventID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.NewNotFoundError("outbox event", eventID)
		}
		return false, fmt.Errorf("mark outbox event failed: %w", err)
	}
	return domain.OutboxStatus(status) == domain.OutboxStatusDead, nil
}
