package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/helixir/journal-service/internal/database"
	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/observability"
)

// Publisher delivers one event to the message broker.
type Publisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

// TxBeginner starts the transaction a batch is claimed in.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the subset of PgStore used by the Relay.
type Store interface {
	ClaimBatch(ctx context.Context, q database.DBTX, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, q database.DBTX, eventID string) error
	MarkFailed(ctx context.Context, q database.DBTX, eventID string, cause error, maxRetries int) (bool, error)
}

// RelayConfig holds relay settings.
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
}

// Relay moves pending outbox events to a Publisher.
type Relay struct {
	db        TxBeginner
	store     Store
	publisher Publisher
	config    RelayConfig
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewRelay creates a relay. Zero config values fall back to 1s, 100 and 5.
func NewRelay(db TxBeginner, store Store, publisher Publisher, cfg RelayConfig, metrics *observability.Metrics, logger zerolog.Logger) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &Relay{
		db:        db,
		store:     store,
		publisher: publisher,
		config:    cfg,
		metrics:   metrics,
		logger:    logger.With().Str("component", "outbox_relay").Logger(),
	}
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// another poll instead of waiting for the next tick.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info().
		Dur("poll_interval", r.config.PollInterval).
		Int("batch_size", r.config.BatchSize).
		Msg("starting outbox relay")

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		n, err := r.ProcessBatch(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.Error().Err(err).Msg("outbox batch failed")
		}
		if n == r.config.BatchSize && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped via context cancellation")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessBatch claims one batch, publishes each event and records the
// outcome in the same transaction. It returns the number of events claimed.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin outbox transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Warn().Err(rbErr).Msg("outbox rollback failed")
		}
	}()

	events, err := r.store.ClaimBatch(ctx, tx, r.config.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	for _, event := range events {
		logger := observability.WithEventContext(r.logger, event.EventID, event.EventType)

		if pubErr := r.publisher.Publish(ctx, event); pubErr != nil {
			dead, err := r.store.MarkFailed(ctx, tx, event.EventID, pubErr, r.config.MaxRetries)
			if err != nil {
				return len(events), err
			}
			r.metrics.RecordOutboxFailed(event.EventType, dead)
			logger.Warn().Err(pubErr).
				Int("attempts", event.Attempts+1).
				Bool("dead", dead).
				Msg("failed to publish outbox event")
			continue
		}

		if err := r.store.MarkPublished(ctx, tx, event.EventID); err != nil {
			return len(events), err
		}
		r.metrics.RecordOutboxPublished(event.EventType)
		logger.Debug().Str("aggregate_id", event.AggregateID).Msg("published outbox event")
	}

	if err := tx.Commit(ctx); err != nil {
		return len(events), fmt.Errorf("commit outbox transaction: %w", err)
	}
	committed = true
	return len(events), nil
}
