package outbox

import (
	"context"
	"fmt"

	"github.com/helixir/journal-service/internal/database"
	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/observability"
	"github.com/helixir/journal-service/internal/repository"
)

// Inserter is the subset of PgStore needed by the Recorder.
type Inserter interface {
	Insert(ctx context.Context, q database.DBTX, event domain.OutboxEvent) error
}

var _ repository.EventRecorder = (*Recorder)(nil)

// Recorder emits events and stores them in the caller's transaction.
type Recorder struct {
	emitter  *Emitter
	inserter Inserter
}

// NewRecorder creates a Recorder from an emitter and a store.
func NewRecorder(emitter *Emitter, inserter Inserter) *Recorder {
	return &Recorder{emitter: emitter, inserter: inserter}
}

// Record builds an event for the aggregate and inserts it through tx.
// The correlation ID is taken from ctx.
func (r *Recorder) Record(ctx context.Context, tx database.DBTX, aggregateID, eventType string, payload interface{}) error {
	event, err := r.emitter.Emit(EmitParams{
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CorrelationID: observability.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		return fmt.Errorf("emit event: %w", err)
	}

	if err := r.inserter.Insert(ctx, tx, event); err != nil {
		return fmt.Errorf("store event: %w", err)
	}
	return nil
}
