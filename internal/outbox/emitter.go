package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/journal-service/internal/domain"
)

const (
	// eventVersion is the schema version stamped on every event.
	eventVersion = 1

	// Metadata keys.
	MetadataSource        = "source"
	MetadataCorrelationID = "correlation_id"
)

// EmitterConfig configures the Emitter with service context.
type EmitterConfig struct {
	// ServiceName identifies the source service.
	ServiceName string
}

// EmitParams contains the parameters for emitting an event.
type EmitParams struct {
	// AggregateID is the manuscript title.
	AggregateID string
	// EventType is the type of event (e.g., "manuscript.state_changed").
	EventType string
	// Payload is the event payload that will be JSON-serialized.
	Payload interface{}
	// CorrelationID for request tracing (optional).
	CorrelationID string
}

// Emitter creates outbox events enriched with service context.
type Emitter struct {
	config EmitterConfig
	now    func() time.Time
}

// NewEmitter creates a new Emitter with the given service configuration.
func NewEmitter(config EmitterConfig) *Emitter {
	if config.ServiceName == "" {
		config.ServiceName = "journal-service"
	}
	return &Emitter{
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Emit creates a pending outbox event from the given parameters.
// The event is ready to be inserted into the outbox table.
func (e *Emitter) Emit(params EmitParams) (domain.OutboxEvent, error) {
	if params.AggregateID == "" {
		return domain.OutboxEvent{}, fmt.Errorf("aggregate_id is required")
	}
	if params.EventType == "" {
		return domain.OutboxEvent{}, fmt.Errorf("event_type is required")
	}

	payload, err := json.Marshal(params.Payload)
	if err != nil {
		return domain.OutboxEvent{}, fmt.Errorf("marshal payload: %w", err)
	}

	metadata := map[string]string{MetadataSource: e.config.ServiceName}
	if params.CorrelationID != "" {
		metadata[MetadataCorrelationID] = params.CorrelationID
	}

	return domain.OutboxEvent{
		EventID:       uuid.New().String(),
		EventVersion:  eventVersion,
		AggregateID:   params.AggregateID,
		AggregateType: domain.AggregateTypeManuscript,
		EventType:     params.EventType,
		Payload:       payload,
		Metadata:      metadata,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     e.now(),
	}, nil
}
