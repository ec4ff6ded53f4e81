package outbox

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/helixir/journal-service/internal/config"
	"github.com/helixir/journal-service/internal/domain"
)

// Kafka header names carried on every published event.
const (
	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderEventVersion  = "event_version"
	HeaderAggregateType = "aggregate_type"
	HeaderCorrelationID = "correlation_id"
)

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes outbox events to a Kafka topic keyed by
// manuscript title, so events of one manuscript stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			BatchSize:              cfg.BatchSize,
			BatchTimeout:           cfg.BatchTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: false,
		},
	}
}

// Publish writes the event synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.OutboxEvent) error {
	if err := p.writer.WriteMessages(ctx, toMessage(event)); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(event domain.OutboxEvent) kafka.Message {
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(event.EventID)},
		{Key: HeaderEventType, Value: []byte(event.EventType)},
		{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(event.EventVersion))},
		{Key: HeaderAggregateType, Value: []byte(event.AggregateType)},
	}
	if id := event.Metadata[MetadataCorrelationID]; id != "" {
		headers = append(headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(id)})
	}
	return kafka.Message{
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
		Time:    event.CreatedAt,
	}
}
