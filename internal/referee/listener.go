// Package referee provides a Kafka listener for referee responses. A referee
// declining an invitation removes them from the manuscript.
package referee

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/observability"
	"github.com/helixir/journal-service/internal/workflow"
)

// Decisions carried by a referee response.
const (
	DecisionAccepted = "accepted"
	DecisionDeclined = "declined"
	// DecisionUnknown labels metrics for any other decision value.
	DecisionUnknown = "unknown"
)

// Outcome labels for the referee feed metric.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeIgnored = "ignored"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// correlationHeader is the Kafka header copied into outbox event metadata.
const correlationHeader = "correlation_id"

// Response is a referee's answer to a review invitation.
type Response struct {
	Title    string `json:"title"`
	Referee  string `json:"referee"`
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// StateUpdater applies workflow actions. Satisfied by repository.ManuscriptRepository.
type StateUpdater interface {
	UpdateState(ctx context.Context, title string, action domain.Action, args workflow.Args) (*domain.Transition, error)
}

// messageReader is the subset of *kafka.Reader used by the listener.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Config holds configuration for the referee listener.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic for referee responses.
	Topic string
	// GroupID is the consumer group ID.
	GroupID string
}

// Listener consumes referee responses from Kafka.
type Listener struct {
	reader      messageReader
	manuscripts StateUpdater
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

// NewListener creates a new referee response listener.
func NewListener(
	cfg Config,
	manuscripts StateUpdater,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Listener {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})
	return newListener(reader, manuscripts, metrics, logger)
}

func newListener(reader messageReader, manuscripts StateUpdater, metrics *observability.Metrics, logger zerolog.Logger) *Listener {
	return &Listener{
		reader:      reader,
		manuscripts: manuscripts,
		metrics:     metrics,
		logger:      logger.With().Str("component", "referee_listener").Logger(),
	}
}

// Run starts the listener loop. Blocks until context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info().Msg("starting referee listener")

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info().Msg("referee listener stopped via context cancellation")
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("failed to read message from Kafka")
			continue
		}

		l.logger.Debug().
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("received referee response")

		l.handleMessage(ctx, msg)
	}
}

func (l *Listener) handleMessage(ctx context.Context, msg kafka.Message) string {
	var resp Response
	if err := json.Unmarshal(msg.Value, &resp); err != nil {
		l.logger.Error().Err(err).
			Str("raw_value", string(msg.Value)).
			Msg("failed to unmarshal referee response")
		l.metrics.RecordRefereeFeedMessage(DecisionUnknown, OutcomeInvalid)
		return OutcomeInvalid
	}

	for _, h := range msg.Headers {
		if h.Key == correlationHeader && len(h.Value) > 0 {
			ctx = observability.WithCorrelationID(ctx, string(h.Value))
		}
	}

	outcome := l.HandleResponse(ctx, resp)
	l.metrics.RecordRefereeFeedMessage(decisionLabel(resp.Decision), outcome)
	return outcome
}

// decisionLabel bounds the metric label to the known decisions.
func decisionLabel(decision string) string {
	switch decision {
	case DecisionAccepted, DecisionDeclined:
		return decision
	default:
		return DecisionUnknown
	}
}

// HandleResponse applies one referee response and returns its outcome label.
func (l *Listener) HandleResponse(ctx context.Context, resp Response) string {
	logger := l.logger.With().
		Str("title", resp.Title).
		Str("referee", resp.Referee).
		Str("decision", resp.Decision).
		Logger()

	if resp.Title == "" || resp.Referee == "" {
		logger.Warn().Msg("referee response without title or referee")
		return OutcomeInvalid
	}

	switch resp.Decision {
	case DecisionAccepted:
		logger.Info().Msg("referee accepted invitation")
		return OutcomeIgnored
	case DecisionDeclined:
	default:
		logger.Warn().Msg("unknown referee decision, skipping")
		return OutcomeSkipped
	}

	extra := map[string]string{"decision": resp.Decision}
	if resp.Reason != "" {
		extra["reason"] = resp.Reason
	}

	tr, err := l.manuscripts.UpdateState(ctx, resp.Title, domain.ActionDeleteReferee, workflow.Args{
		Referee: resp.Referee,
		Extra:   extra,
	})
	switch {
	case err == nil:
		applied := observability.WithManuscriptContext(logger, resp.Title, tr.To)
		applied.Info().
			Str("from", tr.From.String()).
			Msg("removed declining referee")
		return OutcomeApplied
	case errors.As(err, new(*domain.RefereeNotAssignedError)):
		logger.Info().Msg("declining referee is not assigned, skipping")
		return OutcomeSkipped
	case errors.Is(err, domain.ErrInvalidAction), errors.Is(err, domain.ErrNotFound):
		logger.Info().Err(err).Msg("manuscript no longer in review, skipping")
		return OutcomeSkipped
	default:
		logger.Error().Err(err).Msg("failed to remove declining referee")
		return OutcomeError
	}
}

// Close closes the Kafka reader.
func (l *Listener) Close() error {
	l.logger.Info().Msg("closing referee listener")
	return l.reader.Close()
}
