// Package observability provides logging, metrics and context helpers for the
// journal service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(cfg.Logging)
//	logger.Info().Str("manuscript_title", title).Msg("manuscript submitted")
//
// Add manuscript context to a logger:
//
//	logger = observability.WithManuscriptContext(logger, m.Title, m.State)
//
// # Metrics
//
//	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
//	metrics.RecordTransition("SUB", "ARF", "REV", elapsed)
//
// Every Record method is a no-op on a nil *Metrics, so components can be
// constructed without metrics in tests.
//
// # Context Helpers
//
//	ctx = observability.WithCorrelationID(ctx, id)
//	id := observability.CorrelationIDFromContext(ctx)
//
// # Standard Fields
//
//   - correlation_id: request correlation identifier
//   - manuscript_title: manuscript primary key
//   - state, action: workflow codes
//   - event_id, event_type: outbox event identity
package observability
