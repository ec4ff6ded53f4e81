// Package outbox implements the transactional outbox for manuscript events.
//
// # Overview
//
// Repository writes record an event row in outbox_events inside the same
// transaction as the manuscript change. A Relay running in the worker claims
// pending rows and publishes them to Kafka, so an event is published if and
// only if its change committed.
//
// # Components
//
//   - Emitter: builds domain.OutboxEvent values with IDs and metadata
//   - PgStore: inserts, claims and marks outbox rows
//   - Recorder: Emitter plus PgStore, plugged into repositories as a repository.EventRecorder
//   - Relay: poll loop moving pending rows to a Publisher
//   - KafkaPublisher: Publisher backed by a kafka-go Writer
//
// # Event Types
//
//   - manuscript.created
//   - manuscript.updated
//   - manuscript.state_changed
//   - manuscript.deleted
//
// # Usage
//
//	recorder := outbox.NewRecorder(outbox.NewEmitter(outbox.EmitterConfig{}), outbox.NewPgStore())
//	manuscripts := repository.NewPgManuscriptRepository(db, repository.WithEventRecorder(recorder))
//
//	relay := outbox.NewRelay(db, outbox.NewPgStore(), publisher, outbox.RelayConfig{...}, metrics, logger)
//	go relay.Run(ctx)
package outbox
