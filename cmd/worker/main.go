// Package main provides the entry point for the journal service background worker.
//
// The worker relays outbox events to Kafka and, when enabled, consumes referee
// responses and applies declined invitations as DRF actions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/helixir/journal-service/internal/config"
	"github.com/helixir/journal-service/internal/database"
	"github.com/helixir/journal-service/internal/observability"
	"github.com/helixir/journal-service/internal/outbox"
	"github.com/helixir/journal-service/internal/referee"
	"github.com/helixir/journal-service/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)
	logger = logger.With().Str("component", "worker").Logger()
	logger.Info().Msg("journal-service worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Kafka.Enabled {
		return errors.New("kafka is disabled; the worker has nothing to do")
	}

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	publisher := outbox.NewKafkaPublisher(cfg.Kafka)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka publisher")
		}
	}()

	relay := outbox.NewRelay(db, outbox.NewPgStore(), publisher, outbox.RelayConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxRetries:   cfg.Outbox.MaxRetries,
	}, metrics, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})

	if cfg.RefereeListener.Enabled {
		// Listener-originated transitions are recorded in the outbox like any other.
		recorder := outbox.NewRecorder(outbox.NewEmitter(outbox.EmitterConfig{}), outbox.NewPgStore())
		manuscripts := repository.NewPgManuscriptRepository(db,
			repository.WithEventRecorder(recorder),
			repository.WithMetrics(metrics),
		)

		listener := referee.NewListener(referee.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.RefereeListener.Topic,
			GroupID: cfg.RefereeListener.GroupID,
		}, manuscripts, metrics, logger)
		defer func() {
			if err := listener.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close referee listener")
			}
		}()

		g.Go(func() error {
			return listener.Run(gctx)
		})
	}

	logger.Info().
		Bool("referee_listener", cfg.RefereeListener.Enabled).
		Msg("journal-service worker is ready")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker stopped: %w", err)
	}

	logger.Info().Msg("journal-service worker shutdown complete")
	return nil
}
