// Package main provides the entry point for the journal service API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/helixir/journal-service/internal/config"
	"github.com/helixir/journal-service/internal/content"
	"github.com/helixir/journal-service/internal/database"
	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/observability"
	"github.com/helixir/journal-service/internal/outbox"
	"github.com/helixir/journal-service/internal/repository"
	httpserver "github.com/helixir/journal-service/internal/server/http"
)

// healthService is the gRPC health service name reported by this server.
const healthService = "journal.v1.JournalService"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(cfg.Logging)
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("journal-service server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		if err := database.RunMigrations(db, cfg.Database.MigrationPath, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Manuscript changes are written to the outbox in the same transaction;
	// the worker relays them to Kafka.
	recorder := outbox.NewRecorder(outbox.NewEmitter(outbox.EmitterConfig{}), outbox.NewPgStore())

	// Create repositories.
	manuscriptRepo := repository.NewPgManuscriptRepository(db,
		repository.WithEventRecorder(recorder),
		repository.WithMetrics(metrics),
	)
	personRepo := repository.NewPgPersonRepository(db)
	textRepo := repository.NewPgTextRepository(db)

	// gRPC carries the standard health and reflection services only.
	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
			Time:              5 * time.Minute,
			Timeout:           1 * time.Minute,
		}),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	grpcAddr := cfg.Server.GRPCAddress()
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen on gRPC port: %w", err)
	}

	masthead := make([]domain.Role, 0, len(cfg.Journal.MastheadRoles))
	for _, code := range cfg.Journal.MastheadRoles {
		masthead = append(masthead, domain.Role(code))
	}

	httpCfg := httpserver.Config{
		Address:            cfg.Server.HTTPAddress(),
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        2 * time.Minute,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimitRPS:       cfg.Server.RateLimitRPS,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
		JournalTitle:       cfg.Journal.Title,
		MastheadRoles:      masthead,
	}
	httpSrv := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		Manuscripts: manuscriptRepo,
		People:      personRepo,
		Texts:       textRepo,
		Renderer:    content.NewRenderer(),
		Health:      db,
		Metrics:     metrics,
	}, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 3)

	go func() {
		logger.Info().Str("address", grpcAddr).Msg("gRPC server starting")
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().
		Str("grpc_address", grpcAddr).
		Str("http_address", httpCfg.Address).
		Strs("routes", httpSrv.Routes())
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("journal-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down journal-service")
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		logger.Info().Msg("gRPC server stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn().Msg("gRPC server forced shutdown due to timeout")
		grpcServer.Stop()
	}

	logger.Info().Msg("journal-service shutdown complete")
	return nil
}
