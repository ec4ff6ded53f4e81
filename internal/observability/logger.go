package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/journal-service/internal/config"
)

// NewLogger creates a zerolog logger from the logging configuration.
func NewLogger(cfg config.LoggingConfig) zerolog.Logger {
	return newLogger(cfg, outputFor(cfg.Output))
}

// outputFor resolves the configured output. Anything other than stdout or
// stderr is treated as a file path, falling back to stdout if it cannot be opened.
func outputFor(output string) io.Writer {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout
	}
	return f
}

func newLogger(cfg config.LoggingConfig, output io.Writer) zerolog.Logger {
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	if f := strings.ToLower(cfg.Format); f == "console" || f == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: zerolog.TimeFieldFormat,
		}
	}

	logger := zerolog.New(output).With().Timestamp()
	if cfg.AddSource {
		logger = logger.Caller()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	return logger.Logger().Level(level)
}

// parseLevel converts a string log level to zerolog.Level, defaulting to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithManuscriptContext adds manuscript fields to a logger.
func WithManuscriptContext(logger zerolog.Logger, title string, state fmt.Stringer) zerolog.Logger {
	return logger.With().
		Str("manuscript_title", title).
		Stringer("state", state).
		Logger()
}

// WithEventContext adds outbox event fields to a logger.
func WithEventContext(logger zerolog.Logger, eventID, eventType string) zerolog.Logger {
	return logger.With().
		Str("event_id", eventID).
		Str("event_type", eventType).
		Logger()
}

// WithCorrelationContext adds the correlation ID carried by ctx, if any.
func WithCorrelationContext(logger zerolog.Logger, ctx context.Context) zerolog.Logger {
	id := CorrelationIDFromContext(ctx)
	if id == "" {
		return logger
	}
	return logger.With().Str("correlation_id", id).Logger()
}
