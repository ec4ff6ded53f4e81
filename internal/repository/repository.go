// Package repository provides data access interfaces and implementations
// for the journal service.
//
// # Repository Interfaces
//
//   - ManuscriptRepository: manuscripts and their workflow state
//   - PersonRepository: authors, referees and editors
//   - TextRepository: editable journal pages
//
// # Thread Safety
//
// All implementations are safe for concurrent use. ManuscriptRepository.UpdateState
// serializes concurrent actions on the same manuscript with a row lock.
//
// # Error Handling
//
// All methods return domain errors (domain.ErrNotFound, domain.ErrAlreadyExists,
// domain.ErrInvalidInput, domain.ErrInvalidState, domain.ErrInvalidAction) or wrap
// database errors with fmt.Errorf and %w.
//
// # Usage Pattern
//
//	db, _ := database.New(ctx, &cfg.Database, logger)
//	manuscripts := repository.NewPgManuscriptRepository(db,
//	    repository.WithEventRecorder(recorder),
//	    repository.WithMetrics(metrics),
//	)
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixir/journal-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
type DBTX = database.DBTX

// txBeginner is implemented by handles that can start a transaction
// (*database.DB, *pgxpool.Pool, pgxmock pools).
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EventRecorder stores a domain event in the same transaction as the change
// that produced it. See outbox.Recorder.
type EventRecorder interface {
	Record(ctx context.Context, tx DBTX, aggregateID, eventType string, payload interface{}) error
}

// PostgreSQL error codes used for constraint violation detection.
const (
	pgUniqueViolation = "23505" // unique_violation
)

// Filter pagination defaults and limits.
const (
	defaultFilterLimit = 100
	maxFilterLimit     = 1000
)

// applyPaginationDefaults clamps limit to [1, maxFilterLimit] and offset to >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultFilterLimit
	}
	if *limit > maxFilterLimit {
		*limit = maxFilterLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}

// inTx runs fn inside a transaction when db can begin one, and directly
// against db when it is already a transaction.
func inTx(ctx context.Context, db DBTX, fn func(q DBTX) error) error {
	beginner, ok := db.(txBeginner)
	if !ok {
		return fn(db)
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback error: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isPgUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
