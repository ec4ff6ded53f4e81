package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/journal-service/internal/domain"
)

// Compile-time interface verification.
var _ TextRepository = (*PgTextRepository)(nil)

// PgTextRepository is a PostgreSQL implementation of TextRepository.
type PgTextRepository struct {
	db DBTX
}

// NewPgTextRepository creates a new PostgreSQL text repository.
func NewPgTextRepository(db DBTX) *PgTextRepository {
	return &PgTextRepository{db: db}
}

// Create inserts a new text.
func (r *PgTextRepository) Create(ctx context.Context, t *domain.Text) error {
	if t == nil {
		return domain.NewValidationError("text", "text cannot be nil")
	}
	if strings.TrimSpace(t.Key) == "" {
		return domain.NewValidationError("key", "key is required")
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.Exec(ctx, `
		INSERT INTO texts (key, title, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.Key, t.Title, t.Text, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("text", t.Key)
		}
		return fmt.Errorf("failed to create text: %w", err)
	}
	return nil
}

// Get retrieves a text by key.
func (r *PgTextRepository) Get(ctx context.Context, key string) (*domain.Text, error) {
	var t domain.Text
	err := r.db.QueryRow(ctx, `
		SELECT key, title, text, created_at, updated_at
		FROM texts WHERE key = $1`, key,
	).Scan(&t.Key, &t.Title, &t.Text, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("text", key)
		}
		return nil, fmt.Errorf("failed to get text: %w", err)
	}
	return &t, nil
}

// List retrieves all texts ordered by key.
func (r *PgTextRepository) List(ctx context.Context) ([]*domain.Text, error) {
	rows, err := r.db.Query(ctx, `SELECT key, title, text, created_at, updated_at FROM texts ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list texts: %w", err)
	}
	defer rows.Close()

	texts := make([]*domain.Text, 0)
	for rows.Next() {
		var t domain.Text
		if err := rows.Scan(&t.Key, &t.Title, &t.Text, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan text: %w", err)
		}
		texts = append(texts, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating texts: %w", err)
	}
	return texts, nil
}

// Update applies a partial update to a text. The row is returned as stored.
func (r *PgTextRepository) Update(ctx context.Context, key string, patch domain.TextPatch) (*domain.Text, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, key)
	}

	var t domain.Text
	err := r.db.QueryRow(ctx, `
		UPDATE texts SET
			title = COALESCE($1, title),
			text = COALESCE($2, text),
			updated_at = $3
		WHERE key = $4
		RETURNING key, title, text, created_at, updated_at`,
		patch.Title, patch.Text, time.Now().UTC(), key,
	).Scan(&t.Key, &t.Title, &t.Text, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("text", key)
		}
		return nil, fmt.Errorf("failed to update text: %w", err)
	}
	return &t, nil
}

// Delete removes a text.
func (r *PgTextRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM texts WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete text: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("text", key)
	}
	return nil
}
