package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/observability"
	"github.com/helixir/journal-service/internal/workflow"
)

const manuscriptColumns = `title, author, author_email, text, abstract, editor_email,
			state, history, referees, created_at, updated_at`

// Compile-time interface verification.
var _ ManuscriptRepository = (*PgManuscriptRepository)(nil)

// PgManuscriptRepository is a PostgreSQL implementation of ManuscriptRepository.
type PgManuscriptRepository struct {
	db       DBTX
	recorder EventRecorder
	metrics  *observability.Metrics
	now      func() time.Time
}

// ManuscriptOption configures a PgManuscriptRepository.
type ManuscriptOption func(*PgManuscriptRepository)

// WithEventRecorder records manuscript events in the outbox inside each write transaction.
func WithEventRecorder(rec EventRecorder) ManuscriptOption {
	return func(r *PgManuscriptRepository) { r.recorder = rec }
}

// WithMetrics records creation, deletion and transition metrics.
func WithMetrics(m *observability.Metrics) ManuscriptOption {
	return func(r *PgManuscriptRepository) { r.metrics = m }
}

// NewPgManuscriptRepository creates a new PostgreSQL manuscript repository.
func NewPgManuscriptRepository(db DBTX, opts ...ManuscriptOption) *PgManuscriptRepository {
	r := &PgManuscriptRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts a new manuscript.
func (r *PgManuscriptRepository) Create(ctx context.Context, m *domain.Manuscript) error {
	if m == nil {
		return domain.NewValidationError("manuscript", "manuscript cannot be nil")
	}
	if strings.TrimSpace(m.Title) == "" {
		return domain.NewValidationError("title", "title is required")
	}

	now := r.now()
	m.State = domain.StateSubmitted
	m.History = []domain.State{domain.StateSubmitted}
	m.Referees = []string{}
	m.CreatedAt = now
	m.UpdatedAt = now

	historyJSON, refereesJSON, err := marshalWorkflowFields(m)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO manuscripts (` + manuscriptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	err = inTx(ctx, r.db, func(q DBTX) error {
		_, err := q.Exec(ctx, query,
			m.Title, m.Author, m.AuthorEmail, m.Text, m.Abstract, m.EditorEmail,
			string(m.State), historyJSON, refereesJSON, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			if isPgUniqueViolation(err) {
				return domain.NewAlreadyExistsError("manuscript", m.Title)
			}
			return fmt.Errorf("failed to create manuscript: %w", err)
		}

		return r.record(ctx, q, m.Title, domain.EventTypeManuscriptCreated, domain.ManuscriptCreatedPayload{
			Title:       m.Title,
			Author:      m.Author,
			AuthorEmail: m.AuthorEmail,
			EditorEmail: m.EditorEmail,
			State:       m.State,
		})
	})
	if err != nil {
		return err
	}

	r.metrics.RecordManuscriptCreated()
	return nil
}

// Get retrieves a manuscript by title.
func (r *PgManuscriptRepository) Get(ctx context.Context, title string) (*domain.Manuscript, error) {
	query := `SELECT ` + manuscriptColumns + ` FROM manuscripts WHERE title = $1`

	m, err := scanManuscript(r.db.QueryRow(ctx, query, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("manuscript", title)
		}
		return nil, fmt.Errorf("failed to get manuscript: %w", err)
	}
	return m, nil
}

// Exists reports whether a manuscript with the title exists.
func (r *PgManuscriptRepository) Exists(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM manuscripts WHERE title = $1)`, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check manuscript: %w", err)
	}
	return exists, nil
}

// List retrieves manuscripts matching the filter criteria.
func (r *PgManuscriptRepository) List(ctx context.Context, filter ManuscriptFilter) ([]*domain.Manuscript, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", argIndex))
		args = append(args, string(filter.State))
		argIndex++
	}
	if filter.Referee != "" {
		refereeJSON, err := json.Marshal([]string{filter.Referee})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal referee filter: %w", err)
		}
		conditions = append(conditions, fmt.Sprintf("referees @> $%d::jsonb", argIndex))
		args = append(args, refereeJSON)
		argIndex++
	}
	if filter.AuthorEmail != "" {
		conditions = append(conditions, fmt.Sprintf("author_email = $%d", argIndex))
		args = append(args, filter.AuthorEmail)
		argIndex++
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM manuscripts WHERE %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count manuscripts: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM manuscripts
		WHERE %s
		ORDER BY created_at DESC, title
		LIMIT $%d OFFSET $%d`,
		manuscriptColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list manuscripts: %w", err)
	}
	defer rows.Close()

	manuscripts := make([]*domain.Manuscript, 0)
	for rows.Next() {
		m, err := scanManuscript(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan manuscript: %w", err)
		}
		manuscripts = append(manuscripts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating manuscripts: %w", err)
	}

	return manuscripts, totalCount, nil
}

// Update applies a partial update to the descriptive fields.
func (r *PgManuscriptRepository) Update(ctx context.Context, title string, patch domain.ManuscriptPatch) (*domain.Manuscript, error) {
	var updated *domain.Manuscript

	err := inTx(ctx, r.db, func(q DBTX) error {
		m, err := lockManuscript(ctx, q, title)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			updated = m
			return nil
		}

		patch.ApplyTo(m)
		m.UpdatedAt = r.now()

		_, err = q.Exec(ctx, `
			UPDATE manuscripts SET
				author = $1,
				author_email = $2,
				text = $3,
				abstract = $4,
				editor_email = $5,
				updated_at = $6
			WHERE title = $7`,
			m.Author, m.AuthorEmail, m.Text, m.Abstract, m.EditorEmail, m.UpdatedAt, title,
		)
		if err != nil {
			return fmt.Errorf("failed to update manuscript: %w", err)
		}

		if err := r.record(ctx, q, title, domain.EventTypeManuscriptUpdated, domain.ManuscriptUpdatedPayload{
			Title:  title,
			Fields: patchedFields(patch),
		}); err != nil {
			return err
		}

		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a manuscript.
func (r *PgManuscriptRepository) Delete(ctx context.Context, title string) error {
	err := inTx(ctx, r.db, func(q DBTX) error {
		var state string
		err := q.QueryRow(ctx, `DELETE FROM manuscripts WHERE title = $1 RETURNING state`, title).Scan(&state)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NewNotFoundError("manuscript", title)
			}
			return fmt.Errorf("failed to delete manuscript: %w", err)
		}

		return r.record(ctx, q, title, domain.EventTypeManuscriptDeleted, domain.ManuscriptDeletedPayload{
			Title: title,
			State: domain.State(state),
		})
	})
	if err != nil {
		return err
	}

	r.metrics.RecordManuscriptDeleted()
	return nil
}

// UpdateState applies a workflow action under a row lock.
func (r *PgManuscriptRepository) UpdateState(ctx context.Context, title string, action domain.Action, args workflow.Args) (*domain.Transition, error) {
	start := time.Now()
	var transition *domain.Transition

	err := inTx(ctx, r.db, func(q DBTX) error {
		m, err := lockManuscript(ctx, q, title)
		if err != nil {
			return err
		}

		from := m.State
		next, err := workflow.HandleAction(from, action, m, args)
		if err != nil {
			return err
		}
		m.Apply(next)
		m.UpdatedAt = r.now()

		historyJSON, refereesJSON, err := marshalWorkflowFields(m)
		if err != nil {
			return err
		}

		_, err = q.Exec(ctx, `
			UPDATE manuscripts SET
				state = $1,
				history = $2,
				referees = $3,
				updated_at = $4
			WHERE title = $5`,
			string(m.State), historyJSON, refereesJSON, m.UpdatedAt, title,
		)
		if err != nil {
			return fmt.Errorf("failed to update manuscript state: %w", err)
		}

		if err := r.record(ctx, q, title, domain.EventTypeManuscriptStateChanged, domain.ManuscriptStateChangedPayload{
			Title:        title,
			Action:       action,
			From:         from,
			To:           next,
			Referee:      args.Referee,
			RefereeExtra: args.Extra,
			Referees:     m.Referees,
			History:      m.History,
		}); err != nil {
			return err
		}

		transition = &domain.Transition{
			From:       from,
			To:         next,
			Action:     action,
			Referee:    args.Referee,
			Manuscript: m,
		}
		return nil
	})
	if err != nil {
		r.metrics.RecordTransitionRejected(rejectReason(err))
		return nil, err
	}

	r.metrics.RecordTransition(transition.From.String(), action.String(), transition.To.String(), time.Since(start))
	return transition, nil
}

// lockManuscript reads a manuscript with SELECT ... FOR UPDATE.
// q must be a transaction for the lock to outlive the statement.
func lockManuscript(ctx context.Context, q DBTX, title string) (*domain.Manuscript, error) {
	query := `SELECT ` + manuscriptColumns + ` FROM manuscripts WHERE title = $1 FOR UPDATE`

	rows, err := q.Query(ctx, query, title)
	if err != nil {
		return nil, fmt.Errorf("failed to query manuscript for update: %w", err)
	}

	m, err := scanManuscriptRows(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("manuscript", title)
		}
		return nil, fmt.Errorf("failed to scan manuscript: %w", err)
	}
	return m, nil
}

func (r *PgManuscriptRepository) record(ctx context.Context, q DBTX, title, eventType string, payload interface{}) error {
	if r.recorder == nil {
		return nil
	}
	if err := r.recorder.Record(ctx, q, title, eventType, payload); err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	return nil
}

// rejectReason maps an UpdateState error to a metric label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInvalidAction):
		return "invalid_action"
	default:
		return "error"
	}
}

func patchedFields(p domain.ManuscriptPatch) []string {
	var fields []string
	if p.Author != nil {
		fields = append(fields, "author")
	}
	if p.AuthorEmail != nil {
		fields = append(fields, "author_email")
	}
	if p.Text != nil {
		fields = append(fields, "text")
	}
	if p.Abstract != nil {
		fields = append(fields, "abstract")
	}
	if p.EditorEmail != nil {
		fields = append(fields, "editor_email")
	}
	return fields
}

func marshalWorkflowFields(m *domain.Manuscript) (history, referees []byte, err error) {
	history, err = json.Marshal(m.History)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	refs := m.Referees
	if refs == nil {
		refs = []string{}
	}
	referees, err = json.Marshal(refs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal referees: %w", err)
	}
	return history, referees, nil
}

// manuscriptScanDest holds the destination pointers for scanning a manuscript row.
type manuscriptScanDest struct {
	m            domain.Manuscript
	historyJSON  []byte
	refereesJSON []byte
}

func (d *manuscriptScanDest) destinations() []interface{} {
	return []interface{}{
		&d.m.Title, &d.m.Author, &d.m.AuthorEmail, &d.m.Text, &d.m.Abstract, &d.m.EditorEmail,
		&d.m.State, &d.historyJSON, &d.refereesJSON, &d.m.CreatedAt, &d.m.UpdatedAt,
	}
}

func (d *manuscriptScanDest) finalize() (*domain.Manuscript, error) {
	if len(d.historyJSON) > 0 {
		if err := json.Unmarshal(d.historyJSON, &d.m.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
	}
	d.m.Referees = []string{}
	if len(d.refereesJSON) > 0 {
		if err := json.Unmarshal(d.refereesJSON, &d.m.Referees); err != nil {
			return nil, fmt.Errorf("failed to unmarshal referees: %w", err)
		}
	}
	return &d.m, nil
}

// scanManuscript scans one row from either pgx.Row or the current pgx.Rows position.
func scanManuscript(row pgx.Row) (*domain.Manuscript, error) {
	var dest manuscriptScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanManuscriptRows scans the single row of a SELECT ... FOR UPDATE.
func scanManuscriptRows(rows pgx.Rows) (*domain.Manuscript, error) {
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	return scanManuscript(rows)
}
