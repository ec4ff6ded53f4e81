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
)

const personColumns = `email, name, affiliation, roles, created_at, updated_at`

// Compile-time interface verification.
var _ PersonRepository = (*PgPersonRepository)(nil)

// PgPersonRepository is a PostgreSQL implementation of PersonRepository.
type PgPersonRepository struct {
	db DBTX
}

// NewPgPersonRepository creates a new PostgreSQL person repository.
func NewPgPersonRepository(db DBTX) *PgPersonRepository {
	return &PgPersonRepository{db: db}
}

// Create inserts a new person.
func (r *PgPersonRepository) Create(ctx context.Context, p *domain.Person) error {
	if p == nil {
		return domain.NewValidationError("person", "person cannot be nil")
	}
	if strings.TrimSpace(p.Email) == "" {
		return domain.NewValidationError("email", "email is required")
	}
	if err := validateRoles(p.Roles); err != nil {
		return err
	}

	rolesJSON, err := marshalRoles(p.Roles)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.Exec(ctx, `
		INSERT INTO people (`+personColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.Email, p.Name, p.Affiliation, rolesJSON, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("person", p.Email)
		}
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

// Get retrieves a person by email.
func (r *PgPersonRepository) Get(ctx context.Context, email string) (*domain.Person, error) {
	p, err := scanPerson(r.db.QueryRow(ctx, `SELECT `+personColumns+` FROM people WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("person", email)
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

// List retrieves people matching the filter.
func (r *PgPersonRepository) List(ctx context.Context, filter PersonFilter) ([]*domain.Person, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	whereClause := "TRUE"
	var args []interface{}
	if filter.Role != "" {
		roleJSON, err := marshalRoles([]domain.Role{filter.Role})
		if err != nil {
			return nil, 0, err
		}
		whereClause = "roles @> $1::jsonb"
		args = append(args, roleJSON)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM people WHERE "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count people: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM people
		WHERE %s
		ORDER BY name, email
		LIMIT $%d OFFSET $%d`, personColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list people: %w", err)
	}
	people, err := scanPeople(rows)
	if err != nil {
		return nil, 0, err
	}
	return people, totalCount, nil
}

// ListByRoles retrieves everyone holding at least one of the roles.
func (r *PgPersonRepository) ListByRoles(ctx context.Context, roles []domain.Role) ([]*domain.Person, error) {
	if len(roles) == 0 {
		return []*domain.Person{}, nil
	}
	codes := make([]string, len(roles))
	for i, role := range roles {
		codes[i] = string(role)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+personColumns+` FROM people
		WHERE roles ?| $1
		ORDER BY name, email`, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to list people by roles: %w", err)
	}
	return scanPeople(rows)
}

// Update applies a partial update to a person.
func (r *PgPersonRepository) Update(ctx context.Context, email string, patch domain.PersonPatch) (*domain.Person, error) {
	if patch.Roles != nil {
		if err := validateRoles(*patch.Roles); err != nil {
			return nil, err
		}
	}

	var updated *domain.Person
	err := inTx(ctx, r.db, func(q DBTX) error {
		p, err := scanPerson(q.QueryRow(ctx, `SELECT `+personColumns+` FROM people WHERE email = $1 FOR UPDATE`, email))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NewNotFoundError("person", email)
			}
			return fmt.Errorf("failed to get person: %w", err)
		}
		if patch.IsEmpty() {
			updated = p
			return nil
		}

		patch.ApplyTo(p)
		p.UpdatedAt = time.Now().UTC()
		rolesJSON, err := marshalRoles(p.Roles)
		if err != nil {
			return err
		}

		_, err = q.Exec(ctx, `
			UPDATE people SET name = $1, affiliation = $2, roles = $3, updated_at = $4
			WHERE email = $5`,
			p.Name, p.Affiliation, rolesJSON, p.UpdatedAt, email,
		)
		if err != nil {
			return fmt.Errorf("failed to update person: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a person.
func (r *PgPersonRepository) Delete(ctx context.Context, email string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM people WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("person", email)
	}
	return nil
}

func validateRoles(roles []domain.Role) error {
	for _, role := range roles {
		if !domain.IsValidRole(role) {
			return domain.NewValidationError("roles", "unknown role "+string(role))
		}
	}
	return nil
}

func marshalRoles(roles []domain.Role) ([]byte, error) {
	if roles == nil {
		roles = []domain.Role{}
	}
	b, err := json.Marshal(roles)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roles: %w", err)
	}
	return b, nil
}

func scanPerson(row pgx.Row) (*domain.Person, error) {
	var p domain.Person
	var rolesJSON []byte
	if err := row.Scan(&p.Email, &p.Name, &p.Affiliation, &rolesJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Roles = []domain.Role{}
	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &p.Roles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
		}
	}
	return &p, nil
}

func scanPeople(rows pgx.Rows) ([]*domain.Person, error) {
	defer rows.Close()

	people := make([]*domain.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}
	return people, nil
}
