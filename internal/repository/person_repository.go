package repository

import (
	"context"

	"github.com/helixir/journal-service/internal/domain"
)

// PersonRepository handles people known to the journal.
type PersonRepository interface {
	// Create inserts a new person. Returns domain.ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, p *domain.Person) error

	// Get retrieves a person by email. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, email string) (*domain.Person, error)

	// List retrieves people ordered by name with the total count.
	List(ctx context.Context, filter PersonFilter) ([]*domain.Person, int64, error)

	// ListByRoles retrieves everyone holding at least one of the roles, ordered by name.
	ListByRoles(ctx context.Context, roles []domain.Role) ([]*domain.Person, error)

	// Update applies a partial update. Returns domain.ErrNotFound if missing.
	Update(ctx context.Context, email string, patch domain.PersonPatch) (*domain.Person, error)

	// Delete removes a person. Returns domain.ErrNotFound if missing.
	Delete(ctx context.Context, email string) error
}

// PersonFilter specifies criteria for listing people.
type PersonFilter struct {
	// Role filters to people holding this role (optional).
	Role domain.Role

	Limit  int
	Offset int
}

// Validate checks the filter and applies pagination defaults.
func (f *PersonFilter) Validate() error {
	if f.Role != "" && !domain.IsValidRole(f.Role) {
		return domain.NewValidationError("role", "unknown role "+string(f.Role))
	}
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}

// TextRepository handles editable journal pages.
type TextRepository interface {
	// Create inserts a new text. Returns domain.ErrAlreadyExists if the key is taken.
	Create(ctx context.Context, t *domain.Text) error

	// Get retrieves a text by key. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, key string) (*domain.Text, error)

	// List retrieves all texts ordered by key.
	List(ctx context.Context) ([]*domain.Text, error)

	// Update applies a partial update. Returns domain.ErrNotFound if missing.
	Update(ctx context.Context, key string, patch domain.TextPatch) (*domain.Text, error)

	// Delete removes a text. Returns domain.ErrNotFound if missing.
	Delete(ctx context.Context, key string) error
}
