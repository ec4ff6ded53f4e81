package repository

import (
	"context"

	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/workflow"
)

// ManuscriptRepository handles manuscript persistence and workflow state changes.
type ManuscriptRepository interface {
	// Create inserts a new manuscript in its initial workflow position
	// (state SUB, history [SUB], no referees), whatever state the argument carries.
	// Returns domain.ErrAlreadyExists if the title is taken.
	Create(ctx context.Context, m *domain.Manuscript) error

	// Get retrieves a manuscript by title.
	// Returns domain.ErrNotFound if no manuscript has that title.
	Get(ctx context.Context, title string) (*domain.Manuscript, error)

	// Exists reports whether a manuscript with the title exists.
	Exists(ctx context.Context, title string) (bool, error)

	// List retrieves manuscripts matching the filter, newest first, with the
	// total number of matches for pagination.
	List(ctx context.Context, filter ManuscriptFilter) ([]*domain.Manuscript, int64, error)

	// Update applies a partial update to the descriptive fields.
	// Workflow fields are never touched. Returns domain.ErrNotFound if missing.
	Update(ctx context.Context, title string, patch domain.ManuscriptPatch) (*domain.Manuscript, error)

	// Delete removes a manuscript. Returns domain.ErrNotFound if missing.
	Delete(ctx context.Context, title string) error

	// UpdateState applies a workflow action to a manuscript.
	//
	// The row is locked with SELECT ... FOR UPDATE for the whole
	// read-dispatch-write cycle, so concurrent actions on the same title are
	// applied one after another and no history entry is lost. On any error
	// nothing is written.
	//
	// Returns domain.ErrNotFound, domain.ErrInvalidState or domain.ErrInvalidAction.
	UpdateState(ctx context.Context, title string, action domain.Action, args workflow.Args) (*domain.Transition, error)
}

// ManuscriptFilter specifies criteria for listing manuscripts.
type ManuscriptFilter struct {
	// State filters by workflow state (optional).
	State domain.State

	// Referee filters to manuscripts with this referee assigned (optional).
	Referee string

	// AuthorEmail filters by author email (optional).
	AuthorEmail string

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks the filter and applies pagination defaults.
func (f *ManuscriptFilter) Validate() error {
	if f.State != "" && !workflow.IsValidState(f.State) {
		return domain.NewInvalidStateError(f.State)
	}
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
