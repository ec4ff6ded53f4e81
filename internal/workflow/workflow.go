// Package workflow implements the manuscript editorial state machine.
//
// The transition table maps every state to the actions legal in it, and each
// action to a named Transition handler that may mutate the manuscript's referee
// list before returning the next state. The table is built once at package init
// and only read afterwards, so all functions here are safe for concurrent use.
// Persistence is the caller's job; see repository.ManuscriptRepository.UpdateState.
package workflow

import (
	"slices"

	"github.com/helixir/journal-service/internal/domain"
)

// Args carries action arguments to a Transition.
type Args struct {
	// Referee identifies the referee for ARF and DRF.
	Referee string
	// Extra is optional referee metadata. Handlers ignore it; it is recorded in
	// the state change event.
	Extra map[string]string
}

// Transition is a handler bound to one (state, action) pair.
// Apply may modify m's referee list and returns the next state. It never
// touches m.State or m.History.
type Transition interface {
	Apply(m *domain.Manuscript, args Args) domain.State
}

// precondition is implemented by transitions that can refuse to run.
// HandleAction calls Check before Apply; a non-nil error aborts the dispatch
// with m untouched.
type precondition interface {
	Check(m *domain.Manuscript, args Args) error
}

// goTo moves to a fixed state with no side effects.
type goTo struct {
	to domain.State
}

func (g goTo) Apply(*domain.Manuscript, Args) domain.State {
	return g.to
}

// assignReferee adds the referee (once) and puts the manuscript in review.
type assignReferee struct{}

func (assignReferee) Apply(m *domain.Manuscript, args Args) domain.State {
	if args.Referee != "" && !m.HasReferee(args.Referee) {
		m.Referees = append(m.Referees, args.Referee)
	}
	return domain.StateInRefereeReview
}

// removeReferee drops the referee. With nobody left reviewing, the manuscript
// goes back to submitted. Only an assigned referee can be removed.
type removeReferee struct{}

func (removeReferee) Check(m *domain.Manuscript, args Args) error {
	if !m.HasReferee(args.Referee) {
		return domain.NewRefereeNotAssignedError(m.Title, args.Referee)
	}
	return nil
}

func (removeReferee) Apply(m *domain.Manuscript, args Args) domain.State {
	m.Referees = slices.DeleteFunc(m.Referees, func(r string) bool {
		return r == args.Referee
	})
	if len(m.Referees) == 0 {
		return domain.StateSubmitted
	}
	return domain.StateInRefereeReview
}

var (
	states = []domain.State{
		domain.StateSubmitted,
		domain.StateInRefereeReview,
		domain.StateCopyEdit,
		domain.StateAuthorRevision,
		domain.StateRejected,
		domain.StateWithdrawn,
	}

	actions = []domain.Action{
		domain.ActionAssignReferee,
		domain.ActionDeleteReferee,
		domain.ActionReject,
		domain.ActionDone,
		domain.ActionAccept,
		domain.ActionWithdraw,
	}

	table = map[domain.State]map[domain.Action]Transition{
		domain.StateSubmitted: {
			domain.ActionAssignReferee: assignReferee{},
			domain.ActionReject:        goTo{domain.StateRejected},
			domain.ActionWithdraw:      goTo{domain.StateWithdrawn},
		},
		domain.StateInRefereeReview: {
			domain.ActionAssignReferee: assignReferee{},
			domain.ActionDeleteReferee: removeReferee{},
			domain.ActionAccept:        goTo{domain.StateCopyEdit},
			domain.ActionReject:        goTo{domain.StateRejected},
			domain.ActionWithdraw:      goTo{domain.StateWithdrawn},
		},
		domain.StateCopyEdit: {
			domain.ActionDone:     goTo{domain.StateAuthorRevision},
			domain.ActionWithdraw: goTo{domain.StateWithdrawn},
		},
		domain.StateAuthorRevision: {
			domain.ActionWithdraw: goTo{domain.StateWithdrawn},
		},
		domain.StateRejected:  {},
		domain.StateWithdrawn: {},
	}
)

// GetStates returns all valid states in workflow order.
func GetStates() []domain.State {
	return slices.Clone(states)
}

// GetActions returns all valid actions.
func GetActions() []domain.Action {
	return slices.Clone(actions)
}

// IsValidState reports whether s is a known state code.
func IsValidState(s domain.State) bool {
	return slices.Contains(states, s)
}

// IsValidAction reports whether a is a known action code.
func IsValidAction(a domain.Action) bool {
	return slices.Contains(actions, a)
}

// IsTerminal reports whether no action leaves s. Unknown states are not terminal.
func IsTerminal(s domain.State) bool {
	row, ok := table[s]
	return ok && len(row) == 0
}

// GetValidActionsByState returns the actions available in state, sorted by code.
func GetValidActionsByState(state domain.State) ([]domain.Action, error) {
	row, ok := table[state]
	if !ok {
		return nil, domain.NewInvalidStateError(state)
	}
	out := make([]domain.Action, 0, len(row))
	for a := range row {
		out = append(out, a)
	}
	slices.Sort(out)
	return out, nil
}

// HandleAction runs the handler for (current, action) against m and returns the
// next state. It does not update m.State or m.History, and on error m is left
// untouched.
func HandleAction(current domain.State, action domain.Action, m *domain.Manuscript, args Args) (domain.State, error) {
	row, ok := table[current]
	if !ok {
		return "", domain.NewInvalidStateError(current)
	}
	t, ok := row[action]
	if !ok {
		return "", domain.NewInvalidActionError(current, action)
	}
	if p, ok := t.(precondition); ok {
		if err := p.Check(m, args); err != nil {
			return "", err
		}
	}
	return t.Apply(m, args), nil
}
