package workflow

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/journal-service/internal/domain"
)

func newManuscript() *domain.Manuscript {
	return domain.NewManuscript("Tides of the North Sea", "Ada", "ada@example.com", "", "", "")
}

func TestVocabularyMatchesTable(t *testing.T) {
	t.Run("every state is a table key", func(t *testing.T) {
		require.Len(t, table, len(GetStates()))
		for _, s := range GetStates() {
			_, ok := table[s]
			assert.True(t, ok, "state %s missing from table", s)
		}
	})

	t.Run("every action appears under some state", func(t *testing.T) {
		seen := make(map[domain.Action]bool)
		for _, row := range table {
			for a := range row {
				seen[a] = true
				assert.True(t, IsValidAction(a), "table action %s is not in the vocabulary", a)
			}
		}
		for _, a := range GetActions() {
			assert.True(t, seen[a], "action %s is never available", a)
		}
	})
}

func TestIsValidState(t *testing.T) {
	for _, s := range GetStates() {
		assert.True(t, IsValidState(s), s)
	}
	for _, s := range []domain.State{"", "XYZ", "sub", "SUBMITTED", "ARF"} {
		assert.False(t, IsValidState(s), s)
	}
}

func TestIsValidAction(t *testing.T) {
	for _, a := range GetActions() {
		assert.True(t, IsValidAction(a), a)
	}
	for _, a := range []domain.Action{"", "NOP", "arf", "SUB"} {
		assert.False(t, IsValidAction(a), a)
	}
}

func TestGetStates_ReturnsCopy(t *testing.T) {
	got := GetStates()
	got[0] = "XYZ"
	assert.Equal(t, domain.StateSubmitted, GetStates()[0])
}

func TestHandleAction_AllValidPairsYieldValidStates(t *testing.T) {
	for _, s := range GetStates() {
		valid, err := GetValidActionsByState(s)
		require.NoError(t, err)

		for _, a := range valid {
			_, inRow := table[s][a]
			assert.True(t, inRow, "%s/%s", s, a)

			m := newManuscript()
			m.Referees = []string{"alice@example.com", "bob@example.com"}
			next, err := HandleAction(s, a, m, Args{Referee: "alice@example.com"})
			require.NoError(t, err, "%s/%s", s, a)
			assert.True(t, IsValidState(next), "%s/%s -> %s", s, a, next)
		}
	}
}

func TestHandleAction_InvalidState(t *testing.T) {
	for _, a := range append(GetActions(), "NOP") {
		m := newManuscript()
		_, err := HandleAction("XYZ", a, m, Args{})

		var stateErr *domain.InvalidStateError
		require.True(t, errors.As(err, &stateErr), "action %s", a)
		assert.Equal(t, "Bad state: XYZ", err.Error())
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	}
}

func TestHandleAction_InvalidAction(t *testing.T) {
	for _, s := range GetStates() {
		m := newManuscript()
		_, err := HandleAction(s, "NOP", m, Args{Referee: "alice@example.com"})

		var actionErr *domain.InvalidActionError
		require.True(t, errors.As(err, &actionErr), "state %s", s)
		assert.ErrorIs(t, err, domain.ErrInvalidAction)
		assert.Empty(t, m.Referees, "failed dispatch must not mutate")
	}

	_, err := HandleAction(domain.StateCopyEdit, domain.ActionAssignReferee, newManuscript(), Args{Referee: "x@example.com"})
	assert.EqualError(t, err, "ARF not available in CED")
}

func TestHandleAction_AssignRefereeFromSubmitted(t *testing.T) {
	m := newManuscript()
	require.Equal(t, domain.StateSubmitted, m.State)
	require.Equal(t, []domain.State{domain.StateSubmitted}, m.History)

	next, err := HandleAction(domain.StateSubmitted, domain.ActionAssignReferee, m, Args{Referee: "alice@example.com"})

	require.NoError(t, err)
	assert.Equal(t, domain.StateInRefereeReview, next)
	assert.Contains(t, m.Referees, "alice@example.com")
	// Dispatch does not record the transition.
	assert.Equal(t, domain.StateSubmitted, m.State)
	assert.Len(t, m.History, 1)
}

func TestHandleAction_RejectFromSubmitted(t *testing.T) {
	m := newManuscript()

	next, err := HandleAction(domain.StateSubmitted, domain.ActionReject, m, Args{})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRejected, next)
	assert.Empty(t, m.Referees)
}

func TestAssignReferee(t *testing.T) {
	tests := []struct {
		name     string
		initial  []string
		referee  string
		expected []string
	}{
		{name: "adds new referee", initial: []string{}, referee: "a@x.org", expected: []string{"a@x.org"}},
		{name: "keeps order", initial: []string{"a@x.org"}, referee: "b@x.org", expected: []string{"a@x.org", "b@x.org"}},
		{name: "ignores duplicate", initial: []string{"a@x.org"}, referee: "a@x.org", expected: []string{"a@x.org"}},
		{name: "ignores empty", initial: []string{"a@x.org"}, referee: "", expected: []string{"a@x.org"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManuscript()
			m.Referees = tt.initial

			next := assignReferee{}.Apply(m, Args{Referee: tt.referee})

			assert.Equal(t, domain.StateInRefereeReview, next)
			assert.Equal(t, tt.expected, m.Referees)
		})
	}
}

func TestRemoveReferee(t *testing.T) {
	tests := []struct {
		name     string
		initial  []string
		referee  string
		expected []string
		next     domain.State
	}{
		{name: "others remain", initial: []string{"a@x.org", "b@x.org"}, referee: "a@x.org", expected: []string{"b@x.org"}, next: domain.StateInRefereeReview},
		{name: "last referee", initial: []string{"a@x.org"}, referee: "a@x.org", expected: []string{}, next: domain.StateSubmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManuscript()
			m.Referees = tt.initial

			next := removeReferee{}.Apply(m, Args{Referee: tt.referee})

			assert.Equal(t, tt.next, next)
			assert.Equal(t, tt.expected, m.Referees)
		})
	}
}

func TestHandleAction_RemoveUnassignedReferee(t *testing.T) {
	m := newManuscript()
	next, err := HandleAction(m.State, domain.ActionAssignReferee, m, Args{Referee: "alice@x.org"})
	require.NoError(t, err)
	m.Apply(next)

	_, err = HandleAction(m.State, domain.ActionDeleteReferee, m, Args{Referee: "mallory@x.org"})

	var notAssigned *domain.RefereeNotAssignedError
	require.True(t, errors.As(err, &notAssigned))
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
	assert.Equal(t, "mallory@x.org", notAssigned.Referee)
	assert.Equal(t, []string{"alice@x.org"}, m.Referees)
	assert.Equal(t, []domain.State{domain.StateSubmitted, domain.StateInRefereeReview}, m.History)
}

func TestGetValidActionsByState(t *testing.T) {
	tests := []struct {
		state    domain.State
		expected []domain.Action
	}{
		{domain.StateSubmitted, []domain.Action{domain.ActionAssignReferee, domain.ActionReject, domain.ActionWithdraw}},
		{domain.StateInRefereeReview, []domain.Action{domain.ActionAccept, domain.ActionAssignReferee, domain.ActionDeleteReferee, domain.ActionReject, domain.ActionWithdraw}},
		{domain.StateCopyEdit, []domain.Action{domain.ActionDone, domain.ActionWithdraw}},
		{domain.StateAuthorRevision, []domain.Action{domain.ActionWithdraw}},
		{domain.StateRejected, []domain.Action{}},
		{domain.StateWithdrawn, []domain.Action{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			got, err := GetValidActionsByState(tt.state)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := GetValidActionsByState("XYZ")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(domain.StateRejected))
	assert.True(t, IsTerminal(domain.StateWithdrawn))
	assert.False(t, IsTerminal(domain.StateSubmitted))
	assert.False(t, IsTerminal(domain.StateAuthorRevision))
	assert.False(t, IsTerminal("XYZ"))
}

func TestHandleAction_FullLifecycle(t *testing.T) {
	m := newManuscript()
	steps := []struct {
		action  domain.Action
		referee string
		want    domain.State
	}{
		{domain.ActionAssignReferee, "alice@example.com", domain.StateInRefereeReview},
		{domain.ActionAssignReferee, "bob@example.com", domain.StateInRefereeReview},
		{domain.ActionDeleteReferee, "alice@example.com", domain.StateInRefereeReview},
		{domain.ActionAccept, "", domain.StateCopyEdit},
		{domain.ActionDone, "", domain.StateAuthorRevision},
		{domain.ActionWithdraw, "", domain.StateWithdrawn},
	}

	for _, step := range steps {
		next, err := HandleAction(m.State, step.action, m, Args{Referee: step.referee})
		require.NoError(t, err, "action %s", step.action)
		require.Equal(t, step.want, next)
		m.Apply(next)
	}

	assert.Equal(t, []domain.State{
		domain.StateSubmitted,
		domain.StateInRefereeReview,
		domain.StateInRefereeReview,
		domain.StateInRefereeReview,
		domain.StateCopyEdit,
		domain.StateAuthorRevision,
		domain.StateWithdrawn,
	}, m.History)
	assert.Equal(t, []string{"bob@example.com"}, m.Referees)
	assert.True(t, IsTerminal(m.State))
}

func TestHandleAction_ConcurrentReads(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := newManuscript()
			next, err := HandleAction(domain.StateSubmitted, domain.ActionAssignReferee, m, Args{Referee: "alice@example.com"})
			assert.NoError(t, err)
			assert.Equal(t, domain.StateInRefereeReview, next)
		}()
	}
	wg.Wait()
}
