package domain

import (
	"slices"
	"time"
)

// Manuscript is a submission tracked through the editorial workflow.
// Title is the primary key and never changes after creation.
type Manuscript struct {
	Title       string
	Author      string
	AuthorEmail string
	Text        string
	Abstract    string
	EditorEmail string

	// State is changed only by the workflow dispatcher.
	State State
	// History is append-only; History[0] is StateSubmitted and the last entry equals State.
	History []State
	// Referees holds referee identifiers (emails) in assignment order.
	Referees []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewManuscript returns a manuscript in its initial workflow position.
func NewManuscript(title, author, authorEmail, text, abstract, editorEmail string) *Manuscript {
	now := time.Now().UTC()
	return &Manuscript{
		Title:       title,
		Author:      author,
		AuthorEmail: authorEmail,
		Text:        text,
		Abstract:    abstract,
		EditorEmail: editorEmail,
		State:       StateSubmitted,
		History:     []State{StateSubmitted},
		Referees:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasReferee reports whether the referee is assigned to the manuscript.
func (m *Manuscript) HasReferee(referee string) bool {
	return slices.Contains(m.Referees, referee)
}

// Apply moves the manuscript to next and records it in the history.
func (m *Manuscript) Apply(next State) {
	m.State = next
	m.History = append(m.History, next)
}

// ManuscriptPatch is a partial update of the descriptive manuscript fields.
// Nil fields are left unchanged. Workflow fields cannot be patched.
type ManuscriptPatch struct {
	Author      *string
	AuthorEmail *string
	Text        *string
	Abstract    *string
	EditorEmail *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ManuscriptPatch) IsEmpty() bool {
	return p.Author == nil && p.AuthorEmail == nil && p.Text == nil &&
		p.Abstract == nil && p.EditorEmail == nil
}

// ApplyTo copies the set fields onto m.
func (p ManuscriptPatch) ApplyTo(m *Manuscript) {
	if p.Author != nil {
		m.Author = *p.Author
	}
	if p.AuthorEmail != nil {
		m.AuthorEmail = *p.AuthorEmail
	}
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.Abstract != nil {
		m.Abstract = *p.Abstract
	}
	if p.EditorEmail != nil {
		m.EditorEmail = *p.EditorEmail
	}
}

// Transition is the outcome of applying one action to a manuscript.
type Transition struct {
	From       State
	To         State
	Action     Action
	Referee    string
	Manuscript *Manuscript
}
