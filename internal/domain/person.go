package domain

import (
	"slices"
	"time"
)

// Person is someone known to the journal: an author, referee or editor.
// Email is the primary key.
type Person struct {
	Email       string
	Name        string
	Affiliation string
	Roles       []Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRole reports whether the person holds the given role.
func (p *Person) HasRole(role Role) bool {
	return slices.Contains(p.Roles, role)
}

// HasAnyRole reports whether the person holds at least one of the roles.
func (p *Person) HasAnyRole(roles []Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// Text is an editable page of journal content (about page, submission guidelines).
// Key is the primary key and Text holds markdown.
type Text struct {
	Key       string
	Title     string
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PersonPatch is a partial update of a person. Nil fields are left unchanged.
type PersonPatch struct {
	Name        *string
	Affiliation *string
	Roles       *[]Role
}

// IsEmpty reports whether the patch changes nothing.
func (p PersonPatch) IsEmpty() bool {
	return p.Name == nil && p.Affiliation == nil && p.Roles == nil
}

// ApplyTo copies the set fields onto person.
func (p PersonPatch) ApplyTo(person *Person) {
	if p.Name != nil {
		person.Name = *p.Name
	}
	if p.Affiliation != nil {
		person.Affiliation = *p.Affiliation
	}
	if p.Roles != nil {
		person.Roles = slices.Clone(*p.Roles)
	}
}

// TextPatch is a partial update of a text page.
type TextPatch struct {
	Title *string
	Text  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TextPatch) IsEmpty() bool {
	return p.Title == nil && p.Text == nil
}

// ApplyTo copies the set fields onto t.
func (p TextPatch) ApplyTo(t *Text) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Text != nil {
		t.Text = *p.Text
	}
}
