package httpserver

import (
	"time"

	"github.com/helixir/journal-service/internal/domain"
)

// Response types for JSON serialization.

type manuscriptResponse struct {
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	AuthorEmail string         `json:"author_email"`
	Text        string         `json:"text"`
	Abstract    string         `json:"abstract"`
	EditorEmail string         `json:"editor_email"`
	State       domain.State   `json:"state"`
	History     []domain.State `json:"history"`
	Referees    []string       `json:"referees"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type listManuscriptsResponse struct {
	Manuscripts   []manuscriptResponse `json:"manuscripts"`
	NextPageToken string               `json:"next_page_token,omitempty"`
	TotalCount    int                  `json:"total_count"`
}

type transitionResponse struct {
	Action     domain.Action      `json:"action"`
	From       domain.State       `json:"from"`
	To         domain.State       `json:"to"`
	Manuscript manuscriptResponse `json:"manuscript"`
}

type statesResponse struct {
	States []domain.State `json:"states"`
}

type actionsResponse struct {
	State   domain.State    `json:"state,omitempty"`
	Actions []domain.Action `json:"actions"`
}

type personResponse struct {
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Affiliation string        `json:"affiliation"`
	Roles       []domain.Role `json:"roles"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type listPeopleResponse struct {
	People        []personResponse `json:"people"`
	NextPageToken string           `json:"next_page_token,omitempty"`
	TotalCount    int              `json:"total_count"`
}

type textResponse struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listTextsResponse struct {
	Texts []textResponse `json:"texts"`
}

// Converter functions

func domainManuscriptToResponse(m *domain.Manuscript) manuscriptResponse {
	history := m.History
	if history == nil {
		history = []domain.State{}
	}
	referees := m.Referees
	if referees == nil {
		referees = []string{}
	}
	return manuscriptResponse{
		Title:       m.Title,
		Author:      m.Author,
		AuthorEmail: m.AuthorEmail,
		Text:        m.Text,
		Abstract:    m.Abstract,
		EditorEmail: m.EditorEmail,
		State:       m.State,
		History:     history,
		Referees:    referees,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func domainPersonToResponse(p *domain.Person) personResponse {
	roles := p.Roles
	if roles == nil {
		roles = []domain.Role{}
	}
	return personResponse{
		Email:       p.Email,
		Name:        p.Name,
		Affiliation: p.Affiliation,
		Roles:       roles,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func domainPeopleToResponse(people []*domain.Person) []personResponse {
	out := make([]personResponse, len(people))
	for i, p := range people {
		out[i] = domainPersonToResponse(p)
	}
	return out
}

func domainTextToResponse(t *domain.Text) textResponse {
	return textResponse{
		Key:       t.Key,
		Title:     t.Title,
		Text:      t.Text,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
