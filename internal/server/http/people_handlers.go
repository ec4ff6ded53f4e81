package httpserver

import (
	"net/http"
	"strings"

	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/repository"
)

type createPersonRequest struct {
	Email       string        `json:"email" validate:"required,email"`
	Name        string        `json:"name" validate:"required,max=200"`
	Affiliation string        `json:"affiliation" validate:"max=500"`
	Roles       []domain.Role `json:"roles"`
}

type updatePersonRequest struct {
	Name        *string        `json:"name" validate:"omitempty,max=200"`
	Affiliation *string        `json:"affiliation" validate:"omitempty,max=500"`
	Roles       *[]domain.Role `json:"roles"`
}

// listPeople handles GET /people.
func (s *Server) listPeople(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)
	filter := repository.PersonFilter{
		Role:   domain.Role(r.URL.Query().Get("role")),
		Limit:  limit,
		Offset: offset,
	}

	people, totalCount, err := s.people.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listPeopleResponse{
		People:        domainPeopleToResponse(people),
		NextPageToken: encodeHTTPPageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// createPerson handles POST /people.
func (s *Server) createPerson(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	p := &domain.Person{
		Email:       req.Email,
		Name:        req.Name,
		Affiliation: req.Affiliation,
		Roles:       req.Roles,
	}
	if err := s.people.Create(r.Context(), p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domainPersonToResponse(p))
}

// masthead handles GET /people/masthead. The roles query parameter
// (comma separated codes) overrides the configured editorial roles.
func (s *Server) masthead(w http.ResponseWriter, r *http.Request) {
	roles := s.config.MastheadRoles
	if raw := r.URL.Query().Get("roles"); raw != "" {
		roles = nil
		for _, code := range strings.Split(raw, ",") {
			role := domain.Role(strings.TrimSpace(code))
			if !domain.IsValidRole(role) {
				writeError(w, http.StatusBadRequest, "unknown role "+string(role))
				return
			}
			roles = append(roles, role)
		}
	}

	people, err := s.people.ListByRoles(r.Context(), roles)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"title":  s.config.JournalTitle,
		"people": domainPeopleToResponse(people),
	})
}

// getPerson handles GET /people/{email}.
func (s *Server) getPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.people.Get(r.Context(), pathParam(r, "email"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainPersonToResponse(p))
}

// updatePerson handles PUT /people/{email}.
func (s *Server) updatePerson(w http.ResponseWriter, r *http.Request) {
	var req updatePersonRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	p, err := s.people.Update(r.Context(), pathParam(r, "email"), domain.PersonPatch{
		Name:        req.Name,
		Affiliation: req.Affiliation,
		Roles:       req.Roles,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainPersonToResponse(p))
}

// deletePerson handles DELETE /people/{email}.
func (s *Server) deletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.people.Delete(r.Context(), pathParam(r, "email")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
