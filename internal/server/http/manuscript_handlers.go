package httpserver

import (
	"net/http"

	"github.com/helixir/journal-service/internal/domain"
	"github.com/helixir/journal-service/internal/observability"
	"github.com/helixir/journal-service/internal/repository"
	"github.com/helixir/journal-service/internal/workflow"
)

type createManuscriptRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	Author      string `json:"author" validate:"required,max=200"`
	AuthorEmail string `json:"author_email" validate:"required,email"`
	Text        string `json:"text"`
	Abstract    string `json:"abstract"`
	EditorEmail string `json:"editor_email" validate:"omitempty,email"`
}

// updateManuscriptRequest carries the descriptive fields only. State, history
// and referees are not accepted here; they change through actions.
type updateManuscriptRequest struct {
	Author      *string `json:"author" validate:"omitempty,max=200"`
	AuthorEmail *string `json:"author_email" validate:"omitempty,email"`
	Text        *string `json:"text"`
	Abstract    *string `json:"abstract"`
	EditorEmail *string `json:"editor_email" validate:"omitempty,email"`
}

type applyActionRequest struct {
	Action  domain.Action     `json:"action" validate:"required"`
	Referee string            `json:"referee"`
	Extra   map[string]string `json:"extra"`
}

// listManuscripts handles GET /manuscripts.
func (s *Server) listManuscripts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)
	q := r.URL.Query()

	filter := repository.ManuscriptFilter{
		State:       domain.State(q.Get("state")),
		Referee:     q.Get("referee"),
		AuthorEmail: q.Get("author_email"),
		Limit:       limit,
		Offset:      offset,
	}

	manuscripts, totalCount, err := s.manuscripts.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]manuscriptResponse, len(manuscripts))
	for i, m := range manuscripts {
		out[i] = domainManuscriptToResponse(m)
	}

	writeJSON(w, http.StatusOK, listManuscriptsResponse{
		Manuscripts:   out,
		NextPageToken: encodeHTTPPageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// createManuscript handles POST /manuscripts.
func (s *Server) createManuscript(w http.ResponseWriter, r *http.Request) {
	var req createManuscriptRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	m := domain.NewManuscript(req.Title, req.Author, req.AuthorEmail, req.Text, req.Abstract, req.EditorEmail)
	if err := s.manuscripts.Create(r.Context(), m); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainManuscriptToResponse(m))
}

// getManuscript handles GET /manuscripts/{title}.
func (s *Server) getManuscript(w http.ResponseWriter, r *http.Request) {
	m, err := s.manuscripts.Get(r.Context(), pathParam(r, "title"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainManuscriptToResponse(m))
}

// manuscriptExists handles HEAD /manuscripts/{title}.
func (s *Server) manuscriptExists(w http.ResponseWriter, r *http.Request) {
	ok, err := s.manuscripts.Exists(r.Context(), pathParam(r, "title"))
	switch {
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
	case !ok:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// updateManuscript handles PUT /manuscripts/{title}.
func (s *Server) updateManuscript(w http.ResponseWriter, r *http.Request) {
	var req updateManuscriptRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	patch := domain.ManuscriptPatch{
		Author:      req.Author,
		AuthorEmail: req.AuthorEmail,
		Text:        req.Text,
		Abstract:    req.Abstract,
		EditorEmail: req.EditorEmail,
	}

	m, err := s.manuscripts.Update(r.Context(), pathParam(r, "title"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainManuscriptToResponse(m))
}

// deleteManuscript handles DELETE /manuscripts/{title}.
func (s *Server) deleteManuscript(w http.ResponseWriter, r *http.Request) {
	if err := s.manuscripts.Delete(r.Context(), pathParam(r, "title")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyAction handles POST /manuscripts/{title}/actions.
func (s *Server) applyAction(w http.ResponseWriter, r *http.Request) {
	var req applyActionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !workflow.IsValidAction(req.Action) {
		writeError(w, http.StatusBadRequest, "unknown action "+string(req.Action))
		return
	}
	if req.Action.RequiresReferee() && req.Referee == "" {
		writeError(w, http.StatusBadRequest, "referee is required for "+string(req.Action))
		return
	}

	title := pathParam(r, "title")
	t, err := s.manuscripts.UpdateState(r.Context(), title, req.Action, workflow.Args{
		Referee: req.Referee,
		Extra:   req.Extra,
	})
	if err != nil {
		logger := observability.WithCorrelationContext(s.logger, r.Context())
		logger.Debug().Err(err).
			Str("title", title).
			Str("action", string(req.Action)).
			Msg("action rejected")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transitionResponse{
		Action:     t.Action,
		From:       t.From,
		To:         t.To,
		Manuscript: domainManuscriptToResponse(t.Manuscript),
	})
}

// listStates handles GET /workflow/states.
func (s *Server) listStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statesResponse{States: workflow.GetStates()})
}

// listActions handles GET /workflow/actions.
func (s *Server) listActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, actionsResponse{Actions: workflow.GetActions()})
}

// listStateActions handles GET /workflow/states/{state}/actions.
func (s *Server) listStateActions(w http.ResponseWriter, r *http.Request) {
	state := domain.State(pathParam(r, "state"))
	actions, err := workflow.GetValidActionsByState(state)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionsResponse{State: state, Actions: actions})
}
