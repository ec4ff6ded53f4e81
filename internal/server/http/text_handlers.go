package httpserver

import (
	"net/http"

	"github.com/helixir/journal-service/internal/domain"
)

type createTextRequest struct {
	Key   string `json:"key" validate:"required,max=100"`
	Title string `json:"title" validate:"max=200"`
	Text  string `json:"text"`
}

type updateTextRequest struct {
	Title *string `json:"title" validate:"omitempty,max=200"`
	Text  *string `json:"text"`
}

func (s *Server) listTexts(w http.ResponseWriter, r *http.Request) {
	texts, err := s.texts.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]textResponse, len(texts))
	for i, t := range texts {
		out[i] = domainTextToResponse(t)
	}
	writeJSON(w, http.StatusOK, listTextsResponse{Texts: out})
}

func (s *Server) createText(w http.ResponseWriter, r *http.Request) {
	var req createTextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	t := &domain.Text{Key: req.Key, Title: req.Title, Text: req.Text}
	if err := s.texts.Create(r.Context(), t); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domainTextToResponse(t))
}

func (s *Server) getText(w http.ResponseWriter, r *http.Request) {
	t, err := s.texts.Get(r.Context(), pathParam(r, "key"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainTextToResponse(t))
}

// getTextHTML handles GET /texts/{key}/html, rendering the markdown body.
func (s *Server) getTextHTML(w http.ResponseWriter, r *http.Request) {
	t, err := s.texts.Get(r.Context(), pathParam(r, "key"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	page := s.renderer.RenderText(t)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page.HTML))
}

func (s *Server) updateText(w http.ResponseWriter, r *http.Request) {
	var req updateTextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	t, err := s.texts.Update(r.Context(), pathParam(r, "key"), domain.TextPatch{Title: req.Title, Text: req.Text})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domainTextToResponse(t))
}

func (s *Server) deleteText(w http.ResponseWriter, r *http.Request) {
	if err := s.texts.Delete(r.Context(), pathParam(r, "key")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
