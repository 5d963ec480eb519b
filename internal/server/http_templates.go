package server

import (
	"net/http"

	"github.com/swamys/hotfoods/internal/model"
)

// handleListTemplates handles GET /v1/templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.menu.ListTemplates(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*model.TimingTemplate{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateTemplate handles POST /v1/templates.
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl model.TimingTemplate
	if !decodeBody(w, r, &tmpl) {
		return
	}
	created, err := s.menu.CreateTemplate(r.Context(), &tmpl)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetTemplate handles GET /v1/templates/{id}.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.menu.GetTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// handleGetTemplateByKey handles GET /v1/templates/key/{key}.
func (s *Server) handleGetTemplateByKey(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.menu.GetTemplateByKey(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// handleUpdateTemplate handles PUT /v1/templates/{id}.
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var u model.TimingTemplateUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	tmpl, err := s.menu.UpdateTemplate(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// handleDeleteTemplate handles DELETE /v1/templates/{id}. The template is
// deactivated, not removed.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.menu.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
