package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/swamys/hotfoods/internal/model"
)

const invalidSlotMessage = "Invalid slot. Use 'morning' or 'evening'"

// handleListMenu handles GET /v1/menu with optional slot, ingredient, limit
// and offset query parameters.
func (s *Server) handleListMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.MenuFilter{Ingredient: q.Get("ingredient")}
	if v := q.Get("slot"); v != "" {
		filter.Slot = model.Slot(v)
		if !filter.Slot.IsValid() {
			writeError(w, http.StatusBadRequest, invalidSlotMessage)
			return
		}
	}
	var ok bool
	if filter.Limit, ok = queryInt(w, r, "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(w, r, "offset"); !ok {
		return
	}
	s.writeMenu(w, r, filter)
}

// handleMenuBySlot handles GET /v1/menu/slot/{slot}.
func (s *Server) handleMenuBySlot(w http.ResponseWriter, r *http.Request) {
	slot := model.Slot(r.PathValue("slot"))
	if !slot.IsValid() {
		writeError(w, http.StatusBadRequest, invalidSlotMessage)
		return
	}
	s.writeMenu(w, r, model.MenuFilter{Slot: slot})
}

// handleMenuByIngredient handles GET /v1/menu/ingredient/{ingredient}.
func (s *Server) handleMenuByIngredient(w http.ResponseWriter, r *http.Request) {
	s.writeMenu(w, r, model.MenuFilter{Ingredient: r.PathValue("ingredient")})
}

func (s *Server) writeMenu(w http.ResponseWriter, r *http.Request, filter model.MenuFilter) {
	items, err := s.menu.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*model.MenuItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// handleAvailableMenu handles GET /v1/menu/available?at=<RFC3339>. Without
// "at" the current time is used.
func (s *Server) handleAvailableMenu(w http.ResponseWriter, r *http.Request) {
	var (
		items []*model.MenuItem
		err   error
	)
	if v := r.URL.Query().Get("at"); v != "" {
		at, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "at must be an RFC 3339 timestamp")
			return
		}
		items, err = s.menu.Available(r.Context(), at)
	} else {
		items, err = s.menu.AvailableNow(r.Context())
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*model.MenuItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// handleCreateMenuItem handles POST /v1/menu.
func (s *Server) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var item model.MenuItem
	if !decodeBody(w, r, &item) {
		return
	}
	created, err := s.menu.Create(r.Context(), &item)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetMenuItem handles GET /v1/menu/{id}.
func (s *Server) handleGetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.menu.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleUpdateMenuItem handles PUT /v1/menu/{id}.
func (s *Server) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var u model.MenuItemUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	item, err := s.menu.Update(r.Context(), r.PathValue("id"), u)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleDeleteMenuItem handles DELETE /v1/menu/{id}.
func (s *Server) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := s.menu.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignTemplateRequest struct {
	MenuIDs     []string `json:"menuIds,omitempty"`
	TemplateKey string   `json:"templateKey"`
}

// handleAssignTemplate handles POST /v1/menu/{id}/template.
func (s *Server) handleAssignTemplate(w http.ResponseWriter, r *http.Request) {
	var req assignTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TemplateKey == "" {
		writeError(w, http.StatusBadRequest, "templateKey is required")
		return
	}
	item, err := s.menu.AssignTemplate(r.Context(), r.PathValue("id"), req.TemplateKey)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleBulkAssignTemplate handles POST /v1/menu/template.
func (s *Server) handleBulkAssignTemplate(w http.ResponseWriter, r *http.Request) {
	var req assignTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TemplateKey == "" {
		writeError(w, http.StatusBadRequest, "templateKey is required")
		return
	}
	n, err := s.menu.BulkAssignTemplate(r.Context(), req.MenuIDs, req.TemplateKey)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Updated " + strconv.Itoa(n) + " items",
		"count":   n,
	})
}

type customTimingsRequest struct {
	MorningTimings *model.TimingSlot `json:"morningTimings"`
	EveningTimings *model.TimingSlot `json:"eveningTimings"`
}

// handleSetCustomTimings handles PUT /v1/menu/{id}/timings.
func (s *Server) handleSetCustomTimings(w http.ResponseWriter, r *http.Request) {
	var req customTimingsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := s.menu.SetCustomTimings(r.Context(), r.PathValue("id"), req.MorningTimings, req.EveningTimings)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// queryInt parses a non-negative integer query parameter. Absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
