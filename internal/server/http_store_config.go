package server

import (
	"net/http"

	"github.com/swamys/hotfoods/internal/model"
)

// handleGetStoreConfig handles GET /v1/store-config.
func (s *Server) handleGetStoreConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.Get(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.configs.Status(cfg))
}

// handleUpdateStoreConfig handles PUT /v1/store-config. Only fields present
// in the body change.
func (s *Server) handleUpdateStoreConfig(w http.ResponseWriter, r *http.Request) {
	var u model.StoreConfigUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	cfg, err := s.configs.Update(r.Context(), u)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.configs.Status(cfg))
}
