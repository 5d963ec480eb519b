package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swamys/hotfoods/internal/auth"
	"github.com/swamys/hotfoods/internal/menu"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/store"
	"github.com/swamys/hotfoods/internal/storeconfig"
)

// NewHTTPHandler returns an http.Handler with all routes registered, wrapped
// in panic recovery, access logging and bearer token resolution.
func (s *Server) NewHTTPHandler() http.Handler {
	admin := model.RoleAdmin

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.HandleFunc("GET /v1/store-config", s.handleGetStoreConfig)
	mux.HandleFunc("PUT /v1/store-config", requireRole(s.handleUpdateStoreConfig, admin))
	mux.HandleFunc("GET /v1/store-config/stream", s.handleStoreConfigStream)
	mux.HandleFunc("GET /v1/store-config/sse", s.handleStoreConfigStream)

	mux.HandleFunc("GET /v1/menu", s.handleListMenu)
	mux.HandleFunc("POST /v1/menu", requireRole(s.handleCreateMenuItem))
	mux.HandleFunc("GET /v1/menu/available", s.handleAvailableMenu)
	mux.HandleFunc("GET /v1/menu/slot/{slot}", s.handleMenuBySlot)
	mux.HandleFunc("GET /v1/menu/ingredient/{ingredient}", s.handleMenuByIngredient)
	mux.HandleFunc("POST /v1/menu/template", requireRole(s.handleBulkAssignTemplate, admin))
	mux.HandleFunc("GET /v1/menu/{id}", s.handleGetMenuItem)
	mux.HandleFunc("PUT /v1/menu/{id}", requireRole(s.handleUpdateMenuItem))
	mux.HandleFunc("DELETE /v1/menu/{id}", requireRole(s.handleDeleteMenuItem))
	mux.HandleFunc("POST /v1/menu/{id}/template", requireRole(s.handleAssignTemplate, admin))
	mux.HandleFunc("PUT /v1/menu/{id}/timings", requireRole(s.handleSetCustomTimings))

	mux.HandleFunc("GET /v1/templates", requireRole(s.handleListTemplates, admin))
	mux.HandleFunc("POST /v1/templates", requireRole(s.handleCreateTemplate, admin))
	mux.HandleFunc("GET /v1/templates/key/{key}", requireRole(s.handleGetTemplateByKey, admin))
	mux.HandleFunc("GET /v1/templates/{id}", requireRole(s.handleGetTemplate, admin))
	mux.HandleFunc("PUT /v1/templates/{id}", requireRole(s.handleUpdateTemplate, admin))
	mux.HandleFunc("DELETE /v1/templates/{id}", requireRole(s.handleDeleteTemplate, admin))

	mux.HandleFunc("POST /v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /v1/auth/logout", requireRole(s.handleLogout))
	mux.HandleFunc("GET /v1/auth/me", requireRole(s.handleWhoAmI))

	return recoverer(s.logger, requestLogger(s.logger, s.authenticate(mux)))
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody decodes the JSON request body into dst, writing a 400 on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps a service error onto a status code. Anything
// unrecognised is logged and reported as a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, storeconfig.ErrConflictingFlags):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, menu.ErrNotFound):
		writeError(w, http.StatusNotFound, "Menu not found")
	case errors.Is(err, menu.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "Timing template not found")
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, menu.ErrTemplateKeyTaken),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
