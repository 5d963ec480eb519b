package server

import (
	"net/http"
	"strings"

	"github.com/swamys/hotfoods/internal/auth"
	"github.com/swamys/hotfoods/internal/model"
)

// handleRegister handles POST /v1/auth/register. Anyone may sign up as a
// user; granting staff or admin takes an admin caller.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Role.IsValid() && req.Role != model.RoleUser && !auth.FromContext(r.Context()).HasRole(model.RoleAdmin) {
		writeError(w, http.StatusForbidden, "only an admin can register a "+string(req.Role)+" account")
		return
	}
	user, err := s.auth.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// handleLogin handles POST /v1/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	sess, user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, User: user})
}

// handleLogout handles POST /v1/auth/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.auth.Logout(r.Context(), token); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWhoAmI handles GET /v1/auth/me.
func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.FromContext(r.Context()))
}
