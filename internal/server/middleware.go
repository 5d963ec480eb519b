package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/swamys/hotfoods/internal/auth"
	"github.com/swamys/hotfoods/internal/model"
)

// authenticate resolves an optional "Authorization: Bearer <token>" header
// into a principal on the request context. Requests without the header pass
// through anonymously; routes that need a caller wrap themselves in
// requireRole.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "invalid authorization scheme")
			return
		}
		p, err := s.resolveToken(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if errors.Is(err, auth.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if err != nil {
			s.logger.Error("resolving session", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// resolveToken maps a bearer token to its principal. The static admin token
// is checked before login sessions.
func (s *Server) resolveToken(ctx context.Context, token string) (*auth.Principal, error) {
	if s.adminToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) == 1 {
		return &auth.Principal{UserID: "admin-token", Role: model.RoleAdmin}, nil
	}
	return s.auth.Authenticate(ctx, token)
}

// requireRole rejects anonymous callers with 401 and, when roles are given,
// callers holding none of them with 403.
func requireRole(h http.HandlerFunc, roles ...model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		if p == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if len(roles) > 0 && !p.HasRole(roles...) {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		h(w, r)
	}
}

// statusRecorder captures the response code for the access log. It forwards
// Flush so status streams still work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// recoverer turns a handler panic into a 500 and logs the stack.
func recoverer(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("panic recovered in HTTP handler",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprintf("%v", v),
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
