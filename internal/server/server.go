// Package server exposes the store config, menu, timing template and auth
// operations over HTTP, streams store status to browsers with server-sent
// events, and serves gRPC health checks.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/swamys/hotfoods/internal/auth"
	"github.com/swamys/hotfoods/internal/broadcast"
	"github.com/swamys/hotfoods/internal/menu"
	"github.com/swamys/hotfoods/internal/storeconfig"
)

// DefaultKeepaliveInterval is how long a status stream may stay silent before
// a keepalive comment is written.
const DefaultKeepaliveInterval = 30 * time.Second

// Server holds the services behind the HTTP API and tracks open status
// streams so Shutdown can end them.
type Server struct {
	configs  *storeconfig.Service
	registry *broadcast.Registry
	menu     *menu.Service
	auth     *auth.Service

	adminToken string
	keepalive  time.Duration
	metrics    http.Handler
	logger     *slog.Logger

	mu      sync.Mutex
	closing bool
	streams map[*stream]struct{}
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithAdminToken accepts token as a bearer credential with the admin role,
// alongside login sessions. Empty disables it.
func WithAdminToken(token string) Option {
	return func(s *Server) { s.adminToken = token }
}

// WithKeepalive sets the silence interval after which streams write a
// keepalive comment.
func WithKeepalive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepalive = d
		}
	}
}

// WithMetricsHandler serves h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Server. registry must be the one configs publishes to.
func New(configs *storeconfig.Service, registry *broadcast.Registry, menuSvc *menu.Service, authSvc *auth.Service, opts ...Option) *Server {
	s := &Server{
		configs:   configs,
		registry:  registry,
		menu:      menuSvc,
		auth:      authSvc,
		keepalive: DefaultKeepaliveInterval,
		logger:    slog.Default(),
		streams:   make(map[*stream]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// track registers a stream. It reports false once Shutdown has begun.
func (s *Server) track(st *stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.streams[st] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(st *stream) {
	s.mu.Lock()
	_, ok := s.streams[st]
	delete(s.streams, st)
	s.mu.Unlock()
	if ok {
		s.wg.Done()
	}
}

// OpenStreams returns the number of connected status streams.
func (s *Server) OpenStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// Shutdown refuses new streams, ends open ones and waits for their delivery
// loops to return or ctx to expire. http.Server.Shutdown does not wait for
// hijacked or long-lived responses, so call this first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	for st := range s.streams {
		st.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
