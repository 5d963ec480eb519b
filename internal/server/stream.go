package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/swamys/hotfoods/internal/model"
)

// stream is the per-connection side of a status subscription. Notifications
// land in a one-slot mailbox that keeps only the latest config, so a slow
// connection never stalls the registry and never falls behind by more than
// one state.
type stream struct {
	mailbox chan *model.StoreConfig
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newStream(cancel context.CancelFunc) *stream {
	return &stream{
		mailbox: make(chan *model.StoreConfig, 1),
		cancel:  cancel,
	}
}

// offer is the registry handler. It replaces any config not yet delivered.
// A stream closed by Shutdown but not yet unsubscribed drops the config
// quietly; that is not a delivery failure.
func (st *stream) offer(cfg *model.StoreConfig) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return nil
	}
	select {
	case <-st.mailbox:
	default:
	}
	st.mailbox <- cfg
	return nil
}

// close ends the delivery loop. Safe to call more than once.
func (st *stream) close() {
	st.mu.Lock()
	st.closed = true
	st.mu.Unlock()
	st.cancel()
}

// handleStoreConfigStream handles GET /v1/store-config/stream. It pushes the
// current status on connect, again after every committed change, and a
// keepalive comment after each silent interval.
func (s *Server) handleStoreConfigStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	st := newStream(cancel)
	if !s.track(st) {
		cancel()
		writeError(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}
	// Subscribe before the initial read so no change between the two is lost.
	sub := s.registry.Subscribe(st.offer)
	defer func() {
		sub.Cancel()
		st.close()
		s.untrack(st)
	}()

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		s.logger.Error("loading store config for stream", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)

	if err := s.writeStatus(w, flusher, cfg); err != nil {
		s.logger.Debug("status stream write failed", "err", err)
		return
	}

	keepalive := time.NewTimer(s.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-st.mailbox:
			// The message depends on the wall clock, so it is rebuilt at
			// delivery time rather than when the change was published.
			if err := s.writeStatus(w, flusher, cfg); err != nil {
				s.logger.Debug("status stream write failed", "err", err)
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ":keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
		keepalive.Reset(s.keepalive)
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, flusher http.Flusher, cfg *model.StoreConfig) error {
	data, err := json.Marshal(s.configs.Status(cfg))
	if err != nil {
		return fmt.Errorf("marshaling status: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data:%s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
