// Package sync periodically backs up the menu, timing templates and store
// config as JSONL to S3 and/or a git repository.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/swamys/hotfoods/internal/store"
)

// Destination is a backup target.
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write stores the JSONL payload, replacing the previous backup.
	Write(ctx context.Context, data []byte) error
}

// Scheduler exports on a fixed interval and whenever Trigger is called.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations every interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		trigger:      make(chan struct{}, 1),
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Trigger requests a sync as soon as the current one (if any) ends. Calls
// made while a request is already pending collapse into it. Never blocks.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	_ = s.SyncNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.trigger:
		}
		_ = s.SyncNow(ctx)
	}
}

// SyncNow exports once and writes to every destination. A failing
// destination does not stop the others; their errors are joined.
func (s *Scheduler) SyncNow(ctx context.Context) error {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return err
	}
	data := buf.Bytes()

	var errs []error
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("sync destination write failed", "destination", dest.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", dest.Name(), err))
		}
	}

	s.logger.Info("sync completed", "destinations", len(s.destinations), "failed", len(errs), "bytes", len(data))
	return errors.Join(errs...)
}
