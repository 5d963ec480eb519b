// Package storeconfig owns the store config singleton: it reads and lazily
// creates it, applies partial updates under the open/cooking exclusion rule,
// and announces every committed change.
package storeconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/swamys/hotfoods/internal/events"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/status"
	"github.com/swamys/hotfoods/internal/store"
	"github.com/swamys/hotfoods/internal/telemetry"
)

// ErrConflictingFlags rejects an update that opens the shop and starts
// cooking in the same call.
var ErrConflictingFlags = errors.New("isShopOpen and isCooking cannot both be set to true")

// Broadcaster fans a committed config out to local subscribers.
type Broadcaster interface {
	Publish(cfg *model.StoreConfig) int
}

// Service mediates all reads and writes of the store config.
type Service struct {
	store     store.Store
	local     Broadcaster
	publisher events.Publisher
	origin    string
	hours     status.Hours
	now       func() time.Time
	collector telemetry.Collector
	logger    *slog.Logger

	// mu serializes mutations within the process; the row lock taken in
	// Update serializes them across instances.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher emits every committed change on the event bus, tagged with
// origin so this instance can ignore its own echoes.
func WithPublisher(p events.Publisher, origin string) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
			s.origin = origin
		}
	}
}

// WithHours sets the opening hours used for status messages.
func WithHours(h status.Hours) Option {
	return func(s *Service) { s.hours = h }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithCollector(c telemetry.Collector) Option {
	return func(s *Service) {
		if c != nil {
			s.collector = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a service over st that announces changes to local.
func New(st store.Store, local Broadcaster, opts ...Option) *Service {
	s := &Service{
		store:     st,
		local:     local,
		publisher: &events.NoopPublisher{},
		hours:     status.DefaultHours(),
		now:       time.Now,
		collector: telemetry.Noop(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current config, creating the default one if none exists.
func (s *Service) Get(ctx context.Context) (*model.StoreConfig, error) {
	cfg, err := s.store.GetStoreConfig(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		cfg, err = s.create(ctx, s.store)
	}
	if err != nil {
		return nil, fmt.Errorf("getting store config: %w", err)
	}
	return cfg, nil
}

func (s *Service) create(ctx context.Context, st store.Store) (*model.StoreConfig, error) {
	cfg := model.DefaultStoreConfig()
	now := s.now().UTC()
	cfg.CreatedAt, cfg.UpdatedAt = now, now
	created, err := st.CreateStoreConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating default store config: %w", err)
	}
	s.logger.Info("created default store config")
	return created, nil
}

// Resolve applies the open/cooking exclusion rule to u against the
// pre-update config cur and returns the adjusted update. Opening the shop
// while cooking stops cooking; starting to cook while open closes the shop.
func Resolve(cur *model.StoreConfig, u model.StoreConfigUpdate) (model.StoreConfigUpdate, error) {
	opening := u.IsShopOpen != nil && *u.IsShopOpen
	cooking := u.IsCooking != nil && *u.IsCooking
	if opening && cooking {
		return u, ErrConflictingFlags
	}
	if opening && cur.IsCooking {
		u.IsCooking = model.Bool(false)
	}
	if cooking && cur.IsShopOpen {
		u.IsShopOpen = model.Bool(false)
	}
	return u, nil
}

// Update merges u onto the stored config and persists it. Only after the
// write commits is the new config published locally and, best effort, on
// the event bus.
func (s *Service) Update(ctx context.Context, u model.StoreConfigUpdate) (*model.StoreConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *model.StoreConfig
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		cur, err := tx.LockStoreConfig(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err = s.create(ctx, tx); err != nil {
				return err
			}
			cur, err = tx.LockStoreConfig(ctx)
		}
		if err != nil {
			return fmt.Errorf("reading store config: %w", err)
		}

		adjusted, err := Resolve(cur, u)
		if err != nil {
			return err
		}
		next = cur.Clone()
		adjusted.Apply(next)
		next.UpdatedAt = nextStamp(cur.UpdatedAt, s.now())
		if err := tx.SaveStoreConfig(ctx, next); err != nil {
			return fmt.Errorf("saving store config: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.collector.IncStoreConfigUpdate()
	s.logger.Info("store config updated",
		"is_shop_open", next.IsShopOpen,
		"is_cooking", next.IsCooking,
		"is_holiday", next.IsHoliday,
		"is_notice_active", next.IsNoticeActive,
	)

	if failed := s.local.Publish(next); failed > 0 {
		s.logger.Debug("store config broadcast had failures", "failed", failed)
	}
	evt := events.StoreConfigUpdated{Origin: s.origin, Config: next}
	if err := s.publisher.Publish(ctx, events.TopicStoreConfigUpdated, evt); err != nil {
		s.logger.Warn("failed to publish event", "topic", events.TopicStoreConfigUpdated, "err", err)
	}
	return next, nil
}

// nextStamp returns now in UTC, nudged past prev so updatedAt strictly
// increases even if the wall clock steps back.
func nextStamp(prev, now time.Time) time.Time {
	now = now.UTC()
	if !now.After(prev) {
		return prev.Add(time.Microsecond).UTC()
	}
	return now
}

// Status pairs cfg with its status message at the current time.
func (s *Service) Status(cfg *model.StoreConfig) model.StatusPayload {
	return model.StatusPayload{
		StoreConfig:      cfg,
		CurrentStatusMsg: s.hours.Message(cfg, s.now()),
	}
}
