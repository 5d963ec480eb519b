// Package menu manages menu items and the timing templates they can share,
// and answers which items are being served at a given moment.
package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/swamys/hotfoods/internal/events"
	"github.com/swamys/hotfoods/internal/idgen"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/status"
	"github.com/swamys/hotfoods/internal/store"
)

var (
	ErrNotFound         = errors.New("menu item not found")
	ErrTemplateNotFound = errors.New("timing template not found")
	ErrTemplateKeyTaken = errors.New("timing template key already exists")
)

// Service implements menu and timing template operations.
type Service struct {
	store     store.Store
	publisher events.Publisher
	hours     status.Hours
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithHours sets the reference timezone used to read wall-clock minutes.
func WithHours(h status.Hours) Option {
	return func(s *Service) { s.hours = h }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
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

// New returns a menu service over st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: &events.NoopPublisher{},
		hours:     status.DefaultHours(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// Create validates and stores a new item. A referenced template must exist.
func (s *Service) Create(ctx context.Context, item *model.MenuItem) (*model.MenuItem, error) {
	if err := model.ValidateMenuItem(item); err != nil {
		return nil, err
	}
	if item.TimingTemplate != "" {
		if _, err := s.store.GetTemplateByKey(ctx, item.TimingTemplate); err != nil {
			return nil, notFound(err, ErrTemplateNotFound)
		}
		item.MorningTimings, item.EveningTimings = nil, nil
	}
	id, err := idgen.MenuID()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	item.ID = id
	item.CreatedAt, item.UpdatedAt = now, now

	if err := s.store.CreateMenuItem(ctx, item); err != nil {
		return nil, fmt.Errorf("creating menu item: %w", err)
	}
	s.publish(ctx, events.TopicMenuCreated, events.MenuCreated{Item: item})
	return item, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id string) (*model.MenuItem, error) {
	item, err := s.store.GetMenuItem(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return item, nil
}

// List returns items matching filter ordered by priority then name.
func (s *Service) List(ctx context.Context, filter model.MenuFilter) ([]*model.MenuItem, error) {
	items, err := s.store.ListMenuItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return items, nil
}

// Update applies u to the item with id.
func (s *Service) Update(ctx context.Context, id string, u model.MenuItemUpdate) (*model.MenuItem, error) {
	var item *model.MenuItem
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		cur, err := tx.GetMenuItem(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		u.Apply(cur)
		if err := model.ValidateMenuItem(cur); err != nil {
			return err
		}
		cur.UpdatedAt = s.now().UTC()
		if err := tx.UpdateMenuItem(ctx, cur); err != nil {
			return notFound(err, ErrNotFound)
		}
		item = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicMenuUpdated, events.MenuUpdated{Item: item})
	return item, nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		return notFound(err, ErrNotFound)
	}
	s.publish(ctx, events.TopicMenuDeleted, events.MenuDeleted{MenuID: id})
	return nil
}

// AssignTemplate links one item to the active template key, clearing its
// custom timings.
func (s *Service) AssignTemplate(ctx context.Context, id, key string) (*model.MenuItem, error) {
	if _, err := s.store.GetTemplateByKey(ctx, key); err != nil {
		return nil, notFound(err, ErrTemplateNotFound)
	}
	n, err := s.store.AssignTemplate(ctx, []string{id}, key, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("assigning template: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicMenuUpdated, events.MenuUpdated{Item: item})
	return item, nil
}

// BulkAssignTemplate links every listed item to key and returns how many
// items were changed. Unknown IDs are skipped.
func (s *Service) BulkAssignTemplate(ctx context.Context, ids []string, key string) (int, error) {
	if len(ids) == 0 {
		return 0, &model.ValidationError{Errors: []model.FieldError{{Field: "menuIds", Message: "must not be empty"}}}
	}
	if _, err := s.store.GetTemplateByKey(ctx, key); err != nil {
		return 0, notFound(err, ErrTemplateNotFound)
	}
	n, err := s.store.AssignTemplate(ctx, ids, key, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("assigning template: %w", err)
	}
	s.logger.Info("bulk template assignment", "template", key, "requested", len(ids), "updated", n)
	return n, nil
}

// SetCustomTimings gives an item its own slots and detaches it from any
// template. Passing nil for a slot removes it.
func (s *Service) SetCustomTimings(ctx context.Context, id string, morning, evening *model.TimingSlot) (*model.MenuItem, error) {
	var item *model.MenuItem
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		cur, err := tx.GetMenuItem(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		cur.TimingTemplate = ""
		cur.MorningTimings, cur.EveningTimings = morning, evening
		if err := model.ValidateMenuItem(cur); err != nil {
			return err
		}
		cur.UpdatedAt = s.now().UTC()
		if err := tx.UpdateMenuItem(ctx, cur); err != nil {
			return notFound(err, ErrNotFound)
		}
		item = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicMenuUpdated, events.MenuUpdated{Item: item})
	return item, nil
}

// Available returns items whose effective morning or evening slot contains
// the reference-timezone minute of at. Bounds are inclusive; items with no
// slots are never available.
func (s *Service) Available(ctx context.Context, at time.Time) ([]*model.MenuItem, error) {
	items, err := s.List(ctx, model.MenuFilter{})
	if err != nil {
		return nil, err
	}
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	byKey := make(map[string]*model.TimingTemplate, len(templates))
	for _, t := range templates {
		byKey[t.Key] = t
	}

	_, minute := s.hours.Clock(at)
	var out []*model.MenuItem
	for _, item := range items {
		morning, evening := item.Slots(byKey[item.TimingTemplate])
		if morning.Contains(minute) || evening.Contains(minute) {
			out = append(out, item)
		}
	}
	return out, nil
}

// AvailableNow is Available at the service clock's current time.
func (s *Service) AvailableNow(ctx context.Context) ([]*model.MenuItem, error) {
	return s.Available(ctx, s.now())
}
