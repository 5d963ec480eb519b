// Package memory implements store.Store in process memory. It backs tests
// and `hf serve --memory`; nothing survives a restart.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/store"
)

// Store is an in-memory store.Store. Returned records are copies.
type Store struct {
	mu        sync.Mutex
	config    *model.StoreConfig
	menu      map[string]*model.MenuItem
	templates map[string]*model.TimingTemplate
	users     map[string]*model.User
	sessions  map[string]*model.Session
	failures  map[string]error

	// txMu serializes transactions.
	txMu sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		menu:      make(map[string]*model.MenuItem),
		templates: make(map[string]*model.TimingTemplate),
		users:     make(map[string]*model.User),
		sessions:  make(map[string]*model.Session),
		failures:  make(map[string]error),
	}
}

// FailOn makes every later call of the named method return err. A nil err
// clears the failure.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) fail(method string) error {
	return s.failures[method]
}

func cloneSlot(t *model.TimingSlot) *model.TimingSlot {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneMenuItem(m *model.MenuItem) *model.MenuItem {
	c := *m
	c.MorningTimings = cloneSlot(m.MorningTimings)
	c.EveningTimings = cloneSlot(m.EveningTimings)
	return &c
}

func cloneTemplate(t *model.TimingTemplate) *model.TimingTemplate {
	c := *t
	c.MorningTimings = cloneSlot(t.MorningTimings)
	c.EveningTimings = cloneSlot(t.EveningTimings)
	return &c
}

// Store config

func (s *Store) GetStoreConfig(_ context.Context) (*model.StoreConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetStoreConfig"); err != nil {
		return nil, err
	}
	if s.config == nil {
		return nil, sql.ErrNoRows
	}
	return s.config.Clone(), nil
}

func (s *Store) LockStoreConfig(ctx context.Context) (*model.StoreConfig, error) {
	return s.GetStoreConfig(ctx)
}

func (s *Store) CreateStoreConfig(_ context.Context, cfg *model.StoreConfig) (*model.StoreConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateStoreConfig"); err != nil {
		return nil, err
	}
	if s.config == nil {
		s.config = cfg.Clone()
	}
	return s.config.Clone(), nil
}

func (s *Store) SaveStoreConfig(_ context.Context, cfg *model.StoreConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SaveStoreConfig"); err != nil {
		return err
	}
	if s.config == nil {
		return sql.ErrNoRows
	}
	created := s.config.CreatedAt
	s.config = cfg.Clone()
	s.config.CreatedAt = created
	return nil
}

// Menu

func (s *Store) CreateMenuItem(_ context.Context, item *model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateMenuItem"); err != nil {
		return err
	}
	if _, ok := s.menu[item.ID]; ok {
		return fmt.Errorf("%w: menu item %s", store.ErrDuplicate, item.ID)
	}
	s.menu[item.ID] = cloneMenuItem(item)
	return nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menu[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneMenuItem(m), nil
}

func (s *Store) activeTemplate(key string) *model.TimingTemplate {
	for _, t := range s.templates {
		if t.Key == key && t.IsActive {
			return t
		}
	}
	return nil
}

func (s *Store) ListMenuItems(_ context.Context, filter model.MenuFilter) ([]*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListMenuItems"); err != nil {
		return nil, err
	}
	needle := strings.ToLower(filter.Ingredient)
	var out []*model.MenuItem
	for _, m := range s.menu {
		if needle != "" && !strings.Contains(strings.ToLower(m.Ingredients), needle) {
			continue
		}
		if filter.Slot.IsValid() {
			morning, evening := m.Slots(s.activeTemplate(m.TimingTemplate))
			if filter.Slot == model.SlotMorning && morning == nil {
				continue
			}
			if filter.Slot == model.SlotEvening && evening == nil {
				continue
			}
		}
		out = append(out, cloneMenuItem(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) UpdateMenuItem(_ context.Context, item *model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateMenuItem"); err != nil {
		return err
	}
	if _, ok := s.menu[item.ID]; !ok {
		return sql.ErrNoRows
	}
	s.menu[item.ID] = cloneMenuItem(item)
	return nil
}

func (s *Store) DeleteMenuItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menu[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.menu, id)
	return nil
}

func (s *Store) AssignTemplate(_ context.Context, menuIDs []string, key string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range menuIDs {
		m, ok := s.menu[id]
		if !ok {
			continue
		}
		m.TimingTemplate = key
		m.MorningTimings, m.EveningTimings = nil, nil
		m.UpdatedAt = at
		n++
	}
	return n, nil
}

// Timing templates

func (s *Store) CreateTemplate(_ context.Context, tmpl *model.TimingTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.templates {
		if t.Key == tmpl.Key {
			return fmt.Errorf("%w: template key %s", store.ErrDuplicate, tmpl.Key)
		}
	}
	s.templates[tmpl.ID] = cloneTemplate(tmpl)
	return nil
}

func (s *Store) GetTemplate(_ context.Context, id string) (*model.TimingTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneTemplate(t), nil
}

func (s *Store) GetTemplateByKey(_ context.Context, key string) (*model.TimingTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.activeTemplate(key)
	if t == nil {
		return nil, sql.ErrNoRows
	}
	return cloneTemplate(t), nil
}

func (s *Store) ListTemplates(_ context.Context) ([]*model.TimingTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.TimingTemplate
	for _, t := range s.templates {
		if t.IsActive {
			out = append(out, cloneTemplate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateTemplate(_ context.Context, tmpl *model.TimingTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[tmpl.ID]; !ok {
		return sql.ErrNoRows
	}
	for id, t := range s.templates {
		if id != tmpl.ID && t.Key == tmpl.Key {
			return fmt.Errorf("%w: template key %s", store.ErrDuplicate, tmpl.Key)
		}
	}
	s.templates[tmpl.ID] = cloneTemplate(tmpl)
	return nil
}

func (s *Store) DeactivateTemplate(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok || !t.IsActive {
		return sql.ErrNoRows
	}
	t.IsActive = false
	t.UpdatedAt = at
	return nil
}

// Users and sessions

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: username %s", store.ErrDuplicate, user.Username)
		}
	}
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *u
	return &c, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) CreateSession(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sess
	s.sessions[sess.Token] = &c
	return nil
}

func (s *Store) GetSession(_ context.Context, token string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *sess
	return &c, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return sql.ErrNoRows
	}
	delete(s.sessions, token)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for tok, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, tok)
			n++
		}
	}
	return n, nil
}

// RunInTransaction runs fn with exclusive access among transactions. If fn
// fails, every change it made is discarded.
func (s *Store) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	config    *model.StoreConfig
	menu      map[string]*model.MenuItem
	templates map[string]*model.TimingTemplate
	users     map[string]*model.User
	sessions  map[string]*model.Session
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		config:    s.config.Clone(),
		menu:      make(map[string]*model.MenuItem, len(s.menu)),
		templates: make(map[string]*model.TimingTemplate, len(s.templates)),
		users:     maps.Clone(s.users),
		sessions:  maps.Clone(s.sessions),
	}
	for id, m := range s.menu {
		snap.menu[id] = cloneMenuItem(m)
	}
	for id, t := range s.templates {
		snap.templates[id] = cloneTemplate(t)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = snap.config
	s.menu = snap.menu
	s.templates = snap.templates
	s.users = snap.users
	s.sessions = snap.sessions
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

