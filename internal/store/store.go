package store

import (
	"context"
	"errors"
	"time"

	"github.com/swamys/hotfoods/internal/model"
)

// ErrDuplicate is returned when a write violates a uniqueness constraint
// (template key, username).
var ErrDuplicate = errors.New("duplicate record")

// Store defines the persistence interface for the restaurant backend.
// Lookups of missing records return sql.ErrNoRows.
type Store interface {
	// Store config singleton
	GetStoreConfig(ctx context.Context) (*model.StoreConfig, error)
	// LockStoreConfig reads the singleton and holds a row lock until the
	// enclosing transaction ends. Outside a transaction it behaves like Get.
	LockStoreConfig(ctx context.Context) (*model.StoreConfig, error)
	// CreateStoreConfig inserts cfg unless a row already exists, then returns
	// the stored row.
	CreateStoreConfig(ctx context.Context, cfg *model.StoreConfig) (*model.StoreConfig, error)
	SaveStoreConfig(ctx context.Context, cfg *model.StoreConfig) error

	// Menu
	CreateMenuItem(ctx context.Context, item *model.MenuItem) error
	GetMenuItem(ctx context.Context, id string) (*model.MenuItem, error)
	ListMenuItems(ctx context.Context, filter model.MenuFilter) ([]*model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *model.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
	// AssignTemplate points every listed item at the template key, clearing
	// custom timings. It returns the number of items changed.
	AssignTemplate(ctx context.Context, menuIDs []string, key string, at time.Time) (int, error)

	// Timing templates
	CreateTemplate(ctx context.Context, tmpl *model.TimingTemplate) error
	GetTemplate(ctx context.Context, id string) (*model.TimingTemplate, error)
	// GetTemplateByKey returns the active template with key.
	GetTemplateByKey(ctx context.Context, key string) (*model.TimingTemplate, error)
	// ListTemplates returns active templates ordered by name.
	ListTemplates(ctx context.Context) ([]*model.TimingTemplate, error)
	UpdateTemplate(ctx context.Context, tmpl *model.TimingTemplate) error
	DeactivateTemplate(ctx context.Context, id string, at time.Time) error

	// Users and sessions
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
