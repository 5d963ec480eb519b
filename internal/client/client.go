// Package client provides a transport-agnostic interface for the hotfoods
// service, an HTTP/JSON implementation that talks to its REST API and a gRPC
// implementation of the store status calls.
package client

import (
	"context"
	"time"

	"github.com/swamys/hotfoods/internal/model"
)

// StatusClient reads, updates and watches the store status. Both transports
// implement it.
type StatusClient interface {
	GetStoreConfig(ctx context.Context) (*model.StatusPayload, error)
	UpdateStoreConfig(ctx context.Context, u model.StoreConfigUpdate) (*model.StatusPayload, error)
	// WatchStoreStatus calls fn with every status pushed by the server until
	// ctx is done, the stream ends or fn returns an error.
	WatchStoreStatus(ctx context.Context, fn func(*model.StatusPayload) error) error

	Close() error
}

// Client is the interface the hf CLI commands use to talk to the server.
type Client interface {
	StatusClient

	// Menu
	ListMenu(ctx context.Context, req *ListMenuRequest) ([]*model.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*model.MenuItem, error)
	AvailableMenu(ctx context.Context, at time.Time) ([]*model.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *model.MenuItem) (*model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id string, u model.MenuItemUpdate) (*model.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error

	// Timing templates
	ListTemplates(ctx context.Context) ([]*model.TimingTemplate, error)
	CreateTemplate(ctx context.Context, tmpl *model.TimingTemplate) (*model.TimingTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
	AssignTemplate(ctx context.Context, menuIDs []string, key string) (int, error)

	// Auth
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Logout(ctx context.Context) error

	// Health
	Health(ctx context.Context) (string, error)
}

// ListMenuRequest holds the optional menu list filters.
type ListMenuRequest struct {
	Slot       string
	Ingredient string
	Limit      int
	Offset     int
}

// LoginResponse is the body returned by POST /v1/auth/login.
type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}
