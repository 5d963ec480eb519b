// Package events publishes domain changes to the NATS bus so other server
// instances and external consumers can react to them.
package events

import (
	"context"

	"github.com/swamys/hotfoods/internal/model"
)

// Event topic constants
const (
	TopicStoreConfigUpdated = "hotfoods.store_config.updated"

	TopicMenuCreated = "hotfoods.menu.created"
	TopicMenuUpdated = "hotfoods.menu.updated"
	TopicMenuDeleted = "hotfoods.menu.deleted"

	TopicTemplateCreated = "hotfoods.template.created"
	TopicTemplateUpdated = "hotfoods.template.updated"
	TopicTemplateDeleted = "hotfoods.template.deleted"

	TopicUserRegistered = "hotfoods.user.registered"

	// TopicAll matches every hotfoods subject.
	TopicAll = "hotfoods.>"
)

// StoreConfigUpdated carries the full post-mutation config. Origin is the
// instance that performed the write.
type StoreConfigUpdated struct {
	Origin string             `json:"origin"`
	Config *model.StoreConfig `json:"config"`
}

type MenuCreated struct {
	Item *model.MenuItem `json:"item"`
}

type MenuUpdated struct {
	Item *model.MenuItem `json:"item"`
}

type MenuDeleted struct {
	MenuID string `json:"menu_id"`
}

type TemplateCreated struct {
	Template *model.TimingTemplate `json:"template"`
}

type TemplateUpdated struct {
	Template *model.TimingTemplate `json:"template"`
}

type TemplateDeleted struct {
	TemplateID string `json:"template_id"`
}

type UserRegistered struct {
	UserID   string     `json:"user_id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
