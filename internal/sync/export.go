package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	StoreConfig   bool      `json:"store_config"`
	MenuCount     int       `json:"menu_count"`
	TemplateCount int       `json:"template_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes the store config, every menu item and every active
// timing template as JSONL to w. Items and templates are sorted by ID so
// unchanged data exports byte-for-byte identically apart from the header
// timestamp. Users and sessions are not exported.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	cfg, err := s.GetStoreConfig(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get store config: %w", err)
	}

	items, err := s.ListMenuItems(ctx, model.MenuFilter{})
	if err != nil {
		return fmt.Errorf("list menu items: %w", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		StoreConfig:   cfg != nil,
		MenuCount:     len(items),
		TemplateCount: len(templates),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	if cfg != nil {
		if err := enc.Encode(record{Type: "store_config", Data: cfg}); err != nil {
			return fmt.Errorf("encode store config: %w", err)
		}
	}
	for _, item := range items {
		if err := enc.Encode(record{Type: "menu_item", Data: item}); err != nil {
			return fmt.Errorf("encode menu item %s: %w", item.ID, err)
		}
	}
	for _, t := range templates {
		if err := enc.Encode(record{Type: "timing_template", Data: t}); err != nil {
			return fmt.Errorf("encode template %s: %w", t.ID, err)
		}
	}
	return nil
}
