package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/swamys/hotfoods/internal/events"
	"github.com/swamys/hotfoods/internal/idgen"
	"github.com/swamys/hotfoods/internal/model"
	"github.com/swamys/hotfoods/internal/store"
)

func templateWriteErr(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return ErrTemplateKeyTaken
	}
	return notFound(err, ErrTemplateNotFound)
}

// CreateTemplate validates and stores a new active template.
func (s *Service) CreateTemplate(ctx context.Context, tmpl *model.TimingTemplate) (*model.TimingTemplate, error) {
	if err := model.ValidateTimingTemplate(tmpl); err != nil {
		return nil, err
	}
	id, err := idgen.TemplateID()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	tmpl.ID = id
	tmpl.IsActive = true
	tmpl.CreatedAt, tmpl.UpdatedAt = now, now

	if err := s.store.CreateTemplate(ctx, tmpl); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrTemplateKeyTaken
		}
		return nil, fmt.Errorf("creating template: %w", err)
	}
	s.publish(ctx, events.TopicTemplateCreated, events.TemplateCreated{Template: tmpl})
	return tmpl, nil
}

// ListTemplates returns active templates ordered by name.
func (s *Service) ListTemplates(ctx context.Context) ([]*model.TimingTemplate, error) {
	out, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return out, nil
}

// GetTemplate returns a template by ID, active or not.
func (s *Service) GetTemplate(ctx context.Context, id string) (*model.TimingTemplate, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTemplateNotFound)
	}
	return t, nil
}

// GetTemplateByKey returns the active template with key.
func (s *Service) GetTemplateByKey(ctx context.Context, key string) (*model.TimingTemplate, error) {
	t, err := s.store.GetTemplateByKey(ctx, key)
	if err != nil {
		return nil, notFound(err, ErrTemplateNotFound)
	}
	return t, nil
}

// UpdateTemplate applies u to the template with id.
func (s *Service) UpdateTemplate(ctx context.Context, id string, u model.TimingTemplateUpdate) (*model.TimingTemplate, error) {
	var tmpl *model.TimingTemplate
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		cur, err := tx.GetTemplate(ctx, id)
		if err != nil {
			return notFound(err, ErrTemplateNotFound)
		}
		u.Apply(cur)
		if err := model.ValidateTimingTemplate(cur); err != nil {
			return err
		}
		cur.UpdatedAt = s.now().UTC()
		if err := tx.UpdateTemplate(ctx, cur); err != nil {
			return templateWriteErr(err)
		}
		tmpl = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicTemplateUpdated, events.TemplateUpdated{Template: tmpl})
	return tmpl, nil
}

// DeleteTemplate deactivates a template. Items that reference it stop being
// available until they are reassigned.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.store.DeactivateTemplate(ctx, id, s.now().UTC()); err != nil {
		return notFound(err, ErrTemplateNotFound)
	}
	s.publish(ctx, events.TopicTemplateDeleted, events.TemplateDeleted{TemplateID: id})
	return nil
}
