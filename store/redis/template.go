package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
	"github.com/gridhook/gridhook/template"
)

// templateModel is the JSON representation stored in Redis.
type templateModel struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Channel   string    `json:"channel,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Variables []string  `json:"variables,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTemplateModel(tpl *template.Template) *templateModel {
	return &templateModel{
		ID:        tpl.ID.String(),
		OwnerID:   tpl.OwnerID,
		Name:      tpl.Name,
		Channel:   tpl.Channel,
		Subject:   tpl.Subject,
		Body:      tpl.Body,
		Variables: tpl.Variables,
		CreatedAt: tpl.CreatedAt,
		UpdatedAt: tpl.UpdatedAt,
	}
}

func fromTemplateModel(m *templateModel) (*template.Template, error) {
	tplID, err := id.ParseTemplateID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse template ID %q: %w", m.ID, err)
	}
	return &template.Template{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        tplID,
		OwnerID:   m.OwnerID,
		Name:      m.Name,
		Channel:   m.Channel,
		Subject:   m.Subject,
		Body:      m.Body,
		Variables: m.Variables,
	}, nil
}

func (s *Store) CreateTemplate(ctx context.Context, tpl *template.Template) error {
	m := toTemplateModel(tpl)

	// Claim the per-owner name first so duplicate names lose the race.
	claimed, err := s.rdb.SetNX(ctx, templateNameKey(m.OwnerID, m.Name), m.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("gridhook/redis: create template name claim: %w", err)
	}
	if !claimed {
		return gridhook.ErrDuplicateTemplateName
	}

	if err := s.setEntity(ctx, entityKey(prefixTemplate, m.ID), m); err != nil {
		return fmt.Errorf("gridhook/redis: create template: %w", err)
	}
	if err := s.rdb.ZAdd(ctx, zTemplateOwner+m.OwnerID, goredis.Z{
		Score: scoreFromTime(m.CreatedAt), Member: m.ID,
	}).Err(); err != nil {
		return fmt.Errorf("gridhook/redis: create template index: %w", err)
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, tplID id.ID) (*template.Template, error) {
	var m templateModel
	if err := s.getEntity(ctx, entityKey(prefixTemplate, tplID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, gridhook.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("gridhook/redis: get template: %w", err)
	}
	return fromTemplateModel(&m)
}

func (s *Store) GetTemplateByName(ctx context.Context, ownerID, name string) (*template.Template, error) {
	tplID, err := s.rdb.Get(ctx, templateNameKey(ownerID, name)).Result()
	if err != nil {
		if isRedisNil(err) {
			return nil, gridhook.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("gridhook/redis: get template by name: %w", err)
	}

	var m templateModel
	if err := s.getEntity(ctx, entityKey(prefixTemplate, tplID), &m); err != nil {
		if isRedisNil(err) {
			return nil, gridhook.ErrTemplateNotFound
		}
		return nil, err
	}
	return fromTemplateModel(&m)
}

func (s *Store) UpdateTemplate(ctx context.Context, tpl *template.Template) error {
	key := entityKey(prefixTemplate, tpl.ID.String())

	var prev templateModel
	if err := s.getEntity(ctx, key, &prev); err != nil {
		if isRedisNil(err) {
			return gridhook.ErrTemplateNotFound
		}
		return fmt.Errorf("gridhook/redis: update template: %w", err)
	}

	// Renames move the unique name claim.
	if prev.Name != tpl.Name {
		claimed, err := s.rdb.SetNX(ctx, templateNameKey(tpl.OwnerID, tpl.Name), tpl.ID.String(), 0).Result()
		if err != nil {
			return fmt.Errorf("gridhook/redis: update template name claim: %w", err)
		}
		if !claimed {
			return gridhook.ErrDuplicateTemplateName
		}
		s.rdb.Del(ctx, templateNameKey(prev.OwnerID, prev.Name))
	}

	tpl.UpdatedAt = now()
	return s.setEntity(ctx, key, toTemplateModel(tpl))
}

func (s *Store) DeleteTemplate(ctx context.Context, tplID id.ID) error {
	tpl, err := s.GetTemplate(ctx, tplID)
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, entityKey(prefixTemplate, tplID.String()))
	pipe.Del(ctx, templateNameKey(tpl.OwnerID, tpl.Name))
	pipe.ZRem(ctx, zTemplateOwner+tpl.OwnerID, tplID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("gridhook/redis: delete template: %w", err)
	}
	return nil
}

func (s *Store) ListTemplates(ctx context.Context, ownerID string, opts template.ListOpts) ([]*template.Template, error) {
	ids, err := s.rdb.ZRange(ctx, zTemplateOwner+ownerID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("gridhook/redis: list templates: %w", err)
	}

	result := make([]*template.Template, 0, len(ids))
	for _, tplID := range ids {
		var m templateModel
		if err := s.getEntity(ctx, entityKey(prefixTemplate, tplID), &m); err != nil {
			if isRedisNil(err) {
				continue
			}
			return nil, err
		}
		if opts.Channel != "" && m.Channel != opts.Channel {
			continue
		}
		tpl, err := fromTemplateModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, tpl)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}
