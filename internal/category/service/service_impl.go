package service

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/narzo/internal/category/domain"
	"github.com/smallbiznis/narzo/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idPrefix = "cat-"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("category.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.Category, error) {
	nameID := strings.TrimSpace(req.NameID)
	if nameID == "" {
		return nil, domain.ErrInvalidName
	}

	categorySlug := strings.TrimSpace(req.Slug)
	if categorySlug == "" {
		categorySlug = slug.Make(nameID)
	}
	if !slug.IsSlug(categorySlug) {
		return nil, domain.ErrInvalidSlug
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = idPrefix + categorySlug
	}

	var parentID *string
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		parent := strings.TrimSpace(*req.ParentID)
		if err := s.validateParent(ctx, id, parent); err != nil {
			return nil, err
		}
		parentID = &parent
	}

	now := s.clock.Now()
	item := &domain.Category{
		ID:        id,
		Slug:      categorySlug,
		NameID:    nameID,
		NameEN:    trimmedPtr(req.NameEN),
		ParentID:  parentID,
		Icon:      trimmedPtr(req.Icon),
		SortOrder: req.SortOrder,
		UpdatedAt: now,
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		item.CreatedAt = existing.CreatedAt
	} else {
		item.CreatedAt = now
	}

	if err := s.repo.Upsert(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

// validateParent rejects a parent that is missing or that would make id its
// own ancestor.
func (s *Service) validateParent(ctx context.Context, id, parentID string) error {
	if parentID == id {
		return domain.ErrInvalidParent
	}

	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.Category, len(items))
	for _, c := range items {
		byID[c.ID] = c
	}

	if _, ok := byID[parentID]; !ok {
		return domain.ErrInvalidParent
	}

	seen := map[string]struct{}{}
	cursor := parentID
	for cursor != "" {
		if cursor == id {
			return domain.ErrInvalidParent
		}
		if _, ok := seen[cursor]; ok {
			break
		}
		seen[cursor] = struct{}{}
		next, ok := byID[cursor]
		if !ok || next.ParentID == nil {
			break
		}
		cursor = *next.ParentID
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrInvalidID
	}
	deleted, err := s.repo.Delete(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) Tree(ctx context.Context) ([]*domain.Node, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return BuildTree(items), nil
}

func (s *Service) Flat(ctx context.Context) ([]domain.Category, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	sortCategories(items)
	return items, nil
}

func (s *Service) Parents(ctx context.Context) ([]domain.Category, error) {
	items, err := s.Flat(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(items))
	for _, c := range items {
		if c.ParentID == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) Children(ctx context.Context, parentID string) ([]domain.Category, error) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return nil, domain.ErrInvalidID
	}
	items, err := s.Flat(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0)
	for _, c := range items {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
