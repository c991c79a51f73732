package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/post/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("post.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.Response, bool, error) {
	title := strings.TrimSpace(req.TitleID)
	if title == "" {
		return nil, false, domain.ErrInvalidTitle
	}

	postSlug := strings.TrimSpace(req.Slug)
	if postSlug == "" {
		postSlug = slug.Make(title)
	}
	if !slug.IsSlug(postSlug) {
		return nil, false, domain.ErrInvalidSlug
	}

	enableAds := true
	if req.EnableAds != nil {
		enableAds = *req.EnableAds
	}

	now := s.clock.Now()
	item := &domain.Post{
		Slug:       postSlug,
		TitleID:    title,
		TitleEN:    trimmedPtr(req.TitleEN),
		ExcerptID:  trimmedPtr(req.ExcerptID),
		ExcerptEN:  trimmedPtr(req.ExcerptEN),
		ContentID:  req.ContentID,
		ContentEN:  req.ContentEN,
		CoverImage: trimmedPtr(req.CoverImage),
		Category:   trimmedPtr(req.Category),
		Tags:       domain.JoinTags(req.Tags),
		Published:  req.Published,
		Featured:   req.Featured,
		EnableAds:  enableAds,
		UpdatedAt:  now,
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindBySlug(ctx, tx, postSlug)
		if err != nil {
			return err
		}
		if existing != nil {
			item.ID = existing.ID
			item.Views = existing.Views
			item.CreatedAt = existing.CreatedAt
			return s.repo.Update(ctx, tx, item)
		}

		item.ID = s.genID.Generate().Int64()
		item.CreatedAt = now
		created = true
		return s.repo.Insert(ctx, tx, item)
	})
	if err != nil {
		return nil, false, err
	}

	resp := toResponse(item)
	return &resp, created, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	if req.Limit < 0 {
		return nil, domain.ErrInvalidLimit
	}
	limit := req.Limit
	if limit > domain.MaxListLimit {
		limit = domain.MaxListLimit
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		IncludeUnpublished: req.IncludeUnpublished,
		Category:           strings.TrimSpace(req.Category),
		Featured:           req.Featured,
		Limit:              limit,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetBySlug(ctx context.Context, postSlug string, includeUnpublished bool) (*domain.Response, error) {
	postSlug = strings.TrimSpace(postSlug)
	if postSlug == "" {
		return nil, domain.ErrInvalidSlug
	}

	item, err := s.repo.FindBySlug(ctx, s.db, postSlug)
	if err != nil {
		return nil, err
	}
	if item == nil || (!item.Published && !includeUnpublished) {
		return nil, domain.ErrNotFound
	}

	if err := s.repo.IncrementViews(ctx, s.db, item.ID); err != nil {
		s.log.Warn("failed to count post view", zap.String("slug", postSlug), zap.Error(err))
	} else {
		item.Views++
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteRequest) error {
	var (
		deleted bool
		err     error
	)
	switch {
	case strings.TrimSpace(req.ID) != "":
		id, parseErr := snowflake.ParseString(strings.TrimSpace(req.ID))
		if parseErr != nil {
			return domain.ErrInvalidID
		}
		deleted, err = s.repo.Delete(ctx, s.db, id.Int64())
	case strings.TrimSpace(req.Slug) != "":
		deleted, err = s.repo.DeleteBySlug(ctx, s.db, strings.TrimSpace(req.Slug))
	default:
		return domain.ErrInvalidID
	}
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func toResponse(p *domain.Post) domain.Response {
	return domain.Response{
		ID:         snowflake.ID(p.ID).String(),
		Slug:       p.Slug,
		TitleID:    p.TitleID,
		TitleEN:    p.TitleEN,
		ExcerptID:  p.ExcerptID,
		ExcerptEN:  p.ExcerptEN,
		ContentID:  p.ContentID,
		ContentEN:  p.ContentEN,
		CoverImage: p.CoverImage,
		Category:   p.Category,
		Tags:       p.TagList(),
		Published:  p.Published,
		Featured:   p.Featured,
		EnableAds:  p.EnableAds,
		Views:      p.Views,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
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
