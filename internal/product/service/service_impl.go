package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/product/domain"
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
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		IncludeInactive: req.IncludeInactive,
		CategoryID:      strings.TrimSpace(req.CategoryID),
		Limit:           req.Limit,
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

// Upsert creates the product or replaces every field of the product with the
// same slug. The boolean reports whether a new row was created.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.Response, bool, error) {
	nameID := strings.TrimSpace(req.NameID)
	if nameID == "" {
		return nil, false, domain.ErrInvalidName
	}

	productSlug := strings.TrimSpace(req.Slug)
	if productSlug == "" {
		productSlug = slug.Make(nameID)
	}
	if !slug.IsSlug(productSlug) {
		return nil, false, domain.ErrInvalidSlug
	}
	if req.Price < 0 {
		return nil, false, domain.ErrInvalidPrice
	}
	stock := domain.UnlimitedStock
	if req.Stock != nil {
		stock = *req.Stock
	}
	if stock < domain.UnlimitedStock {
		return nil, false, domain.ErrInvalidStock
	}

	imageURL, err := normalizeURL(req.ImageURL)
	if err != nil {
		return nil, false, err
	}
	downloadURL, err := normalizeURL(req.DownloadURL)
	if err != nil {
		return nil, false, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := s.clock.Now()
	existing, err := s.repo.FindBySlug(ctx, s.db, productSlug)
	if err != nil {
		return nil, false, err
	}

	item := &domain.Product{
		Slug:          productSlug,
		NameID:        nameID,
		NameEN:        trimmedPtr(req.NameEN),
		DescriptionID: trimmedPtr(req.DescriptionID),
		DescriptionEN: trimmedPtr(req.DescriptionEN),
		Price:         req.Price,
		ImageURL:      imageURL,
		Stock:         stock,
		CategoryID:    trimmedPtr(req.CategoryID),
		IsDigital:     req.IsDigital,
		DownloadURL:   downloadURL,
		IsActive:      active,
		UpdatedAt:     now,
	}

	if existing != nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, s.db, item); err != nil {
			return nil, false, err
		}
		resp := toResponse(item)
		return &resp, false, nil
	}

	item.ID = s.genID.Generate().Int64()
	item.CreatedAt = now
	if err := s.repo.Insert(ctx, s.db, item); err != nil {
		return nil, false, err
	}
	if item.IsDigital && item.DownloadURL == nil {
		s.log.Warn("digital product created without download url", zap.String("slug", item.Slug))
	}

	resp := toResponse(item)
	return &resp, true, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) GetBySlug(ctx context.Context, productSlug string, includeInactive bool) (*domain.Response, error) {
	productSlug = strings.TrimSpace(productSlug)
	if productSlug == "" {
		return nil, domain.ErrInvalidSlug
	}

	item, err := s.repo.FindBySlug(ctx, s.db, productSlug)
	if err != nil {
		return nil, err
	}
	if item == nil || (!item.IsActive && !includeInactive) {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) FindActive(ctx context.Context, ref string) (*domain.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrInvalidID
	}

	var (
		item *domain.Product
		err  error
	)
	if id, parseErr := snowflake.ParseString(ref); parseErr == nil {
		item, err = s.repo.FindByID(ctx, s.db, id.Int64())
	} else {
		item, err = s.repo.FindBySlug(ctx, s.db, ref)
	}
	if err != nil {
		return nil, err
	}
	if item == nil || !item.IsActive {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteRequest) error {
	var id int64
	switch {
	case strings.TrimSpace(req.ID) != "":
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.ID))
		if err != nil {
			return domain.ErrInvalidID
		}
		id = parsed.Int64()
	case strings.TrimSpace(req.Slug) != "":
		item, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(req.Slug))
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		id = item.ID
	default:
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

func toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:            snowflake.ID(p.ID).String(),
		Slug:          p.Slug,
		NameID:        p.NameID,
		NameEN:        p.NameEN,
		DescriptionID: p.DescriptionID,
		DescriptionEN: p.DescriptionEN,
		Price:         p.Price,
		ImageURL:      p.ImageURL,
		Stock:         p.Stock,
		CategoryID:    p.CategoryID,
		IsDigital:     p.IsDigital,
		DownloadURL:   p.DownloadURL,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
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

func normalizeURL(value *string) (*string, error) {
	trimmed := trimmedPtr(value)
	if trimmed == nil {
		return nil, nil
	}
	parsed, err := url.Parse(*trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, domain.ErrInvalidURL
	}
	return trimmed, nil
}
