package repository

import (
	"context"

	"github.com/smallbiznis/narzo/internal/post/domain"
	"gorm.io/gorm"
)

const postColumns = `id, slug, title_id, title_en, excerpt_id, excerpt_en, content_id, content_en, cover_image,
	category, tags, published, featured, enable_ads, views, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, post *domain.Post) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO posts (`+postColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Slug,
		post.TitleID,
		post.TitleEN,
		post.ExcerptID,
		post.ExcerptEN,
		post.ContentID,
		post.ContentEN,
		post.CoverImage,
		post.Category,
		post.Tags,
		post.Published,
		post.Featured,
		post.EnableAds,
		post.Views,
		post.CreatedAt,
		post.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, post *domain.Post) error {
	return db.WithContext(ctx).Exec(
		`UPDATE posts
		 SET title_id = ?, title_en = ?, excerpt_id = ?, excerpt_en = ?, content_id = ?, content_en = ?,
		     cover_image = ?, category = ?, tags = ?, published = ?, featured = ?, enable_ads = ?, updated_at = ?
		 WHERE id = ?`,
		post.TitleID,
		post.TitleEN,
		post.ExcerptID,
		post.ExcerptEN,
		post.ContentID,
		post.ContentEN,
		post.CoverImage,
		post.Category,
		post.Tags,
		post.Published,
		post.Featured,
		post.EnableAds,
		post.UpdatedAt,
		post.ID,
	).Error
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Post, error) {
	var p domain.Post
	err := db.WithContext(ctx).Raw(
		`SELECT `+postColumns+` FROM posts WHERE slug = ?`,
		slug,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Post, error) {
	var items []domain.Post
	stmt := db.WithContext(ctx).Model(&domain.Post{})

	if !filter.IncludeUnpublished {
		stmt = stmt.Where("published = ?", true)
	}
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.Featured != nil {
		stmt = stmt.Where("featured = ?", *filter.Featured)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) IncrementViews(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(`UPDATE posts SET views = views + 1 WHERE id = ?`, id).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM posts WHERE id = ?`, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) DeleteBySlug(ctx context.Context, db *gorm.DB, slug string) (bool, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM posts WHERE slug = ?`, slug)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
