package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	IncludeUnpublished bool
	Category           string
	Featured           *bool
	Limit              int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, post *Post) error
	Update(ctx context.Context, db *gorm.DB, post *Post) error
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Post, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Post, error)
	IncrementViews(ctx context.Context, db *gorm.DB, id int64) error
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	DeleteBySlug(ctx context.Context, db *gorm.DB, slug string) (bool, error)
}
