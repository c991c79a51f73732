package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	IncludeInactive bool
	CategoryID      string
	Limit           int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Product, error)
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
}
