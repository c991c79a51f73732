package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, category *Category) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Category, error)
	List(ctx context.Context, db *gorm.DB) ([]Category, error)
	Delete(ctx context.Context, db *gorm.DB, id string) (bool, error)
}
