package repository

import (
	"context"

	"github.com/smallbiznis/narzo/internal/category/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"slug", "name_id", "name_en", "parent_id", "icon", "sort_order", "updated_at",
		}),
	}).Create(category).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, name_id, name_en, parent_id, icon, sort_order, created_at, updated_at
		 FROM categories WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var items []domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, name_id, name_en, parent_id, icon, sort_order, created_at, updated_at
		 FROM categories ORDER BY sort_order ASC, name_id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var deleted bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`UPDATE categories SET parent_id = NULL WHERE parent_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`UPDATE products SET category_id = NULL WHERE category_id = ?`, id).Error; err != nil {
			return err
		}
		result := tx.Exec(`DELETE FROM categories WHERE id = ?`, id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}
