package domain

import "time"

type Product struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Slug          string    `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	NameID        string    `json:"name_id" gorm:"column:name_id;type:text;not null"`
	NameEN        *string   `json:"name_en,omitempty" gorm:"column:name_en;type:text"`
	DescriptionID *string   `json:"description_id,omitempty" gorm:"column:description_id;type:text"`
	DescriptionEN *string   `json:"description_en,omitempty" gorm:"column:description_en;type:text"`
	Price         int64     `json:"price" gorm:"not null"`
	ImageURL      *string   `json:"image_url,omitempty" gorm:"column:image_url;type:text"`
	Stock         int       `json:"stock" gorm:"not null;default:-1"`
	CategoryID    *string   `json:"category_id,omitempty" gorm:"column:category_id;type:text"`
	IsDigital     bool      `json:"is_digital" gorm:"column:is_digital;not null;default:false"`
	DownloadURL   *string   `json:"download_url,omitempty" gorm:"column:download_url;type:text"`
	IsActive      bool      `json:"is_active" gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

// DisplayName prefers the Indonesian name and falls back to English.
func (p Product) DisplayName() string {
	if p.NameID != "" {
		return p.NameID
	}
	if p.NameEN != nil {
		return *p.NameEN
	}
	return p.Slug
}
