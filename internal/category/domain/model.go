package domain

import "time"

type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Slug      string    `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	NameID    string    `json:"name_id" gorm:"column:name_id;type:text;not null"`
	NameEN    *string   `json:"name_en,omitempty" gorm:"column:name_en;type:text"`
	ParentID  *string   `json:"parent_id,omitempty" gorm:"column:parent_id;type:text;index"`
	Icon      *string   `json:"icon,omitempty" gorm:"type:text"`
	SortOrder int       `json:"sort_order" gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Category) TableName() string { return "categories" }

// Node is a category with its nested children.
type Node struct {
	Category
	Children []*Node `json:"children"`
}
