package domain

import (
	"strings"
	"time"
)

type Post struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Slug       string    `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	TitleID    string    `json:"title_id" gorm:"column:title_id;type:text;not null"`
	TitleEN    *string   `json:"title_en,omitempty" gorm:"column:title_en;type:text"`
	ExcerptID  *string   `json:"excerpt_id,omitempty" gorm:"column:excerpt_id;type:text"`
	ExcerptEN  *string   `json:"excerpt_en,omitempty" gorm:"column:excerpt_en;type:text"`
	ContentID  *string   `json:"content_id,omitempty" gorm:"column:content_id;type:text"`
	ContentEN  *string   `json:"content_en,omitempty" gorm:"column:content_en;type:text"`
	CoverImage *string   `json:"cover_image,omitempty" gorm:"column:cover_image;type:text"`
	Category   *string   `json:"category,omitempty" gorm:"type:text;index"`
	Tags       string    `json:"tags" gorm:"type:text"`
	Published  bool      `json:"published" gorm:"not null;default:false"`
	Featured   bool      `json:"featured" gorm:"not null;default:false"`
	EnableAds  bool      `json:"enable_ads" gorm:"column:enable_ads;not null;default:true"`
	Views      int64     `json:"views" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null"`
}

func (Post) TableName() string { return "posts" }

// TagList splits the stored comma-separated tags.
func (p Post) TagList() []string {
	return SplitTags(p.Tags)
}

func SplitTags(raw string) []string {
	out := []string{}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func JoinTags(tags []string) string {
	return strings.Join(SplitTags(strings.Join(tags, ",")), ",")
}
