package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Upsert(ctx context.Context, req UpsertRequest) (*Response, bool, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	// GetBySlug returns the post and counts the read as a view.
	GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*Response, error)
	Delete(ctx context.Context, req DeleteRequest) error
}

type ListRequest struct {
	IncludeUnpublished bool
	Category           string
	Featured           *bool
	Limit              int
}

type UpsertRequest struct {
	Slug       string   `json:"slug"`
	TitleID    string   `json:"title_id"`
	TitleEN    *string  `json:"title_en"`
	ExcerptID  *string  `json:"excerpt_id"`
	ExcerptEN  *string  `json:"excerpt_en"`
	ContentID  *string  `json:"content_id"`
	ContentEN  *string  `json:"content_en"`
	CoverImage *string  `json:"cover_image"`
	Category   *string  `json:"category"`
	Tags       []string `json:"tags"`
	Published  bool     `json:"published"`
	Featured   bool     `json:"featured"`
	EnableAds  *bool    `json:"enable_ads"`
}

type DeleteRequest struct {
	ID   string
	Slug string
}

type Response struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	TitleID    string    `json:"title_id"`
	TitleEN    *string   `json:"title_en,omitempty"`
	ExcerptID  *string   `json:"excerpt_id,omitempty"`
	ExcerptEN  *string   `json:"excerpt_en,omitempty"`
	ContentID  *string   `json:"content_id,omitempty"`
	ContentEN  *string   `json:"content_en,omitempty"`
	CoverImage *string   `json:"cover_image,omitempty"`
	Category   *string   `json:"category,omitempty"`
	Tags       []string  `json:"tags"`
	Published  bool      `json:"published"`
	Featured   bool      `json:"featured"`
	EnableAds  bool      `json:"enable_ads"`
	Views      int64     `json:"views"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const MaxListLimit = 100

var (
	ErrInvalidTitle = errors.New("invalid_title")
	ErrInvalidSlug  = errors.New("invalid_slug")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidLimit = errors.New("invalid_limit")
	ErrNotFound     = errors.New("not_found")
)
