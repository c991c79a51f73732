package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Upsert(ctx context.Context, req UpsertRequest) (*Response, bool, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	GetBySlug(ctx context.Context, slug string, includeInactive bool) (*Response, error)
	// FindActive resolves a product by id or slug for checkout. Inactive
	// products are reported as not found.
	FindActive(ctx context.Context, ref string) (*Product, error)
	Delete(ctx context.Context, req DeleteRequest) error
}

type ListRequest struct {
	IncludeInactive bool
	CategoryID      string
	Limit           int
}

// UnlimitedStock marks a product whose stock is not tracked.
const UnlimitedStock = -1

type UpsertRequest struct {
	Slug          string  `json:"slug" form:"slug"`
	NameID        string  `json:"name_id" form:"name_id"`
	NameEN        *string `json:"name_en" form:"name_en"`
	DescriptionID *string `json:"description_id" form:"description_id"`
	DescriptionEN *string `json:"description_en" form:"description_en"`
	Price         int64   `json:"price" form:"price"`
	ImageURL      *string `json:"image_url" form:"image_url"`
	Stock         *int    `json:"stock" form:"stock"`
	CategoryID    *string `json:"category_id" form:"category_id"`
	IsDigital     bool    `json:"is_digital" form:"is_digital"`
	DownloadURL   *string `json:"download_url" form:"download_url"`
	IsActive      *bool   `json:"is_active" form:"is_active"`
}

type DeleteRequest struct {
	ID   string
	Slug string
}

type Response struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	NameID        string    `json:"name_id"`
	NameEN        *string   `json:"name_en,omitempty"`
	DescriptionID *string   `json:"description_id,omitempty"`
	DescriptionEN *string   `json:"description_en,omitempty"`
	Price         int64     `json:"price"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Stock         int       `json:"stock"`
	CategoryID    *string   `json:"category_id,omitempty"`
	IsDigital     bool      `json:"is_digital"`
	DownloadURL   *string   `json:"download_url,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidSlug  = errors.New("invalid_slug")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrInvalidStock = errors.New("invalid_stock")
	ErrInvalidURL   = errors.New("invalid_url")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
