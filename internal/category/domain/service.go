package domain

import (
	"context"
	"errors"
)

type Service interface {
	Upsert(ctx context.Context, req UpsertRequest) (*Category, error)
	Delete(ctx context.Context, id string) error
	Tree(ctx context.Context) ([]*Node, error)
	Flat(ctx context.Context) ([]Category, error)
	Parents(ctx context.Context) ([]Category, error)
	Children(ctx context.Context, parentID string) ([]Category, error)
}

type UpsertRequest struct {
	ID        string  `json:"id"`
	Slug      string  `json:"slug"`
	NameID    string  `json:"name_id"`
	NameEN    *string `json:"name_en"`
	ParentID  *string `json:"parent_id"`
	Icon      *string `json:"icon"`
	SortOrder int     `json:"sort_order"`
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidSlug   = errors.New("invalid_slug")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidParent = errors.New("invalid_parent")
	ErrNotFound      = errors.New("not_found")
)
