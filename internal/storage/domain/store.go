package domain

import (
	"context"
	"io"
)

// Store is a flat key/value object store. Keys use forward slashes.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Head(ctx context.Context, key string) (*Object, error)
	List(ctx context.Context, prefix string, limit int) ([]Object, error)
}
