package domain

import (
	"context"
	"errors"
	"io"
)

type Service interface {
	// Upload stores an image under a generated key and returns its public URL.
	Upload(ctx context.Context, req UploadRequest) (*Object, error)
	Put(ctx context.Context, req PutRequest) (*Object, error)
	Head(ctx context.Context, key string) (*Object, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

type UploadRequest struct {
	Filename string
	Body     io.Reader
}

type PutRequest struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

const MaxListObjects = 1000

var (
	ErrNotFound        = errors.New("object_not_found")
	ErrInvalidKey      = errors.New("invalid_key")
	ErrEmptyFile       = errors.New("empty_file")
	ErrFileTooLarge    = errors.New("file_too_large")
	ErrUnsupportedType = errors.New("unsupported_file_type")
)
