package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/storage/domain"
	"github.com/smallbiznis/narzo/internal/storage/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type Params struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
	Cfg   config.Config
	Store domain.Store
}

type Service struct {
	log       *zap.Logger
	clock     clock.Clock
	store     domain.Store
	publicURL string
	maxUpload int64
}

func New(p Params) domain.Service {
	maxUpload := p.Cfg.Storage.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	return &Service{
		log:       p.Log.Named("storage.service"),
		clock:     p.Clock,
		store:     p.Store,
		publicURL: strings.TrimRight(p.Cfg.Storage.PublicURL, "/"),
		maxUpload: maxUpload,
	}
}

func (s *Service) Upload(ctx context.Context, req domain.UploadRequest) (*domain.Object, error) {
	if req.Body == nil {
		return nil, domain.ErrEmptyFile
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, s.maxUpload+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if int64(len(data)) > s.maxUpload {
		return nil, domain.ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	contentType := strings.SplitN(mt.String(), ";", 2)[0]
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}

	key := fmt.Sprintf("uploads/%d-%s.%s", s.clock.Now().UnixMilli(), uuid.NewString()[:8], ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, err
	}

	s.log.Info("image uploaded",
		zap.String("key", key),
		zap.String("filename", req.Filename),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)),
	)
	return &domain.Object{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		URL:         s.url(key),
	}, nil
}

func (s *Service) Put(ctx context.Context, req domain.PutRequest) (*domain.Object, error) {
	key, err := store.CleanKey(req.Key)
	if err != nil {
		return nil, err
	}
	if req.Body == nil {
		return nil, domain.ErrEmptyFile
	}

	body := req.Body
	size := req.Size
	contentType := strings.TrimSpace(req.ContentType)
	if size < 0 || contentType == "" {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		if contentType == "" {
			contentType = mimetype.Detect(data).String()
		}
		body = bytes.NewReader(data)
		size = int64(len(data))
	}
	if size == 0 {
		return nil, domain.ErrEmptyFile
	}

	if err := s.store.Put(ctx, key, body, size, contentType); err != nil {
		return nil, err
	}
	return &domain.Object{
		Key:         key,
		Size:        size,
		ContentType: contentType,
		URL:         s.url(key),
	}, nil
}

func (s *Service) Head(ctx context.Context, key string) (*domain.Object, error) {
	obj, err := s.store.Head(ctx, key)
	if err != nil {
		return nil, err
	}
	obj.URL = s.url(obj.Key)
	return obj, nil
}

func (s *Service) List(ctx context.Context, prefix string) ([]domain.Object, error) {
	objects, err := s.store.List(ctx, prefix, domain.MaxListObjects)
	if err != nil {
		return nil, err
	}
	for i := range objects {
		objects[i].URL = s.url(objects[i].Key)
	}
	return objects, nil
}

func (s *Service) url(key string) string {
	if s.publicURL == "" {
		return "/" + key
	}
	return s.publicURL + "/" + key
}
