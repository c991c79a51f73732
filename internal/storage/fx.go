package storage

import (
	"context"
	"fmt"

	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/storage/domain"
	"github.com/smallbiznis/narzo/internal/storage/service"
	"github.com/smallbiznis/narzo/internal/storage/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage.service",
	fx.Provide(NewStore),
	fx.Provide(service.New),
)

func NewStore(cfg config.Config, log *zap.Logger) (domain.Store, error) {
	log = log.Named("storage")
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		s, err := store.NewS3(context.Background(), cfg.Storage)
		if err != nil {
			return nil, err
		}
		log.Info("object storage ready", zap.String("driver", "s3"), zap.String("bucket", cfg.Storage.Bucket))
		return s, nil
	case config.StorageDriverLocal, "":
		s, err := store.NewLocal(cfg.Storage.LocalDir)
		if err != nil {
			return nil, err
		}
		log.Info("object storage ready", zap.String("driver", "local"), zap.String("dir", cfg.Storage.LocalDir))
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
