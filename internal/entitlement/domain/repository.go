package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, items []Entitlement) error
	FindByDownloadToken(ctx context.Context, db *gorm.DB, token string) (*Entitlement, error)
	ListByOrder(ctx context.Context, db *gorm.DB, orderID int64) ([]Entitlement, error)
	// ConsumeDownload increments downloads_used only while quota remains and
	// the entitlement has not expired at now.
	ConsumeDownload(ctx context.Context, db *gorm.DB, token string, now time.Time) (bool, error)
	InsertDownloadLog(ctx context.Context, db *gorm.DB, log *DownloadLog) error
}
