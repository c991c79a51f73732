package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/narzo/internal/entitlement/domain"
	"gorm.io/gorm"
)

const entitlementColumns = `id, order_id, merchant_ref, product_id, line_index, delivery_token, download_token,
	downloads_used, max_downloads, download_expires, paid_at, created_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, items []domain.Entitlement) error {
	for _, e := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO entitlements (`+entitlementColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID,
			e.OrderID,
			e.MerchantRef,
			e.ProductID,
			e.LineIndex,
			e.DeliveryToken,
			e.DownloadToken,
			e.DownloadsUsed,
			e.MaxDownloads,
			e.DownloadExpires,
			e.PaidAt,
			e.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByDownloadToken(ctx context.Context, db *gorm.DB, token string) (*domain.Entitlement, error) {
	var e domain.Entitlement
	err := db.WithContext(ctx).Raw(
		`SELECT `+entitlementColumns+` FROM entitlements WHERE download_token = ?`,
		token,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) ListByOrder(ctx context.Context, db *gorm.DB, orderID int64) ([]domain.Entitlement, error) {
	var items []domain.Entitlement
	err := db.WithContext(ctx).Raw(
		`SELECT `+entitlementColumns+` FROM entitlements WHERE order_id = ? ORDER BY line_index ASC`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ConsumeDownload(ctx context.Context, db *gorm.DB, token string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE entitlements
		 SET downloads_used = downloads_used + 1
		 WHERE download_token = ? AND downloads_used < max_downloads AND download_expires >= ?`,
		token,
		now,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) InsertDownloadLog(ctx context.Context, db *gorm.DB, log *domain.DownloadLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO download_logs (id, entitlement_id, product_id, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.EntitlementID,
		log.ProductID,
		log.IPAddress,
		log.UserAgent,
		log.CreatedAt,
	).Error
}
