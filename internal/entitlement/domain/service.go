package domain

import (
	"context"
	"errors"
	"time"

	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	"gorm.io/gorm"
)

type Service interface {
	// Provision creates one entitlement per line item of order. It
	// must run inside the transaction that moved the order to PAID.
	Provision(ctx context.Context, tx *gorm.DB, order *orderdomain.Order, paidAt time.Time) ([]Entitlement, error)
	Redeem(ctx context.Context, req RedeemRequest) (*Redemption, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Entitlement, error)
}

type RedeemRequest struct {
	Token     string
	IPAddress string
	UserAgent string
}

type Redemption struct {
	Entitlement Entitlement
	DownloadURL string
}

var (
	ErrNotFound            = errors.New("download_not_found")
	ErrExpired             = errors.New("download_expired")
	ErrLimitReached        = errors.New("download_limit_reached")
	ErrDownloadUnavailable = errors.New("download_unavailable")
)
