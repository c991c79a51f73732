package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByMerchantRef(ctx context.Context, db *gorm.DB, merchantRef string) (*Order, error)
	AttachGateway(ctx context.Context, db *gorm.DB, id int64, reference, checkoutURL string, updatedAt time.Time) error
	// MarkPaid moves an UNPAID order to PAID. It reports false when the
	// order was not UNPAID at the time of the update.
	MarkPaid(ctx context.Context, db *gorm.DB, merchantRef string, reference *string, paidAt, updatedAt time.Time) (bool, error)
	// MarkStatus moves an UNPAID order to a terminal non-paid status.
	MarkStatus(ctx context.Context, db *gorm.DB, merchantRef string, status PaymentStatus, reference *string, updatedAt time.Time) (bool, error)
}
