package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/narzo/internal/order/domain"
	"gorm.io/gorm"
)

const orderColumns = `id, merchant_ref, customer_name, customer_email, customer_phone, amount, payment_method, items,
	payment_status, gateway_reference, checkout_url, paid_at, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.MerchantRef,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.Amount,
		order.PaymentMethod,
		order.Items,
		order.PaymentStatus,
		order.GatewayReference,
		order.CheckoutURL,
		order.PaidAt,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByMerchantRef(ctx context.Context, db *gorm.DB, merchantRef string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE merchant_ref = ?`,
		merchantRef,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) AttachGateway(ctx context.Context, db *gorm.DB, id int64, reference, checkoutURL string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET gateway_reference = ?, checkout_url = ?, updated_at = ? WHERE id = ?`,
		reference,
		checkoutURL,
		updatedAt,
		id,
	).Error
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, merchantRef string, reference *string, paidAt, updatedAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET payment_status = ?, gateway_reference = COALESCE(?, gateway_reference), paid_at = ?, updated_at = ?
		 WHERE merchant_ref = ? AND payment_status = ?`,
		domain.StatusPaid,
		reference,
		paidAt,
		updatedAt,
		merchantRef,
		domain.StatusUnpaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) MarkStatus(ctx context.Context, db *gorm.DB, merchantRef string, status domain.PaymentStatus, reference *string, updatedAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET payment_status = ?, gateway_reference = COALESCE(?, gateway_reference), updated_at = ?
		 WHERE merchant_ref = ? AND payment_status = ?`,
		status,
		reference,
		updatedAt,
		merchantRef,
		domain.StatusUnpaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
