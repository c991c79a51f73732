package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
	GetByMerchantRef(ctx context.Context, merchantRef string) (*Order, error)
}

type CheckoutItem struct {
	ProductID string `json:"product_id" form:"product_id" validate:"required,max=128"`
	Quantity  int    `json:"quantity" form:"quantity" validate:"required,min=1,max=100"`
}

type CheckoutRequest struct {
	Items         []CheckoutItem `json:"items" validate:"required,min=1,max=20,dive"`
	CustomerName  string         `json:"name" form:"name" validate:"required,max=255"`
	CustomerEmail string         `json:"email" form:"email" validate:"required,email,max=255"`
	CustomerPhone string         `json:"phone" form:"phone" validate:"omitempty,max=32"`
	Method        string         `json:"method" form:"method" validate:"required,alphanum,max=32"`
}

type CheckoutResponse struct {
	MerchantRef   string        `json:"merchant_ref"`
	Amount        int64         `json:"amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Reference     string        `json:"reference,omitempty"`
	CheckoutURL   string        `json:"checkout_url"`
	ExpiresAt     time.Time     `json:"expires_at"`
}

// FieldError describes one rejected checkout field.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError carries every rejected field of a checkout request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return ErrInvalidCheckout.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidCheckout
}

var (
	ErrInvalidCheckout    = errors.New("invalid_checkout")
	ErrInvalidMerchantRef = errors.New("invalid_merchant_ref")
	ErrProductNotFound    = errors.New("product_not_found")
	ErrOrderNotFound      = errors.New("order_not_found")
	ErrMerchantRefExists  = errors.New("merchant_ref_exhausted")
	ErrUpstream           = errors.New("payment_gateway_unavailable")
)
