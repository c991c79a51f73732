package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=gateway.go -destination=mock_gateway.go -package=domain

// Gateway submits an order to the payment provider.
type Gateway interface {
	CreateTransaction(ctx context.Context, req GatewayRequest) (*GatewayTransaction, error)
}

type GatewayRequest struct {
	MerchantRef   string
	Method        string
	Amount        int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Items         []LineItem
	ReturnURL     string
	ExpiresAt     time.Time
}

type GatewayTransaction struct {
	Reference   string
	CheckoutURL string
	Status      string
}
