package tripay

import (
	"context"
	"fmt"
	"strconv"

	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
)

// Gateway opens Tripay transactions for checkout.
type Gateway struct {
	client *Client
}

func NewGateway(client *Client) orderdomain.Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) CreateTransaction(ctx context.Context, req orderdomain.GatewayRequest) (*orderdomain.GatewayTransaction, error) {
	items := make([]OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, OrderItem{
			SKU:      strconv.FormatInt(it.ProductID, 10),
			Name:     it.Name,
			Price:    it.UnitPrice,
			Quantity: it.Quantity,
		})
	}

	txn, err := g.client.CreateTransaction(ctx, CreateTransactionRequest{
		Method:        req.Method,
		MerchantRef:   req.MerchantRef,
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		OrderItems:    items,
		ReturnURL:     req.ReturnURL,
		ExpiredTime:   req.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", orderdomain.ErrUpstream, err)
	}

	return &orderdomain.GatewayTransaction{
		Reference:   txn.Reference,
		CheckoutURL: txn.CheckoutURL,
		Status:      txn.Status,
	}, nil
}
