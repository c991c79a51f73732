package tripay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/narzo/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 12 * time.Second
	maxBodyBytes   = 1 << 20
)

// APIError is a failure reported by the provider, either as a non-2xx status
// or as success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tripay: %s (status %d)", e.Message, e.StatusCode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type OrderItem struct {
	SKU      string `json:"sku,omitempty"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type CreateTransactionRequest struct {
	Method        string      `json:"method"`
	MerchantRef   string      `json:"merchant_ref"`
	Amount        int64       `json:"amount"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	OrderItems    []OrderItem `json:"order_items"`
	CallbackURL   string      `json:"callback_url"`
	ReturnURL     string      `json:"return_url"`
	ExpiredTime   int64       `json:"expired_time"`
	Signature     string      `json:"signature"`
}

type Transaction struct {
	Reference     string `json:"reference"`
	MerchantRef   string `json:"merchant_ref"`
	PaymentMethod string `json:"payment_method"`
	PaymentName   string `json:"payment_name"`
	CustomerName  string `json:"customer_name"`
	Amount        int64  `json:"amount"`
	PayCode       string `json:"pay_code,omitempty"`
	CheckoutURL   string `json:"checkout_url"`
	Status        string `json:"status"`
	PaidAt        *int64 `json:"paid_at,omitempty"`
	ExpiredTime   int64  `json:"expired_time"`
}

type Fee struct {
	Flat    int64   `json:"flat"`
	Percent float64 `json:"percent"`
}

type Channel struct {
	Group       string `json:"group"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	FeeMerchant Fee    `json:"fee_merchant"`
	FeeCustomer Fee    `json:"fee_customer"`
	TotalFee    Fee    `json:"total_fee"`
	MinimumFee  *int64 `json:"minimum_fee,omitempty"`
	MaximumFee  *int64 `json:"maximum_fee,omitempty"`
	IconURL     string `json:"icon_url"`
	Active      bool   `json:"active"`
}

type ClientParams struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Client struct {
	baseURL      string
	apiKey       string
	privateKey   string
	merchantCode string
	callbackURL  string
	client       *http.Client
	log          *zap.Logger
	metrics      *metrics.Metrics
}

func NewClient(p ClientParams) *Client {
	timeout := p.Cfg.Tripay.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(p.Cfg.Tripay.TripayBaseURL(), "/"),
		apiKey:       strings.TrimSpace(p.Cfg.Tripay.APIKey),
		privateKey:   strings.TrimSpace(p.Cfg.Tripay.PrivateKey),
		merchantCode: strings.TrimSpace(p.Cfg.Tripay.MerchantCode),
		callbackURL:  p.Cfg.Tripay.CallbackURL,
		client:       &http.Client{Timeout: timeout},
		log:          p.Log.Named("tripay.client"),
		metrics:      p.Metrics,
	}
}

// CreateTransaction signs req and opens a closed-payment transaction.
// MerchantRef, Amount and the customer fields must already be set.
func (c *Client) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*Transaction, error) {
	if c.privateKey == "" || c.merchantCode == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	if req.CallbackURL == "" {
		req.CallbackURL = c.callbackURL
	}
	req.Signature = TransactionSignature(c.privateKey, c.merchantCode, req.MerchantRef, req.Amount)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var txn Transaction
	if err := c.do(ctx, "create_transaction", http.MethodPost, "/transaction/create", nil, body, &txn); err != nil {
		return nil, err
	}
	if txn.Reference == "" || txn.CheckoutURL == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "transaction response missing reference"}
	}
	return &txn, nil
}

func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	if err := c.do(ctx, "list_channels", http.MethodGet, "/merchant/payment-channel", nil, nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (c *Client) TransactionDetail(ctx context.Context, reference string) (*Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}
	query := url.Values{}
	query.Set("reference", reference)

	var txn Transaction
	if err := c.do(ctx, "transaction_detail", http.MethodGet, "/transaction/detail", query, nil, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (c *Client) do(
	ctx context.Context,
	operation string,
	method string,
	path string,
	query url.Values,
	body []byte,
	out any,
) (err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.RecordGatewayRequest(ctx, operation, outcome)
	}()

	if c.apiKey == "" {
		return paymentdomain.ErrInvalidConfig
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	c.log.Debug("tripay request",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("tripay: decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		message := strings.TrimSpace(env.Message)
		if message == "" {
			message = "request failed"
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("tripay: decode data: %w", err)
	}
	return nil
}

// IsAPIError reports whether err carries a provider-reported failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
