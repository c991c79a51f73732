package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
)

// PaymentEvent is the canonical status callback parsed by adapters.
type PaymentEvent struct {
	Provider    string
	MerchantRef string
	Reference   string
	Status      orderdomain.PaymentStatus
	Amount      int64
	PaidAt      *time.Time
	RawPayload  []byte
}

type AdapterConfig struct {
	MerchantCode string
	PrivateKey   string
}

// PaymentAdapter authenticates and decodes provider callbacks. Verify must
// run on the raw body before Parse.
type PaymentAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (PaymentAdapter, error)
}

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
)

type Result struct {
	MerchantRef  string                    `json:"merchant_ref"`
	Status       orderdomain.PaymentStatus `json:"status"`
	Outcome      Outcome                   `json:"outcome"`
	Entitlements int                       `json:"entitlements"`
}

// Service reconciles provider callbacks with stored orders.
type Service interface {
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (*Result, error)
}

var (
	ErrInvalidProvider  = errors.New("invalid_provider")
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidConfig    = errors.New("invalid_config")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrUnknownStatus    = errors.New("unknown_payment_status")
	ErrStatusConflict   = errors.New("payment_status_conflict")
	ErrCallbackInFlight = errors.New("callback_in_flight")
)
