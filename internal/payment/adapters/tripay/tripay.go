package tripay

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	paymentdomain "github.com/smallbiznis/narzo/internal/payment/domain"
)

const (
	ProviderName = "tripay"

	HeaderSignature = "X-Callback-Signature"
	HeaderEvent     = "X-Callback-Event"

	eventPaymentStatus = "payment_status"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return ProviderName
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.PaymentAdapter, error) {
	key := strings.TrimSpace(cfg.PrivateKey)
	if key == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return &Adapter{privateKey: key}, nil
}

type Adapter struct {
	privateKey string
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	signature := headers.Get(HeaderSignature)
	if signature == "" {
		return paymentdomain.ErrInvalidSignature
	}
	if !Verify(payload, signature, a.privateKey) {
		return paymentdomain.ErrInvalidSignature
	}
	if event := strings.TrimSpace(headers.Get(HeaderEvent)); event != "" && event != eventPaymentStatus {
		return paymentdomain.ErrInvalidEvent
	}
	return nil
}

type callbackPayload struct {
	Reference      string `json:"reference"`
	MerchantRef    string `json:"merchant_ref"`
	PaymentMethod  string `json:"payment_method"`
	TotalAmount    int64  `json:"total_amount"`
	AmountReceived int64  `json:"amount_received"`
	Status         string `json:"status"`
	PaidAt         *int64 `json:"paid_at"`
	Note           string `json:"note"`
}

// Parse decodes a verified callback. Only PAID, EXPIRED and FAILED are
// accepted; anything else is ErrUnknownStatus.
func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var cb callbackPayload
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	merchantRef := strings.TrimSpace(cb.MerchantRef)
	if merchantRef == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	status, ok := orderdomain.ParseStatus(strings.ToUpper(strings.TrimSpace(cb.Status)))
	if !ok || !status.IsTerminal() {
		return nil, paymentdomain.ErrUnknownStatus
	}

	event := &paymentdomain.PaymentEvent{
		Provider:    ProviderName,
		MerchantRef: merchantRef,
		Reference:   strings.TrimSpace(cb.Reference),
		Status:      status,
		Amount:      cb.TotalAmount,
		RawPayload:  payload,
	}
	if cb.PaidAt != nil && *cb.PaidAt > 0 {
		paidAt := time.Unix(*cb.PaidAt, 0).UTC()
		event.PaidAt = &paidAt
	}
	return event, nil
}
