package tripay

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	orderdomain "github.com/smallbiznis/narzo/internal/order/domain"
	paymentdomain "github.com/smallbiznis/narzo/internal/payment/domain"
)

func newTestAdapter(t *testing.T) paymentdomain.PaymentAdapter {
	t.Helper()
	adapter, err := NewFactory().NewAdapter(paymentdomain.AdapterConfig{PrivateKey: "pk_test"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return adapter
}

func TestAdapterVerify(t *testing.T) {
	adapter := newTestAdapter(t)
	payload := []byte(`{"merchant_ref":"NRZ-1-AAAAAA","status":"PAID"}`)

	headers := http.Header{}
	headers.Set(HeaderSignature, Sign(payload, "pk_test"))
	if err := adapter.Verify(context.Background(), payload, headers); err != nil {
		t.Fatalf("expected valid callback, got %v", err)
	}

	headers.Set(HeaderEvent, "payment_status")
	if err := adapter.Verify(context.Background(), payload, headers); err != nil {
		t.Fatalf("expected payment_status event to pass, got %v", err)
	}

	headers.Set(HeaderEvent, "refund")
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, paymentdomain.ErrInvalidEvent) {
		t.Fatalf("expected invalid event, got %v", err)
	}

	headers = http.Header{}
	headers.Set(HeaderSignature, Sign(payload, "wrong"))
	if err := adapter.Verify(context.Background(), payload, headers); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	if err := adapter.Verify(context.Background(), payload, http.Header{}); !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected missing signature to fail, got %v", err)
	}
}

func TestAdapterParse(t *testing.T) {
	adapter := newTestAdapter(t)

	tests := []struct {
		name    string
		payload string
		status  orderdomain.PaymentStatus
		paidAt  *time.Time
		err     error
	}{
		{
			name:    "paid",
			payload: `{"reference":"T0001","merchant_ref":"NRZ-1-AAAAAA","status":"PAID","total_amount":50000,"paid_at":1712740200}`,
			status:  orderdomain.StatusPaid,
			paidAt:  timePtr(time.Unix(1712740200, 0).UTC()),
		},
		{
			name:    "expired",
			payload: `{"reference":"T0002","merchant_ref":"NRZ-1-BBBBBB","status":"EXPIRED","paid_at":null}`,
			status:  orderdomain.StatusExpired,
		},
		{
			name:    "failed lowercase",
			payload: `{"merchant_ref":"NRZ-1-CCCCCC","status":"failed"}`,
			status:  orderdomain.StatusFailed,
		},
		{name: "unpaid is not a callback status", payload: `{"merchant_ref":"NRZ-1-D","status":"UNPAID"}`, err: paymentdomain.ErrUnknownStatus},
		{name: "refund", payload: `{"merchant_ref":"NRZ-1-D","status":"REFUND"}`, err: paymentdomain.ErrUnknownStatus},
		{name: "missing ref", payload: `{"status":"PAID"}`, err: paymentdomain.ErrInvalidEvent},
		{name: "not json", payload: `status=PAID`, err: paymentdomain.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := adapter.Parse(context.Background(), []byte(tt.payload))
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event.Status != tt.status {
				t.Fatalf("expected status %s, got %s", tt.status, event.Status)
			}
			if tt.paidAt == nil && event.PaidAt != nil {
				t.Fatalf("expected no paid_at, got %v", event.PaidAt)
			}
			if tt.paidAt != nil && (event.PaidAt == nil || !event.PaidAt.Equal(*tt.paidAt)) {
				t.Fatalf("expected paid_at %v, got %v", tt.paidAt, event.PaidAt)
			}
		})
	}
}

func TestFactoryRequiresPrivateKey(t *testing.T) {
	if _, err := NewFactory().NewAdapter(paymentdomain.AdapterConfig{}); !errors.Is(err, paymentdomain.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
