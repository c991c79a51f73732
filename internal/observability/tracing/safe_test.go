package tracing

import (
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCustomerFields(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/checkout"),
		attribute.String("customer.email", "buyer@example.com"),
	)
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if attrs[0].Key != "http.route" {
		t.Fatalf("expected http.route to be retained, got %s", attrs[0].Key)
	}
}

func TestSafeErrorTruncates(t *testing.T) {
	err := SafeError(errors.New("first line\nSELECT * FROM orders"))
	if err.Error() != "first line" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	long := SafeError(errors.New(strings.Repeat("x", 500)))
	if len(long.Error()) != 200 {
		t.Fatalf("expected truncation to 200 chars, got %d", len(long.Error()))
	}

	if SafeError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
