package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewMerchantRef(t *testing.T) {
	now := time.UnixMilli(1712740200123)
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		ref, err := NewMerchantRef("NRZ", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		parts := strings.Split(ref, "-")
		if len(parts) != 3 || parts[0] != "NRZ" || parts[1] != "1712740200123" || len(parts[2]) != 6 {
			t.Fatalf("unexpected ref format %q", ref)
		}
		for _, r := range parts[2] {
			if !strings.ContainsRune(refAlphabet, r) {
				t.Fatalf("unexpected suffix rune %q in %q", r, ref)
			}
		}
		seen[ref] = struct{}{}
	}
	if len(seen) < 45 {
		t.Fatalf("expected mostly unique refs, got %d distinct", len(seen))
	}
}

func TestStatusTransitions(t *testing.T) {
	if StatusUnpaid.IsTerminal() {
		t.Fatalf("UNPAID must not be terminal")
	}
	for _, s := range []PaymentStatus{StatusPaid, StatusExpired, StatusFailed} {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	if _, ok := ParseStatus("REFUND"); ok {
		t.Fatalf("REFUND must not parse")
	}
}
