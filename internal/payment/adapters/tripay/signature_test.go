package tripay

import "testing"

func TestTransactionSignatureIsDeterministic(t *testing.T) {
	// merchant_code + merchant_ref + amount, keyed with the private key.
	got := TransactionSignature("secret", "T1234", "NRZ-1-ABCDEF", 50000)
	want := Sign([]byte("T1234NRZ-1-ABCDEF50000"), "secret")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if again := TransactionSignature("secret", "T1234", "NRZ-1-ABCDEF", 50000); again != got {
		t.Fatalf("signature not deterministic")
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(got))
	}
}

func TestVerifyRejectsAnySingleByteMutation(t *testing.T) {
	key := "private-key"
	body := []byte(`{"merchant_ref":"NRZ-1-ABCDEF","status":"PAID","reference":"T0001"}`)
	sig := Sign(body, key)

	if !Verify(body, sig, key) {
		t.Fatalf("expected signature to verify")
	}

	for i := range body {
		mutated := append([]byte(nil), body...)
		mutated[i] ^= 0x01
		if Verify(mutated, sig, key) {
			t.Fatalf("mutation of body byte %d verified", i)
		}
	}

	for i := range sig {
		mutated := []byte(sig)
		mutated[i] ^= 0x20
		if Verify(body, string(mutated), key) {
			t.Fatalf("mutation of signature byte %d verified", i)
		}
	}

	if Verify(body, sig, "other-key") {
		t.Fatalf("expected different key to fail")
	}
	if Verify(body, "", key) || Verify(body, sig[:10], key) {
		t.Fatalf("expected short signatures to fail")
	}
}
