package masking

import "testing"

func TestMaskSecret(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "****"},
		{"sk_live_abcdefgh", "sk_live_****efgh"},
		{"plainsecretvalue", "****alue"},
	}
	for _, tc := range cases {
		if got := MaskSecret(tc.in); got != tc.want {
			t.Fatalf("MaskSecret(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskEmail(t *testing.T) {
	if got := MaskEmail("budi@example.com"); got != "b****@example.com" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskEmail("not-an-email"); got != "****mail" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestMetadata(t *testing.T) {
	in := map[string]any{
		"customer_email": "budi@example.com",
		"customer_phone": "081234567890",
		"delivery_token": "01HZX3ABCDEFGH",
		"amount":         int64(50000),
		"slug":           "ebook-go",
		"":               "dropped",
	}
	got := Metadata(in)

	want := map[string]any{
		"customer_email": "b****@example.com",
		"customer_phone": "****890",
		"delivery_token": "****EFGH",
		"amount":         int64(50000),
		"slug":           "ebook-go",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d keys, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v, want %v", k, got[k], v)
		}
	}
	if in["customer_email"] != "budi@example.com" {
		t.Fatal("input was modified")
	}
}
