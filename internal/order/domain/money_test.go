package domain

import "testing"

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{50000, "Rp 50.000"},
		{1250000, "Rp 1.250.000"},
		{-1000, "-Rp 1.000"},
	}
	for _, tc := range cases {
		if got := FormatRupiah(tc.in); got != tc.want {
			t.Fatalf("FormatRupiah(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
