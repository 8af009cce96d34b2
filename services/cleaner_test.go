package services

import "testing"

func TestPriceValue(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"1,20,00,000 BDT", 12000000, true},
		{"৳ ১২০০০০০০", 12000000, true},
		{"BDT 85,00,000 (negotiable)", 8500000, true},
		{"Tk ৫০ লাখ", 50, true},
		{"Not specified", 0, false},
		{"price not specified", 0, false},
		{"", 0, false},
		{"Call for price", 0, false},
		{"1234567890123456789012", 0, false},
	}

	for _, tt := range tests {
		got, ok := PriceValue(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("PriceValue(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormaliseType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"flat", "Flat"},
		{"  APARTMENT ", "Apartment"},
		{"duplex  house", "Duplex house"},
		{"", "Unknown"},
		{"Not specified", "Unknown"},
		{"ফ্ল্যাট", "ফ্ল্যাট"},
	}

	for _, tt := range tests {
		if got := normaliseType(tt.in); got != tt.want {
			t.Errorf("normaliseType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
