package services

import (
	"strconv"
	"strings"
	"unicode"
)

// maxPriceDigits keeps parsed prices inside int64.
const maxPriceDigits = 18

// PriceValue reads a listing price as the number formed by its digits,
// ASCII or Bengali, in order. "1,20,00,000 BDT" and "৳ ১২০০০০০০" both give
// 12000000. It reports false for empty or "not specified" prices and for
// strings with no digits.
func PriceValue(price string) (int64, bool) {
	price = strings.TrimSpace(price)
	if price == "" || strings.Contains(strings.ToLower(price), "not specified") {
		return 0, false
	}

	var digits strings.Builder
	for _, r := range price {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= '০' && r <= '৯':
			digits.WriteRune('0' + (r - '০'))
		}
	}
	if digits.Len() == 0 || digits.Len() > maxPriceDigits {
		return 0, false
	}

	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// normaliseType turns a property type into a display label: trimmed, first
// letter upper-cased, "Unknown" when empty.
func normaliseType(t string) string {
	t = strings.Join(strings.Fields(t), " ")
	if t == "" || strings.EqualFold(t, notSpecified) {
		return "Unknown"
	}
	r := []rune(strings.ToLower(t))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
