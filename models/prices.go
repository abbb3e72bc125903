package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Alias1177/Turnips/internal/turnips"
)

// ParsePrices reads the Sunday price followed by up to twelve selling prices,
// separated by dots or commas. Empty entries are unobserved, so
// "100.86.82..." leaves Tuesday PM onwards open.
func ParsePrices(s string) ([turnips.SlotCount]int, error) {
	var prices [turnips.SlotCount]int
	s = strings.ReplaceAll(strings.ReplaceAll(s, ",", "."), " ", "")
	parts := strings.Split(s, ".")
	if len(parts) > turnips.SellSlots+1 {
		return prices, fmt.Errorf("too many prices: %d", len(parts))
	}
	for i, part := range parts {
		if part == "" {
			continue
		}
		price, err := strconv.Atoi(part)
		if err != nil || price <= 0 {
			return prices, fmt.Errorf("invalid price %q", part)
		}
		if i == 0 {
			prices[0], prices[1] = price, price
			continue
		}
		prices[i+1] = price
	}
	return prices, nil
}

// FormatPrices is the inverse of ParsePrices.
func FormatPrices(prices [turnips.SlotCount]int) string {
	parts := make([]string, 0, turnips.SellSlots+1)
	for _, price := range prices[1:] {
		if price == turnips.Unobserved {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, strconv.Itoa(price))
	}
	return strings.Join(parts, ".")
}
