package turnips

import "math"

// Rounding converts base*rate into a whole-bell price.
type Rounding string

const (
	// RoundCeil is the game's intceil: int(x + 0.99999).
	RoundCeil    Rounding = "ceil"
	RoundNearest Rounding = "nearest"
)

const ceilSlack = 0.99999

func (r Rounding) round(x float64) int {
	if x <= 0 {
		return 0
	}
	if r == RoundNearest {
		return int(math.Round(x))
	}
	return int(x + ceilSlack)
}

// Price rounds x, applies offset and clamps the result to at least 1.
func (r Rounding) Price(x float64, offset int) int {
	price := r.round(x) + offset
	if price < 1 {
		return 1
	}
	return price
}

// RateBounds returns the closed rate interval that rounds to price for the
// given base. A price of 1 absorbs every smaller rate because of the clamp.
func (r Rounding) RateBounds(price, base int) (float64, float64) {
	b := float64(base)
	p := float64(price)
	var lo, hi float64
	if r == RoundNearest {
		lo, hi = (p-0.5)/b, (p+0.5)/b
	} else {
		lo, hi = (p-ceilSlack)/b, (p+1-ceilSlack)/b
	}
	if price <= 1 {
		lo = math.Inf(-1)
	}
	return lo, hi
}
