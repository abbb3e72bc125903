package turnips

import "fmt"

const (
	// SlotCount covers Sunday (twice) and Monday AM through Saturday PM.
	SlotCount = 14
	// FirstSellSlot is Monday AM.
	FirstSellSlot = 2
	// SellSlots is the number of half-days turnips can be sold.
	SellSlots = SlotCount - FirstSellSlot
	// Unobserved marks a slot without a known price.
	Unobserved = 0
)

// ObservationRecord is everything known about one island's week.
type ObservationRecord struct {
	PreviousPattern Pattern
	Prices          [SlotCount]int
	BuyPrice        int
}

// Validate checks the rules every query relies on.
func (r ObservationRecord) Validate() error {
	if r.PreviousPattern != Unknown && !r.PreviousPattern.Valid() {
		return fmt.Errorf("%w: previous pattern %d", ErrInvalidObservations, int(r.PreviousPattern))
	}
	if r.BuyPrice < 0 {
		return fmt.Errorf("%w: buy price %d must be positive", ErrInvalidObservations, r.BuyPrice)
	}
	for slot, price := range r.Prices {
		if price < 0 {
			return fmt.Errorf("%w: slot %d price %d must be positive", ErrInvalidObservations, slot, price)
		}
	}

	sunday := Unobserved
	for _, price := range []int{r.Prices[0], r.Prices[1], r.BuyPrice} {
		if price == Unobserved {
			continue
		}
		if sunday != Unobserved && sunday != price {
			return fmt.Errorf("%w: %d vs %d", ErrInconsistentBuyPrice, sunday, price)
		}
		sunday = price
	}
	return nil
}

// BasePrice is the Sunday price every rate is applied to.
func (r ObservationRecord) BasePrice() (int, bool) {
	for _, price := range []int{r.Prices[0], r.Prices[1], r.BuyPrice} {
		if price > 0 {
			return price, true
		}
	}
	return 0, false
}

// HasSellPrices reports whether any slot from Monday AM onwards is known.
func (r ObservationRecord) HasSellPrices() bool {
	for _, price := range r.Prices[FirstSellSlot:] {
		if price != Unobserved {
			return true
		}
	}
	return false
}

// Observed reports whether the price of slot is known.
func (r ObservationRecord) Observed(slot int) bool {
	return r.Prices[slot] != Unobserved
}
