package turnips

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ProbabilityGreater returns, per slot, the probability that the selling price
// is strictly greater than threshold. Within a pattern the price is taken as
// uniform over the slot's envelope; patterns are weighted by their posterior.
// Sunday slots are never selling slots and always report zero.
func (p *Predictor) ProbabilityGreater(rec ObservationRecord, threshold float64) ([SlotCount]float64, error) {
	var out [SlotCount]float64
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return out, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	pred, err := p.PredictAll(rec)
	if err != nil {
		return out, err
	}

	posterior := pred.Posterior()
	weights := mat.NewDense(1, PatternCount, posterior[:])
	tails := mat.NewDense(PatternCount, SlotCount, nil)
	for i, pp := range pred.Patterns {
		for slot := FirstSellSlot; slot < SlotCount; slot++ {
			tails.Set(i, slot, uniformGreater(pp.Prices[slot], threshold))
		}
	}

	var marginals mat.Dense
	marginals.Mul(weights, tails)
	copy(out[:], marginals.RawRowView(0))
	return out, nil
}

// uniformGreater is P(X > x) for X uniform over r.
func uniformGreater(r PriceRange, x float64) float64 {
	lo, hi := float64(r.Min), float64(r.Max)
	switch {
	case x >= hi:
		return 0
	case x < lo:
		return 1
	default:
		return 1 - (x-lo)/(hi-lo)
	}
}
