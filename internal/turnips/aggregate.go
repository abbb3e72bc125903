package turnips

import "math"

// PatternPrediction is the outlook of a week under one pattern. WeekMin is
// the price the island is guaranteed to reach from here on; WeekMax is the
// highest price any surviving scenario allows.
type PatternPrediction struct {
	Pattern     Pattern               `json:"pattern"`
	Probability float64               `json:"probability"`
	Prices      [SlotCount]PriceRange `json:"prices"`
	WeekMin     int                   `json:"week_min"`
	WeekMax     int                   `json:"week_max"`
	Scenarios   int                   `json:"scenarios"`
	Surviving   int                   `json:"surviving"`
}

// Possible reports whether any scenario of the pattern survived.
func (p PatternPrediction) Possible() bool {
	return p.Surviving > 0
}

// envelope folds projections into per-slot extremes and week bounds.
func envelope(pattern Pattern, projections []Projection, rec ObservationRecord) PatternPrediction {
	pred := PatternPrediction{Pattern: pattern, WeekMin: math.MaxInt}
	for i, proj := range projections {
		for slot, pr := range proj.Prices {
			if i == 0 {
				pred.Prices[slot] = pr
				continue
			}
			pred.Prices[slot].Min = min(pred.Prices[slot].Min, pr.Min)
			pred.Prices[slot].Max = max(pred.Prices[slot].Max, pr.Max)
		}
		guaranteed, top := weekBounds(proj.Prices, rec)
		pred.WeekMin = min(pred.WeekMin, guaranteed)
		pred.WeekMax = max(pred.WeekMax, top)
	}
	if len(projections) == 0 {
		pred.WeekMin = 0
	}
	return pred
}

// weekBounds returns the guaranteed minimum and the maximum of one projection.
// The guaranteed minimum looks at the unobserved slots after the last
// observation; a week observed to the end falls back to its last slot.
func weekBounds(prices [SlotCount]PriceRange, rec ObservationRecord) (int, int) {
	guaranteed, top := 0, 0
	for slot := FirstSellSlot; slot < SlotCount; slot++ {
		top = max(top, prices[slot].Max)
		if rec.Observed(slot) {
			guaranteed = 0
			continue
		}
		guaranteed = max(guaranteed, prices[slot].Min)
	}
	if guaranteed == 0 {
		guaranteed = prices[SlotCount-1].Min
	}
	return guaranteed, top
}

// normalize scales weights to sum to one. It fails when every weight is zero.
func normalize(weights [PatternCount]float64) ([PatternCount]float64, bool) {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return weights, false
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights, true
}

// merge builds the all-patterns summary from the patterns still possible.
func merge(patterns [PatternCount]PatternPrediction) PatternPrediction {
	summary := PatternPrediction{Pattern: Unknown, Probability: 1, WeekMin: math.MaxInt}
	first := true
	for _, p := range patterns {
		summary.Scenarios += p.Scenarios
		if p.Probability <= 0 {
			continue
		}
		summary.Surviving += p.Surviving
		for slot, pr := range p.Prices {
			if first {
				summary.Prices[slot] = pr
				continue
			}
			summary.Prices[slot].Min = min(summary.Prices[slot].Min, pr.Min)
			summary.Prices[slot].Max = max(summary.Prices[slot].Max, pr.Max)
		}
		first = false
		summary.WeekMin = min(summary.WeekMin, p.WeekMin)
		summary.WeekMax = max(summary.WeekMax, p.WeekMax)
	}
	if first {
		summary.WeekMin = 0
	}
	return summary
}
