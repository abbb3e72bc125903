package turnips

import (
	"iter"
	"math"
)

// Projection is a scenario priced for one record. Observed slots collapse to
// the observed price and narrow the rates of the decreasing phase they sit in.
type Projection struct {
	Scenario Scenario
	Prices   [SlotCount]PriceRange
}

// FilterResult counts the scenarios that entered the filter and keeps the
// ones consistent with every observed price.
type FilterResult struct {
	Pattern   Pattern
	Entered   int
	Survivors []Projection
}

// Filter drops every scenario that cannot produce the observed prices.
// Observations may sit up to tolerance bells outside a scenario's range.
func Filter(scenarios iter.Seq[Scenario], rec ObservationRecord, base int, r Rounding, tolerance int) FilterResult {
	var res FilterResult
	for s := range scenarios {
		res.Pattern = s.Pattern
		res.Entered++
		if p, ok := project(s, rec, base, r, tolerance); ok {
			res.Survivors = append(res.Survivors, p)
		}
	}
	return res
}

func project(s Scenario, rec ObservationRecord, base int, r Rounding, tolerance int) (Projection, bool) {
	p := Projection{Scenario: s}
	p.Prices[0] = PriceRange{Min: base, Max: base}
	p.Prices[1] = p.Prices[0]
	b := float64(base)

	for _, seg := range s.Segments {
		ph := seg.Phase
		lo, hi := ph.RateMin, ph.RateMax
		for slot := seg.Start; slot < seg.Start+seg.Length; slot++ {
			pr := PriceRange{Min: r.Price(b*lo, ph.Offset), Max: r.Price(b*hi, ph.Offset)}

			if observed := rec.Prices[slot]; observed != Unobserved {
				if !pr.Contains(observed, tolerance) {
					return Projection{}, false
				}
				if ph.Kind == PhaseDecreasing {
					olo, ohi := r.RateBounds(observed-ph.Offset, base)
					nlo, nhi := math.Max(lo, olo), math.Min(hi, ohi)
					if nlo > nhi {
						// only reachable through tolerance
						nlo, nhi = olo, ohi
					}
					lo, hi = nlo, nhi
				}
				pr = PriceRange{Min: observed, Max: observed}
			}
			p.Prices[slot] = pr

			if ph.Kind == PhaseDecreasing {
				lo -= ph.DecayMax
				hi -= ph.DecayMin
			}
		}
	}
	return p, true
}
