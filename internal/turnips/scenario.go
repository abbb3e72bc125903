package turnips

import "iter"

// PriceRange is an inclusive interval of whole-bell prices.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether price lies in the range widened by tolerance.
func (r PriceRange) Contains(price, tolerance int) bool {
	return price >= r.Min-tolerance && price <= r.Max+tolerance
}

// Segment places one phase of a scenario on the slot axis.
type Segment struct {
	Phase  Phase
	Start  int
	Length int
}

// Scenario is one admissible assignment of phase lengths of a pattern.
// Rates stay continuous, so each slot maps to a price range rather than a price.
type Scenario struct {
	Pattern  Pattern
	Segments []Segment
}

// Lengths returns the length of every phase in order.
func (s Scenario) Lengths() []int {
	lengths := make([]int, len(s.Segments))
	for i, seg := range s.Segments {
		lengths[i] = seg.Length
	}
	return lengths
}

// Prices computes the unconditioned price range of every slot.
func (s Scenario) Prices(base int, r Rounding) [SlotCount]PriceRange {
	p, _ := project(s, ObservationRecord{}, base, r, 0)
	return p.Prices
}

// Scenarios enumerates every combination of phase lengths that fills the
// twelve selling slots and honours the length groups. The sequence is finite
// and can be ranged over any number of times.
func (d PatternDefinition) Scenarios() iter.Seq[Scenario] {
	return func(yield func(Scenario) bool) {
		lengths := make([]int, len(d.Phases))
		d.assign(lengths, 0, 0, yield)
	}
}

// Count is the number of scenarios the definition enumerates.
func (d PatternDefinition) Count() int {
	n := 0
	for range d.Scenarios() {
		n++
	}
	return n
}

func (d PatternDefinition) assign(lengths []int, i, used int, yield func(Scenario) bool) bool {
	if i == len(d.Phases) {
		if used != SellSlots || !d.groupsHold(lengths) {
			return true
		}
		return yield(d.scenario(lengths))
	}
	ph := d.Phases[i]
	for n := ph.MinLength; n <= ph.MaxLength && used+n <= SellSlots; n++ {
		lengths[i] = n
		if !d.assign(lengths, i+1, used+n, yield) {
			return false
		}
	}
	return true
}

func (d PatternDefinition) groupsHold(lengths []int) bool {
	for _, g := range d.Groups {
		total := 0
		for _, idx := range g.Phases {
			total += lengths[idx]
		}
		if total != g.Total {
			return false
		}
	}
	return true
}

func (d PatternDefinition) scenario(lengths []int) Scenario {
	s := Scenario{Pattern: d.Pattern, Segments: make([]Segment, len(d.Phases))}
	start := FirstSellSlot
	for i, ph := range d.Phases {
		s.Segments[i] = Segment{Phase: ph, Start: start, Length: lengths[i]}
		start += lengths[i]
	}
	return s
}
