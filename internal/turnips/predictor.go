package turnips

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

// RolloverConfidence is the posterior above which a finished week's pattern
// is considered known.
const RolloverConfidence = 0.99984

// Prediction is the full answer for one record: the all-patterns summary and
// one entry per pattern, indexed by pattern.
type Prediction struct {
	Summary  PatternPrediction               `json:"summary"`
	Patterns [PatternCount]PatternPrediction `json:"patterns"`
}

// Posterior returns the probability of every pattern.
func (p *Prediction) Posterior() [PatternCount]float64 {
	var dist [PatternCount]float64
	for i, pp := range p.Patterns {
		dist[i] = pp.Probability
	}
	return dist
}

// Predictor answers price queries from a catalog. It holds no per-query state
// and is safe for concurrent use.
type Predictor struct {
	catalog      *Catalog
	scenarios    [PatternCount][]Scenario
	maxTolerance int
	log          zerolog.Logger
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithLogger sets the logger used for debug traces.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Predictor) {
		p.log = l.With().Str("component", "predictor").Logger()
	}
}

// WithMaxTolerance lets observations miss a scenario range by up to n bells
// when no pattern matches exactly. Zero keeps matching strict.
func WithMaxTolerance(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.maxTolerance = n
		}
	}
}

// NewPredictor enumerates the catalog once and keeps the scenarios read-only.
func NewPredictor(c *Catalog, opts ...Option) *Predictor {
	p := &Predictor{
		catalog: c,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, pattern := range Patterns() {
		p.scenarios[pattern] = slices.Collect(c.Definition(pattern).Scenarios())
	}
	return p
}

// Catalog returns the catalog the predictor was built from.
func (p *Predictor) Catalog() *Catalog {
	return p.catalog
}

type analysis struct {
	base      int
	results   [PatternCount]FilterResult
	posterior [PatternCount]float64
}

func (p *Predictor) analyze(rec ObservationRecord) (analysis, error) {
	var a analysis
	if err := rec.Validate(); err != nil {
		return a, err
	}
	base, ok := rec.BasePrice()
	if !ok {
		return a, ErrMissingBuyPrice
	}
	a.base = base
	prior := p.catalog.PriorRow(rec.PreviousPattern)

	for tol := 0; tol <= p.maxTolerance; tol++ {
		var weights [PatternCount]float64
		for _, pattern := range Patterns() {
			res := Filter(slices.Values(p.scenarios[pattern]), rec, base, p.catalog.Rounding, tol)
			res.Pattern = pattern
			a.results[pattern] = res
			if res.Entered > 0 {
				weights[pattern] = prior[pattern] * float64(len(res.Survivors)) / float64(res.Entered)
			}
		}
		posterior, ok := normalize(weights)
		if !ok {
			continue
		}
		a.posterior = posterior
		p.log.Debug().
			Int("base", base).
			Int("tolerance", tol).
			Int("fluctuating", len(a.results[Fluctuating].Survivors)).
			Int("large_spike", len(a.results[LargeSpike].Survivors)).
			Int("decreasing", len(a.results[Decreasing].Survivors)).
			Int("small_spike", len(a.results[SmallSpike].Survivors)).
			Msg("Filtered scenarios")
		return a, nil
	}
	return a, fmt.Errorf("%w: no pattern matches within %d bells", ErrInvalidObservations, p.maxTolerance)
}

// PredictAll returns the price envelope of every pattern and of all patterns
// combined. A pattern ruled out by the observations keeps probability zero
// and reports its unconditioned envelope.
func (p *Predictor) PredictAll(rec ObservationRecord) (*Prediction, error) {
	a, err := p.analyze(rec)
	if err != nil {
		return nil, err
	}

	var pred Prediction
	for _, pattern := range Patterns() {
		res := a.results[pattern]
		var pp PatternPrediction
		if len(res.Survivors) > 0 {
			pp = envelope(pattern, res.Survivors, rec)
		} else {
			pp = envelope(pattern, p.unconditioned(pattern, a.base), ObservationRecord{})
		}
		pp.Probability = a.posterior[pattern]
		pp.Scenarios = res.Entered
		pp.Surviving = len(res.Survivors)
		pred.Patterns[pattern] = pp
	}
	pred.Summary = merge(pred.Patterns)
	return &pred, nil
}

func (p *Predictor) unconditioned(pattern Pattern, base int) []Projection {
	projections := make([]Projection, 0, len(p.scenarios[pattern]))
	for _, s := range p.scenarios[pattern] {
		projections = append(projections, Projection{Scenario: s, Prices: s.Prices(base, p.catalog.Rounding)})
	}
	return projections
}

// PredictPattern returns the posterior of every pattern. Without any observed
// selling price it is the prior after the previous pattern, and no buy price
// is needed.
func (p *Predictor) PredictPattern(rec ObservationRecord) ([PatternCount]float64, error) {
	if !rec.HasSellPrices() {
		if err := rec.Validate(); err != nil {
			return [PatternCount]float64{}, err
		}
		return p.catalog.PriorRow(rec.PreviousPattern), nil
	}
	a, err := p.analyze(rec)
	if err != nil {
		return [PatternCount]float64{}, err
	}
	return a.posterior, nil
}

// MostLikely returns the pattern whose probability exceeds threshold, or
// Unknown when none does.
func MostLikely(dist [PatternCount]float64, threshold float64) Pattern {
	for i, prob := range dist {
		if prob > threshold {
			return Pattern(i)
		}
	}
	return Unknown
}
