package turnips

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictPattern_NoObservationsReturnsPrior(t *testing.T) {
	p := newTestPredictor(t)
	c := p.Catalog()

	for _, previous := range []Pattern{Unknown, Fluctuating, LargeSpike, Decreasing, SmallSpike} {
		got, err := p.PredictPattern(week(previous))
		require.NoError(t, err)
		assert.Equal(t, c.PriorRow(previous), got, "after %s", previous)
	}

	// the prior needs no buy price
	got, err := p.PredictPattern(ObservationRecord{PreviousPattern: SmallSpike})
	require.NoError(t, err)
	assert.Equal(t, [PatternCount]float64{0.45, 0.25, 0.15, 0.15}, got)
}

func TestPredictPattern_Posterior(t *testing.T) {
	p := newTestPredictor(t)

	tests := []struct {
		name string
		rec  ObservationRecord
		want [PatternCount]float64
	}{
		{
			name: "decreasing start after a decreasing week",
			rec:  week(Decreasing, 86, 82),
			want: [PatternCount]float64{0, 0.6189111747851003, 0.08022922636103152, 0.3008595988538682},
		},
		{
			name: "spike confirmed",
			rec:  week(Unknown, 86, 82, 78, 130, 180),
			want: [PatternCount]float64{0, 1, 0, 0},
		},
		{
			name: "high opening",
			rec:  week(Unknown, 120),
			want: [PatternCount]float64{0.889252, 0, 0, 0.110748},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.PredictPattern(tt.rec)
			require.NoError(t, err)
			sum := 0.0
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-6, Pattern(i).String())
				assert.GreaterOrEqual(t, got[i], 0.0)
				sum += got[i]
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		})
	}
}

func TestPredictPattern_Errors(t *testing.T) {
	p := newTestPredictor(t)

	noBase := ObservationRecord{PreviousPattern: Unknown}
	noBase.Prices[2] = 90

	mismatch := week(Unknown, 86)
	mismatch.Prices[1] = 99

	boughtElsewhere := week(Unknown, 86)
	boughtElsewhere.BuyPrice = 95

	negative := week(Unknown, 86, -4)

	badPrevious := week(Pattern(7), 86)

	tests := []struct {
		name string
		rec  ObservationRecord
		want error
	}{
		{name: "impossible price", rec: week(Unknown, 700), want: ErrInvalidObservations},
		{name: "impossible history", rec: week(Unknown, 86, 120, 60), want: ErrInvalidObservations},
		{name: "missing buy price", rec: noBase, want: ErrMissingBuyPrice},
		{name: "sunday slots disagree", rec: mismatch, want: ErrInconsistentBuyPrice},
		{name: "buy price disagrees", rec: boughtElsewhere, want: ErrInconsistentBuyPrice},
		{name: "negative price", rec: negative, want: ErrInvalidObservations},
		{name: "bad previous pattern", rec: badPrevious, want: ErrInvalidObservations},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.PredictPattern(tt.rec)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			_, err = p.PredictAll(tt.rec)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestPredictPattern_ToleranceRescuesNearMisses(t *testing.T) {
	// 81 is one bell above what 86, 82 allow next
	rec := week(Unknown, 86, 82, 81)
	_, err := newTestPredictor(t).PredictPattern(rec)
	require.ErrorIs(t, err, ErrInvalidObservations)

	got, err := newTestPredictor(t, WithMaxTolerance(2)).PredictPattern(rec)
	require.NoError(t, err)
	assert.Zero(t, got[Fluctuating])
	sum := 0.0
	for _, prob := range got {
		sum += prob
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestPredictPattern_ObservationsOnlyPrune(t *testing.T) {
	p := newTestPredictor(t)
	prices := []int{86, 82, 78, 130, 180}

	prev, err := p.PredictAll(week(Unknown))
	require.NoError(t, err)
	for n := 1; n <= len(prices); n++ {
		next, err := p.PredictAll(week(Unknown, prices[:n]...))
		require.NoError(t, err)
		for i := range next.Patterns {
			assert.LessOrEqual(t, next.Patterns[i].Surviving, prev.Patterns[i].Surviving)
			if prev.Patterns[i].Probability == 0 {
				assert.Zero(t, next.Patterns[i].Probability)
			}
		}
		prev = next
	}
	assert.Equal(t, 1.0, prev.Patterns[LargeSpike].Probability)
}

func TestPredictAll_Envelopes(t *testing.T) {
	p := newTestPredictor(t)

	pred, err := p.PredictAll(week(Unknown, 86, 82))
	require.NoError(t, err)

	summary := pred.Summary
	assert.Equal(t, Unknown, summary.Pattern)
	assert.Equal(t, 1.0, summary.Probability)
	assert.Equal(t, PriceRange{Min: 76, Max: 140}, summary.Prices[4])
	assert.Equal(t, PriceRange{Min: 20, Max: 199}, summary.Prices[13])
	assert.Equal(t, 76, summary.WeekMin)
	assert.Equal(t, 600, summary.WeekMax)
	assert.Equal(t, 72, summary.Scenarios)
	assert.Equal(t, 13, summary.Surviving)

	dec := pred.Patterns[Decreasing]
	assert.Equal(t, PriceRange{Min: 76, Max: 80}, dec.Prices[4])
	assert.Equal(t, 76, dec.WeekMin)
	assert.Equal(t, 86, dec.WeekMax)

	// ruled out, but still describes the pattern for the base price
	fluct := pred.Patterns[Fluctuating]
	assert.False(t, fluct.Possible())
	assert.Zero(t, fluct.Probability)
	assert.Equal(t, 56, fluct.Scenarios)
	assert.Equal(t, PriceRange{Min: 60, Max: 140}, fluct.Prices[2])
	assert.Equal(t, 90, fluct.WeekMin)
	assert.Equal(t, 140, fluct.WeekMax)
}

func TestPredictAll_NativeRangesWithoutObservations(t *testing.T) {
	p := newTestPredictor(t)

	pred, err := p.PredictAll(week(Unknown))
	require.NoError(t, err)

	assert.Equal(t, p.Catalog().PriorRow(Unknown), pred.Posterior())
	assert.Equal(t, PriceRange{Min: 85, Max: 90}, pred.Patterns[Decreasing].Prices[2])
	assert.Equal(t, PriceRange{Min: 70, Max: 600}, pred.Patterns[LargeSpike].Prices[5])
	assert.Equal(t, PriceRange{Min: 10, Max: 199}, pred.Patterns[SmallSpike].Prices[13])
	assert.Equal(t, 600, pred.Summary.WeekMax)
}

func TestPredictAll_RangesArePositive(t *testing.T) {
	p := newTestPredictor(t)
	records := []ObservationRecord{
		week(Unknown),
		week(Fluctuating, 86),
		week(LargeSpike, 120, 110),
		week(SmallSpike, 86, 82, 78, 130),
	}
	for _, rec := range records {
		pred, err := p.PredictAll(rec)
		require.NoError(t, err)
		all := append(pred.Patterns[:], pred.Summary)
		for _, pp := range all {
			for slot, pr := range pp.Prices {
				assert.GreaterOrEqual(t, pr.Min, 1, "%s slot %d", pp.Pattern, slot)
				assert.LessOrEqual(t, pr.Min, pr.Max, "%s slot %d", pp.Pattern, slot)
			}
		}
	}
}

func TestPredictor_Idempotent(t *testing.T) {
	p := newTestPredictor(t)
	rec := week(Fluctuating, 86, 82, 78)

	a, err := p.PredictAll(rec)
	require.NoError(t, err)
	b, err := p.PredictAll(rec)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	pa, err := p.PredictPattern(rec)
	require.NoError(t, err)
	pb, err := p.PredictPattern(rec)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)

	ga, err := p.ProbabilityGreater(rec, 110)
	require.NoError(t, err)
	gb, err := p.ProbabilityGreater(rec, 110)
	require.NoError(t, err)
	assert.Equal(t, ga, gb)
}

func TestPredictor_ConcurrentUse(t *testing.T) {
	p := newTestPredictor(t)
	want, err := p.PredictAll(week(Unknown, 86, 82))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Prediction, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.PredictAll(week(Unknown, 86, 82))
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestMostLikely(t *testing.T) {
	assert.Equal(t, LargeSpike, MostLikely([PatternCount]float64{0, 1, 0, 0}, RolloverConfidence))
	assert.Equal(t, Unknown, MostLikely([PatternCount]float64{0.5, 0.5, 0, 0}, RolloverConfidence))
	assert.Equal(t, Fluctuating, MostLikely([PatternCount]float64{0.6, 0.4, 0, 0}, 0.5))
}
