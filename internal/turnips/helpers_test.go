package turnips

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func replaceOnce(t *testing.T, s, old, new string) string {
	t.Helper()
	require.Contains(t, s, old)
	return strings.Replace(s, old, new, 1)
}

func newTestPredictor(t *testing.T, opts ...Option) *Predictor {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return NewPredictor(c, opts...)
}

// week builds a record with a Sunday price of 100 and the given prices from
// Monday AM onwards.
func week(previous Pattern, prices ...int) ObservationRecord {
	rec := ObservationRecord{PreviousPattern: previous, BuyPrice: 100}
	rec.Prices[0], rec.Prices[1] = 100, 100
	copy(rec.Prices[FirstSellSlot:], prices)
	return rec
}
