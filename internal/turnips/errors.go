package turnips

import "errors"

var (
	// ErrInvalidObservations means no pattern can produce the observed prices.
	ErrInvalidObservations = errors.New("impossible prices")
	// ErrMissingBuyPrice means an absolute-price query ran without a Sunday price.
	ErrMissingBuyPrice = errors.New("no buy price stored")
	// ErrInvalidThreshold rejects NaN, infinite and negative thresholds.
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrInconsistentBuyPrice means the Sunday slots and the buy price disagree.
	ErrInconsistentBuyPrice = errors.New("sunday prices disagree")
)
