package models

import (
	"fmt"
	"time"

	"github.com/Alias1177/Turnips/internal/turnips"
)

// Week identifies a Sunday-to-Saturday week in the island's timezone.
type Week struct {
	Number int `json:"number"`
	Year   int `json:"year"`
}

// Current reports whether data stamped with w still belongs to now.
func (w Week) Current(now Week) bool {
	return w.Year == now.Year && w.Number >= now.Number
}

func (w Week) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Number)
}

// TurnipWeek is what an island remembers about the current week's market.
type TurnipWeek struct {
	PastPattern turnips.Pattern        `json:"past_pattern"`
	Prices      [turnips.SlotCount]int `json:"prices"`
	BuyPrice    int                    `json:"buy_price,omitempty"`
	Week        Week                   `json:"week"`
}

// NewTurnipWeek starts an empty week with an unknown past pattern.
func NewTurnipWeek(week Week) *TurnipWeek {
	return &TurnipWeek{PastPattern: turnips.Unknown, Week: week}
}

// Observation converts the stored week into the predictor's input.
func (t *TurnipWeek) Observation() turnips.ObservationRecord {
	return turnips.ObservationRecord{
		PreviousPattern: t.PastPattern,
		Prices:          t.Prices,
		BuyPrice:        t.BuyPrice,
	}
}

// Island is one user's island.
type Island struct {
	UserID    int64       `json:"user_id"`
	ChatID    int64       `json:"chat_id"`
	Name      string      `json:"name"`
	Timezone  string      `json:"timezone"`
	Turnips   *TurnipWeek `json:"turnips,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Location resolves the island's timezone, UTC when unset.
func (i *Island) Location() (*time.Location, error) {
	if i.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return nil, fmt.Errorf("island %d timezone: %w", i.UserID, err)
	}
	return loc, nil
}
