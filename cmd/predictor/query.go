package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Alias1177/Turnips/internal/report"
	"github.com/Alias1177/Turnips/internal/turnips"
	"github.com/Alias1177/Turnips/models"
)

// query is one question asked about an island's week.
type query struct {
	Kind      string
	Threshold float64
	Name      string
	Now       time.Time
}

func (q query) answer(p *turnips.Predictor, week *models.TurnipWeek) (string, error) {
	rec := week.Observation()
	switch q.Kind {
	case "pattern":
		dist, err := p.PredictPattern(rec)
		if err != nil {
			return "", err
		}
		return report.PatternSummary(dist), nil

	case "profit":
		threshold := q.Threshold
		if threshold < 0 {
			base, ok := rec.BasePrice()
			if !ok {
				return "", turnips.ErrMissingBuyPrice
			}
			threshold = float64(base)
		}
		probs, err := p.ProbabilityGreater(rec, threshold)
		if err != nil {
			return "", err
		}
		return report.ProfitTable(probs, models.SlotFor(q.Now.Weekday(), models.AM)), nil

	case "max", "table", "json":
		pred, err := p.PredictAll(rec)
		if err != nil {
			return "", err
		}
		switch q.Kind {
		case "max":
			return report.MaxSellPrice(pred), nil
		case "table":
			return report.PredictionTable(pred), nil
		}
		out, err := json.MarshalIndent(pred, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil

	case "link":
		return report.ProphetLink(q.Name, week), nil
	}
	return "", fmt.Errorf("unknown query %q", q.Kind)
}
