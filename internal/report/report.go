package report

import (
	"fmt"
	"strings"

	"github.com/Alias1177/Turnips/internal/turnips"
	"github.com/Alias1177/Turnips/models"
)

// minShownProbability hides patterns that are practically ruled out.
const minShownProbability = 0.01

var dayAbbrev = [...]string{"Mo", "Tu", "We", "Th", "Fr", "Sa"}

// PatternSummary lists the patterns holding at least one percent of the
// posterior.
func PatternSummary(dist [turnips.PatternCount]float64) string {
	var b strings.Builder
	b.WriteString("Your current pattern is:\n\n")
	for _, pattern := range turnips.Patterns() {
		if dist[pattern] < minShownProbability {
			continue
		}
		fmt.Fprintf(&b, "%s: %.2f%%\n", pattern, dist[pattern]*100)
	}
	return b.String()
}

// ProfitTable prints the chance of beating the threshold for every selling
// slot from fromSlot onwards. Sunday starts at Monday AM.
func ProfitTable(probs [turnips.SlotCount]float64, fromSlot int) string {
	start := max(fromSlot, turnips.FirstSellSlot)

	var b strings.Builder
	b.WriteString("Your profit probability is:\n```\n")
	for slot := start; slot < turnips.SlotCount; slot++ {
		fmt.Fprintf(&b, "%s %.2f%%\n", rowLabel(slot, slot == start), probs[slot]*100)
	}
	b.WriteString("```")
	return b.String()
}

// rowLabel prints the day only on AM rows, or on the first row of a table.
func rowLabel(slot int, first bool) string {
	day := dayAbbrev[slot/2-1]
	if slot%2 == 0 {
		return day + " AM"
	}
	if first {
		return day + " PM"
	}
	return "   PM"
}

// MaxSellPrice states the highest price the island can still see this week.
func MaxSellPrice(pred *turnips.Prediction) string {
	return fmt.Sprintf("Your sell price this week will not be greater than %d bells", pred.Summary.WeekMax)
}

// PredictionTable prints the probability and the price range of every slot,
// for all patterns combined and for each pattern still possible.
func PredictionTable(pred *turnips.Prediction) string {
	var b strings.Builder
	b.WriteString("```\n")
	writeRow(&b, "All patterns", pred.Summary)
	for _, pp := range pred.Patterns {
		if pp.Probability <= 0 {
			continue
		}
		writeRow(&b, fmt.Sprintf("%s %.2f%%", pp.Pattern, pp.Probability*100), pp)
	}
	b.WriteString("```")
	return b.String()
}

func writeRow(b *strings.Builder, title string, pp turnips.PatternPrediction) {
	fmt.Fprintf(b, "%s (min %d, max %d)\n", title, pp.WeekMin, pp.WeekMax)
	for slot := turnips.FirstSellSlot; slot < turnips.SlotCount; slot++ {
		r := pp.Prices[slot]
		if r.Min == r.Max {
			fmt.Fprintf(b, "  %s %d\n", models.SlotLabel(slot), r.Min)
			continue
		}
		fmt.Fprintf(b, "  %s %d..%d\n", models.SlotLabel(slot), r.Min, r.Max)
	}
}

// ProphetLink links the island's week on turnipprophet.io.
func ProphetLink(name string, week *models.TurnipWeek) string {
	var prices [turnips.SlotCount]int
	pattern := turnips.Unknown
	if week != nil {
		prices, pattern = week.Prices, week.PastPattern
	}
	return fmt.Sprintf("[%s's turnip prices](https://turnipprophet.io?prices=%s&pattern=%d)",
		name, models.FormatPrices(prices), int(pattern))
}
