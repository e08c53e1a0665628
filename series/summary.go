package series

import (
	"fmt"
	"strconv"

	"neonx-web/errs"
	"neonx-web/models"
)

const (
	DirectionUp   = "price-up"
	DirectionDown = "price-down"
)

// Summarize derives current, high, low and the last-step percent change.
// A one-point series has no previous value and reports a 0% change.
func Summarize(s models.PriceSeries) (models.PriceSummary, error) {
	if len(s) == 0 {
		return models.PriceSummary{}, fmt.Errorf("empty price series: %w", errs.ErrInvalidArgument)
	}

	sum := models.PriceSummary{
		Current: s[len(s)-1],
		High:    s[0],
		Low:     s[0],
	}
	for _, v := range s[1:] {
		if v > sum.High {
			sum.High = v
		}
		if v < sum.Low {
			sum.Low = v
		}
	}

	if len(s) >= 2 {
		sum.ChangePercent = PercentChange(s[len(s)-2], sum.Current)
	}
	return sum, nil
}

// PercentChange returns (current-previous)/previous*100, or 0 when previous is 0.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// FormatPrice renders a price as the widget shows it, e.g. "$0.00012000".
func FormatPrice(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 8, 64)
}

// FormatChange renders a percent change with an explicit sign, e.g. "+1.25%".
func FormatChange(pct float64) string {
	sign := ""
	if pct >= 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(pct, 'f', 2, 64) + "%"
}

// Direction returns the CSS class the change field uses.
func Direction(pct float64) string {
	if pct >= 0 {
		return DirectionUp
	}
	return DirectionDown
}

// Display formats every summary field.
func Display(sum models.PriceSummary) models.DisplayFields {
	return models.DisplayFields{
		CurrentPrice:    FormatPrice(sum.Current),
		High:            FormatPrice(sum.High),
		Low:             FormatPrice(sum.Low),
		ChangePercent:   FormatChange(sum.ChangePercent),
		ChangeDirection: Direction(sum.ChangePercent),
	}
}
