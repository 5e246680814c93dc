package engine

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ============================================================================
// TEXT BUILDER — Growth captions and number formatting
// ============================================================================

// Growth directions.
const (
	DirectionIncreased    = "increased"
	DirectionDecreased    = "decreased"
	DirectionUnchanged    = "unchanged"
	DirectionInsufficient = "insufficient data"
)

// BuildGrowth computes change metrics between the first and last point of
// an ordered series. A series with fewer than two points is reported as
// insufficient data.
func BuildGrowth(series ChartSeries) *GrowthData {
	if len(series.Data) == 0 {
		return &GrowthData{Direction: DirectionInsufficient}
	}

	earliest := series.Data[0]
	latest := series.Data[len(series.Data)-1]
	if len(series.Data) < 2 {
		return &GrowthData{
			EarliestValue:  earliest.Value,
			LatestValue:    earliest.Value,
			EarliestPeriod: earliest.Label,
			LatestPeriod:   earliest.Label,
			Direction:      DirectionInsufficient,
		}
	}

	changeAmount := latest.Value - earliest.Value
	var changePercent float64
	if earliest.Value != 0 {
		changePercent = (changeAmount / earliest.Value) * 100
	}

	direction := DirectionUnchanged
	if changePercent > 0.5 {
		direction = DirectionIncreased
	} else if changePercent < -0.5 {
		direction = DirectionDecreased
	}

	return &GrowthData{
		EarliestValue:  earliest.Value,
		LatestValue:    latest.Value,
		EarliestPeriod: earliest.Label,
		LatestPeriod:   latest.Label,
		ChangeAmount:   changeAmount,
		ChangePercent:  changePercent,
		Direction:      direction,
	}
}

// GrowthCaption renders growth as one line of text, e.g.
// "2010 – 2016: $369.34 → $687.09 (↑ 86.0%)".
func GrowthCaption(g *GrowthData, unit string) string {
	if g == nil || g.Direction == DirectionInsufficient {
		return ""
	}

	var arrow string
	switch g.Direction {
	case DirectionIncreased:
		arrow = fmt.Sprintf("↑ %.1f%%", math.Abs(g.ChangePercent))
	case DirectionDecreased:
		arrow = fmt.Sprintf("↓ %.1f%%", math.Abs(g.ChangePercent))
	default:
		arrow = "→ no change"
	}

	return fmt.Sprintf("%s – %s: %s → %s (%s)",
		g.EarliestPeriod, g.LatestPeriod,
		FormatValue(g.EarliestValue, unit), FormatValue(g.LatestValue, unit), arrow)
}

// ============================================================================
// NUMBER FORMATTING
// ============================================================================

// FormatNumber formats v with English digit grouping and the given number
// of decimals: 379050.25 → "379,050.25".
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return message.NewPrinter(language.English).Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// FormatValue formats v for display in unit. "USD" prefixes a dollar sign,
// any other unit is appended.
func FormatValue(v float64, unit string) string {
	switch unit {
	case "":
		return FormatNumber(v, 2)
	case "USD":
		return "$" + FormatNumber(v, 2)
	default:
		return FormatNumber(v, 2) + " " + unit
	}
}
