package signals

import (
	"fmt"

	"github.com/commercesignal/engine/internal/model"
)

// TrendSignals are the raw half-window growth measurements behind a trend
// score.
type TrendSignals struct {
	ReviewVelocityGrowth float64 // fractional change in review velocity
	RankAcceleration     float64 // change in daily rank-improvement rate
	PriceGrowth          float64 // fractional price change over the window
}

// TrendResult is a signed trend score.
type TrendResult struct {
	Score          float64 // -100..100, negative = declining
	Direction      string  // "Accelerating", "Stable", "Declining", "Unknown"
	Signals        TrendSignals
	Interpretation string
}

const (
	weightReviewGrowth = 0.5
	weightRankAccel    = 0.3
	weightPriceGrowth  = 0.2
)

// Trend computes the signed trajectory score by comparing the first and
// second halves of the window. Short or sparse windows compress the score
// toward zero through the confidence factor; fewer than 2 snapshots yields
// exactly zero.
func Trend(window []model.ProductSnapshot, minTrendDays int) TrendResult {
	if len(window) < 2 {
		return TrendResult{Direction: "Unknown", Interpretation: "Insufficient data for trend analysis"}
	}
	sorted := sortWindow(window)

	mid := len(sorted) / 2
	firstHalf, secondHalf := sorted[:mid], sorted[mid:]

	reviewGrowth, reviewOK := velocityGrowth(firstHalf, secondHalf)
	rankAccel, rankOK := rankAcceleration(firstHalf, secondHalf)
	priceGrowth, priceOK := priceChange(sorted)

	sig := TrendSignals{
		ReviewVelocityGrowth: reviewGrowth,
		RankAcceleration:     rankAccel,
		PriceGrowth:          priceGrowth,
	}

	score, ok := weightedScore([]term{
		{value: clamp(reviewGrowth/2.0, -1, 1), weight: weightReviewGrowth, present: reviewOK},
		{value: clamp(rankAccel, -1, 1), weight: weightRankAccel, present: rankOK},
		{value: clamp(priceGrowth/0.5, -1, 1), weight: weightPriceGrowth, present: priceOK},
	})
	if !ok {
		return TrendResult{Signals: sig, Direction: "Unknown", Interpretation: "No trend signals present"}
	}

	// Compress toward zero when the window is shorter or sparser than the
	// configured minimum; a two-point window should not claim a strong trend.
	confidence := windowConfidence(sorted, minTrendDays)
	final := clamp(score*100*confidence, -100, 100)

	result := TrendResult{Score: final, Signals: sig, Direction: trendDirection(final)}
	result.Interpretation = interpretTrend(final, sig)
	return result
}

// windowConfidence scales with both window span and observation density,
// capped at 1.
func windowConfidence(window []model.ProductSnapshot, minTrendDays int) float64 {
	if minTrendDays <= 0 {
		minTrendDays = 14
	}
	span := spanDays(window)
	spanFactor := clamp01(span / float64(minTrendDays))
	densityFactor := clamp01(float64(len(window)) / float64(minTrendDays))
	return spanFactor * (0.5 + 0.5*densityFactor)
}

func velocityGrowth(firstHalf, secondHalf []model.ProductSnapshot) (float64, bool) {
	v1, ok1 := reviewVelocity(firstHalf)
	v2, ok2 := reviewVelocity(secondHalf)
	if !ok1 || !ok2 {
		return 0, false
	}
	if v1 == 0 {
		if v2 > 0 {
			return 1, true
		}
		return 0, true
	}
	return (v2 - v1) / abs(v1), true
}

func rankAcceleration(firstHalf, secondHalf []model.ProductSnapshot) (float64, bool) {
	r1, ok1 := rankImprovementRate(firstHalf)
	r2, ok2 := rankImprovementRate(secondHalf)
	if !ok1 || !ok2 {
		return 0, false
	}
	if r1 == 0 {
		return r2, true
	}
	return (r2 - r1) / abs(r1), true
}

// rankImprovementRate is the daily fractional rank improvement for a period.
func rankImprovementRate(window []model.ProductSnapshot) (float64, bool) {
	improvement, ok := rankImprovement(window)
	if !ok {
		return 0, false
	}
	days := spanDays(window)
	if days <= 0 {
		return 0, false
	}
	return improvement / days, true
}

func trendDirection(score float64) string {
	switch {
	case score > 20:
		return "Accelerating"
	case score < -20:
		return "Declining"
	default:
		return "Stable"
	}
}

func interpretTrend(score float64, sig TrendSignals) string {
	var desc string
	switch {
	case score > 50:
		desc = "Strong upward momentum"
	case score > 20:
		desc = "Positive trend detected"
	case score > -20:
		desc = "Relatively stable performance"
	case score > -50:
		desc = "Showing signs of decline"
	default:
		desc = "Significant downward trend"
	}

	var details []string
	if abs(sig.ReviewVelocityGrowth) > 0.2 {
		details = append(details, fmt.Sprintf("%+.0f%% review velocity", sig.ReviewVelocityGrowth*100))
	}
	if abs(sig.PriceGrowth) > 0.05 {
		details = append(details, fmt.Sprintf("%+.1f%% price", sig.PriceGrowth*100))
	}
	if len(details) == 0 {
		return desc + "."
	}
	out := desc + " ("
	for i, d := range details {
		if i > 0 {
			out += ", "
		}
		out += d
	}
	return out + ")."
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
