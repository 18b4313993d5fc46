package signals

import (
	"fmt"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/model"
)

// DemandSignals are the raw window measurements behind a demand score.
type DemandSignals struct {
	ReviewVelocity    float64 // reviews per day
	RankImprovement   float64 // fractional improvement, positive = better
	StockoutFrequency float64 // share of out-of-stock observations
	PriceIncrease     float64 // fractional price change, positive only counts
}

// DemandResult is a demand score with its inputs and interpretation.
type DemandResult struct {
	Score          float64 // 0-100
	Signals        DemandSignals
	Interpretation string
}

// Demand weights. Review velocity dominates because it is the most direct
// observable proxy for purchase volume.
const (
	weightReviewVelocity    = 0.4
	weightRankImprovement   = 0.3
	weightStockoutFrequency = 0.2
	weightPriceIncrease     = 0.1
)

// Demand computes the demand score over a trailing window. Missing inputs
// redistribute their weight proportionally across the present terms. Fewer
// than 2 snapshots yields a zero score, not an error.
func Demand(window []model.ProductSnapshot, base config.Baselines) DemandResult {
	if len(window) < 2 {
		return DemandResult{Interpretation: "Insufficient data for demand calculation"}
	}
	sorted := sortWindow(window)

	velocity, velocityOK := reviewVelocity(sorted)
	improvement, improvementOK := rankImprovement(sorted)
	stockout := stockoutFrequency(sorted)
	price, priceOK := priceChange(sorted)

	sig := DemandSignals{
		ReviewVelocity:    velocity,
		RankImprovement:   improvement,
		StockoutFrequency: stockout,
		PriceIncrease:     price,
	}

	score, ok := weightedScore([]term{
		{value: clamp01(velocity / base.MaxReviewVelocity), weight: weightReviewVelocity, present: velocityOK},
		{value: clamp01(max(improvement, 0) / base.MaxRankImprovement), weight: weightRankImprovement, present: improvementOK},
		{value: clamp01(stockout / base.MaxStockoutFreq), weight: weightStockoutFrequency, present: true},
		{value: clamp01(max(price, 0) / base.MaxPriceIncrease), weight: weightPriceIncrease, present: priceOK},
	})
	if !ok {
		return DemandResult{Signals: sig, Interpretation: "No demand signals present"}
	}

	result := DemandResult{Score: clamp(score*100, 0, 100), Signals: sig}
	result.Interpretation = interpretDemand(result.Score, sig)
	return result
}

func interpretDemand(score float64, sig DemandSignals) string {
	var level string
	switch {
	case score >= 80:
		level = "Very High Demand"
	case score >= 60:
		level = "High Demand"
	case score >= 40:
		level = "Moderate Demand"
	case score >= 20:
		level = "Low Demand"
	default:
		level = "Very Low Demand"
	}

	var insights []string
	if sig.ReviewVelocity > 10 {
		insights = append(insights, fmt.Sprintf("Strong review velocity (%.1f/day)", sig.ReviewVelocity))
	}
	if sig.RankImprovement > 0.1 {
		insights = append(insights, fmt.Sprintf("Rank improving (%.1f%%)", sig.RankImprovement*100))
	}
	if sig.StockoutFrequency > 0.1 {
		insights = append(insights, "Frequent stockouts indicate demand")
	}
	if sig.PriceIncrease > 0.05 {
		insights = append(insights, "Price trending up")
	}

	if len(insights) == 0 {
		return level + ". Normal demand indicators."
	}
	return level + ". " + joinSentences(insights)
}

func joinSentences(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ". "
		}
		out += p
	}
	return out + "."
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
