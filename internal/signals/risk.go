package signals

import (
	"fmt"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/model"
)

// RiskSignals are the raw window measurements behind a risk score.
type RiskSignals struct {
	ReviewSpikeDetected  bool
	ReviewSpikeMagnitude float64 // max daily review gain / average daily gain
	SellerChurnRate      float64 // share of observations where seller count moved
	RatingVolatility     float64 // sample std dev of ratings
}

// RiskResult is a risk score with the specific flags that produced it.
type RiskResult struct {
	Score          float64 // 0-100, higher = more risk
	Level          string  // "Low", "Medium", "High", "Critical", "Unknown"
	Signals        RiskSignals
	Flags          []model.RiskFlag
	Interpretation string
}

const (
	weightReviewSpike      = 0.4
	weightSellerChurn      = 0.3
	weightRatingVolatility = 0.3

	reviewSpikeThreshold    = 3.0 // x normal velocity counts as a spike
	highChurnThreshold      = 0.3
	highVolatilityThreshold = 0.5
)

// Risk scans the window for review-manipulation patterns, seller churn and
// quality decline. Windows shorter than 2 snapshots score zero with an
// Unknown level.
func Risk(window []model.ProductSnapshot, base config.Baselines) RiskResult {
	if len(window) < 2 {
		return RiskResult{Level: "Unknown", Interpretation: "Insufficient data for risk analysis"}
	}
	sorted := sortWindow(window)

	spikeDetected, spikeMagnitude, spikeOK := detectReviewSpike(sorted)
	churn, churnOK := sellerChurn(sorted)
	ratingVol, ratingOK := ratingVolatility(sorted)

	sig := RiskSignals{
		ReviewSpikeDetected:  spikeDetected,
		ReviewSpikeMagnitude: spikeMagnitude,
		SellerChurnRate:      churn,
		RatingVolatility:     ratingVol,
	}

	score, ok := weightedScore([]term{
		{value: clamp01(spikeMagnitude / base.MaxReviewSpike), weight: weightReviewSpike, present: spikeOK},
		{value: clamp01(churn / base.MaxSellerChurn), weight: weightSellerChurn, present: churnOK},
		{value: clamp01(ratingVol / base.MaxRatingStdDev), weight: weightRatingVolatility, present: ratingOK},
	})
	if !ok {
		return RiskResult{Signals: sig, Level: "Unknown", Interpretation: "No risk signals present"}
	}

	result := RiskResult{Score: clamp(score*100, 0, 100), Signals: sig}
	result.Flags = riskFlags(sig)
	result.Level = riskLevel(result.Score)
	result.Interpretation = interpretRisk(result.Flags)
	return result
}

// detectReviewSpike looks for a daily review gain far above the window
// average. A spike that coincides with a comparable rank improvement is
// organic demand, not manipulation, so it is dampened.
func detectReviewSpike(window []model.ProductSnapshot) (bool, float64, bool) {
	var gains []float64
	var prev *int
	for i := range window {
		if window[i].ReviewCount == nil {
			continue
		}
		if prev != nil {
			gain := float64(*window[i].ReviewCount - *prev)
			if gain < 0 {
				gain = 0
			}
			gains = append(gains, gain)
		}
		prev = window[i].ReviewCount
	}
	if len(gains) < 3 {
		return false, 0, false
	}

	avg := mean(gains)
	if avg == 0 {
		return false, 0, true
	}
	maxGain := gains[0]
	for _, g := range gains {
		if g > maxGain {
			maxGain = g
		}
	}
	magnitude := maxGain / avg

	// A matching rank improvement explains the velocity: halve the signal.
	if improvement, ok := rankImprovement(window); ok && improvement > 0.2 {
		magnitude /= 2
	}

	return magnitude > reviewSpikeThreshold, magnitude, true
}

func sellerChurn(window []model.ProductSnapshot) (float64, bool) {
	var counts []int
	for _, s := range window {
		if s.SellerCount != nil {
			counts = append(counts, *s.SellerCount)
		}
	}
	if len(counts) < 2 {
		return 0, false
	}
	changes := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] != counts[i-1] {
			changes++
		}
	}
	return float64(changes) / float64(len(counts)-1), true
}

func ratingVolatility(window []model.ProductSnapshot) (float64, bool) {
	var ratings []float64
	for _, s := range window {
		if s.Rating != nil {
			ratings = append(ratings, *s.Rating)
		}
	}
	if len(ratings) < 2 {
		return 0, false
	}
	return stdDev(ratings), true
}

func riskFlags(sig RiskSignals) []model.RiskFlag {
	var flags []model.RiskFlag

	if sig.ReviewSpikeDetected {
		severity := "low"
		if sig.ReviewSpikeMagnitude > 5 {
			severity = "high"
		} else if sig.ReviewSpikeMagnitude > 3 {
			severity = "medium"
		}
		flags = append(flags, model.RiskFlag{
			Category:    "review_manipulation",
			Severity:    severity,
			Description: fmt.Sprintf("Unusual review spike detected (%.1fx normal rate)", sig.ReviewSpikeMagnitude),
		})
	}

	if sig.SellerChurnRate > highChurnThreshold {
		flags = append(flags, model.RiskFlag{
			Category:    "seller_instability",
			Severity:    "medium",
			Description: fmt.Sprintf("High seller turnover (%.0f%% churn rate)", sig.SellerChurnRate*100),
		})
	}

	if sig.RatingVolatility > highVolatilityThreshold {
		flags = append(flags, model.RiskFlag{
			Category:    "quality_issues",
			Severity:    "medium",
			Description: fmt.Sprintf("Rating volatility detected (stddev %.2f)", sig.RatingVolatility),
		})
	}

	return flags
}

func riskLevel(score float64) string {
	switch {
	case score >= 70:
		return "Critical"
	case score >= 50:
		return "High"
	case score >= 25:
		return "Medium"
	default:
		return "Low"
	}
}

func interpretRisk(flags []model.RiskFlag) string {
	if len(flags) == 0 {
		return "No significant risk factors detected."
	}
	for _, f := range flags {
		if f.Severity == "high" {
			return "Critical risk: " + f.Description
		}
	}
	out := "Risk factors: "
	limit := len(flags)
	if limit > 2 {
		limit = 2
	}
	for i := 0; i < limit; i++ {
		if i > 0 {
			out += "; "
		}
		out += flags[i].Description
	}
	return out
}
