package signals

import (
	"fmt"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/model"
)

// CompetitionSignals are the raw window measurements behind a competition
// score.
type CompetitionSignals struct {
	AvgSellerCount      float64
	ReviewConcentration float64 // 0-1 Herfindahl-style, higher = more concentrated
	BuyboxVolatility    float64 // 0-1 share of buybox handovers
}

// CompetitionResult is a competition score with its inputs. Higher score
// means more competition.
type CompetitionResult struct {
	Score          float64 // 0-100
	Signals        CompetitionSignals
	BarrierToEntry string // "Low", "Medium", "High", "Unknown"
	Interpretation string
}

const (
	weightSellerCount         = 0.4
	weightReviewConcentration = 0.3
	weightBuyboxVolatility    = 0.3
)

// Competition computes the competition score over a trailing window. An
// empty or signal-less window returns the neutral 50 with an Unknown
// barrier rather than failing.
func Competition(window []model.ProductSnapshot, base config.Baselines) CompetitionResult {
	if len(window) == 0 {
		return CompetitionResult{
			Score:          50,
			BarrierToEntry: "Unknown",
			Interpretation: "Insufficient data for competition analysis",
		}
	}
	sorted := sortWindow(window)

	avgSellers, sellersOK := avgSellerCount(sorted)
	concentration, concentrationOK := buyboxConcentration(sorted)
	volatility, volatilityOK := buyboxVolatility(sorted)

	sig := CompetitionSignals{
		AvgSellerCount:      avgSellers,
		ReviewConcentration: concentration,
		BuyboxVolatility:    volatility,
	}

	// Lower concentration means more small players fighting, so the term
	// inverts before weighting.
	score, ok := weightedScore([]term{
		{value: clamp01(avgSellers / base.MaxSellerCount), weight: weightSellerCount, present: sellersOK},
		{value: 1 - concentration, weight: weightReviewConcentration, present: concentrationOK},
		{value: volatility, weight: weightBuyboxVolatility, present: volatilityOK},
	})
	if !ok {
		return CompetitionResult{
			Score:          50,
			Signals:        sig,
			BarrierToEntry: "Unknown",
			Interpretation: "No competition signals present",
		}
	}

	result := CompetitionResult{Score: clamp(score*100, 0, 100), Signals: sig}
	result.BarrierToEntry = assessBarrier(result.Score, sig, concentrationOK)
	result.Interpretation = interpretCompetition(result.Score, sig)
	return result
}

func avgSellerCount(window []model.ProductSnapshot) (float64, bool) {
	var sum float64
	var n int
	for _, s := range window {
		if s.SellerCount == nil {
			continue
		}
		sum += float64(*s.SellerCount)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// buyboxConcentration measures how concentrated buybox ownership is across
// the window, as a proxy for review concentration with the dominant seller.
func buyboxConcentration(window []model.ProductSnapshot) (float64, bool) {
	counts := make(map[string]int)
	total := 0
	for _, s := range window {
		if s.BuyboxSeller == "" {
			continue
		}
		counts[s.BuyboxSeller]++
		total++
	}
	if total == 0 {
		return 0, false
	}
	var concentration float64
	for _, c := range counts {
		share := float64(c) / float64(total)
		concentration += share * share
	}
	return concentration, true
}

// buyboxVolatility is the share of consecutive observations where the
// buybox changed hands.
func buyboxVolatility(window []model.ProductSnapshot) (float64, bool) {
	var owners []string
	for _, s := range window {
		if s.BuyboxSeller != "" {
			owners = append(owners, s.BuyboxSeller)
		}
	}
	if len(owners) < 2 {
		return 0, false
	}
	changes := 0
	for i := 1; i < len(owners); i++ {
		if owners[i] != owners[i-1] {
			changes++
		}
	}
	return float64(changes) / float64(len(owners)-1), true
}

func assessBarrier(score float64, sig CompetitionSignals, concentrationKnown bool) string {
	if concentrationKnown && sig.ReviewConcentration > 0.7 {
		return "High" // one established seller dominates
	}
	switch {
	case score > 70:
		return "Low" // many competitors, easy to enter
	case score > 40:
		return "Medium"
	default:
		return "High"
	}
}

func interpretCompetition(score float64, sig CompetitionSignals) string {
	var level, desc string
	switch {
	case score >= 80:
		level, desc = "Extremely Competitive", "Many sellers actively competing for this product"
	case score >= 60:
		level, desc = "Highly Competitive", "Significant seller competition present"
	case score >= 40:
		level, desc = "Moderately Competitive", "Normal competitive environment"
	case score >= 20:
		level, desc = "Low Competition", "Limited seller competition"
	default:
		level, desc = "Very Low Competition", "Dominated by few sellers"
	}
	return fmt.Sprintf("%s. %s. Average of %.1f sellers.", level, desc, sig.AvgSellerCount)
}
