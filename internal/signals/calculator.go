package signals

import (
	"time"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/model"
)

// Calculator computes the full SignalScores bundle for a product window.
type Calculator struct {
	baselines    config.Baselines
	minTrendDays int
}

// NewCalculator creates a calculator with the given normalization baselines.
func NewCalculator(baselines config.Baselines, minTrendDays int) *Calculator {
	return &Calculator{baselines: baselines, minTrendDays: minTrendDays}
}

// Compute derives demand, competition, trend and risk scores from the
// window. Total function: short or sparse windows degrade confidence
// instead of failing. The revenue estimate, when supplied, only influences
// the confidence grade.
func (c *Calculator) Compute(window []model.ProductSnapshot, rev *model.RevenueEstimate, now time.Time) model.SignalScores {
	scores := model.SignalScores{
		ComputedAt: now.UTC(),
		Confidence: model.ConfidenceLow,
	}
	if len(window) > 0 {
		sorted := sortWindow(window)
		scores.WindowStart = sorted[0].Timestamp
		scores.WindowEnd = sorted[len(sorted)-1].Timestamp
	}
	if len(window) < 2 {
		// trend stays exactly 0, competition falls back to neutral
		scores.CompetitionScore = Competition(window, c.baselines).Score
		return scores
	}

	demand := Demand(window, c.baselines)
	competition := Competition(window, c.baselines)
	trend := Trend(window, c.minTrendDays)
	risk := Risk(window, c.baselines)

	scores.DemandScore = demand.Score
	scores.CompetitionScore = competition.Score
	scores.TrendScore = trend.Score
	scores.RiskScore = risk.Score
	scores.RiskFlags = risk.Flags
	scores.Confidence = c.confidence(window, rev)
	return scores
}

// confidence grades the window richness, nudged by the revenue estimate's
// own confidence.
func (c *Calculator) confidence(window []model.ProductSnapshot, rev *model.RevenueEstimate) model.Confidence {
	points := 0.0
	switch {
	case len(window) >= 30:
		points = 2
	case len(window) >= 14:
		points = 1.5
	case len(window) >= 7:
		points = 1
	default:
		points = 0.5
	}
	if spanDays(window) >= float64(c.minTrendDays) {
		points += 0.5
	}
	if rev != nil && rev.Confidence == model.ConfidenceHigh {
		points += 0.5
	}

	switch {
	case points >= 2:
		return model.ConfidenceHigh
	case points >= 1:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
