package revenue

import (
	"math"
	"sort"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/model"
)

// Bounds keep single bad observations from producing absurd estimates.
const (
	minRankDailySales   = 0.1
	maxRankDailySales   = 10000
	minReviewDailySales = 0.5
	maxReviewDailySales = 5000
)

// Estimator converts rank or review velocity into sales and revenue
// figures using calibration constants supplied as configuration.
type Estimator struct {
	cal config.Calibration
}

// NewEstimator creates an estimator with the given calibration tables.
func NewEstimator(cal config.Calibration) *Estimator {
	return &Estimator{cal: cal}
}

// Estimate produces a revenue estimate for the newest snapshot in the
// window. Rank drives the power-law model; platforms without rank fall back
// to the review-velocity model at reduced confidence. Absence of any usable
// signal yields a zero estimate with low confidence, never an error.
func (e *Estimator) Estimate(window []model.ProductSnapshot) model.RevenueEstimate {
	if len(window) == 0 {
		return model.RevenueEstimate{Confidence: model.ConfidenceLow, Method: MethodForWindow(nil)}
	}

	sorted := make([]model.ProductSnapshot, len(window))
	copy(sorted, window)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	latest := sorted[len(sorted)-1]

	if latest.Rank != nil && *latest.Rank > 0 {
		return e.fromRank(latest, sorted)
	}
	return e.fromReviews(latest, sorted)
}

// EstimatePoint estimates daily sales from a single snapshot, used when
// building the forecaster's per-day sales series. Returns 0 when the
// snapshot carries no usable signal.
func (e *Estimator) EstimatePoint(snap model.ProductSnapshot) float64 {
	if snap.Rank != nil && *snap.Rank > 0 {
		p := e.cal.PowerLawFor(snap.Category)
		return boundedPowerLaw(*snap.Rank, p)
	}
	// Single-point review data carries no velocity; use the model's base
	// rate only.
	rm := e.cal.ReviewModelFor(snap.Category)
	return rm.Base
}

func (e *Estimator) fromRank(latest model.ProductSnapshot, window []model.ProductSnapshot) model.RevenueEstimate {
	p := e.cal.PowerLawFor(latest.Category)
	dailySales := boundedPowerLaw(*latest.Rank, p)

	est := model.RevenueEstimate{
		DailySales:     round2(dailySales),
		MonthlyUnits:   int(dailySales * 30),
		MonthlyRevenue: round2(dailySales * 30 * latest.Price),
		Currency:       latest.Currency,
		Method:         model.MethodRankPowerLaw,
	}
	est.Confidence = gradeConfidence(rankConfidence(window, latest))
	return est
}

func (e *Estimator) fromReviews(latest model.ProductSnapshot, window []model.ProductSnapshot) model.RevenueEstimate {
	velocity, ok := windowReviewVelocity(window)
	if !ok {
		// No rank and no review velocity: best-effort zero, flagged low.
		return model.RevenueEstimate{
			Currency:   latest.Currency,
			Confidence: model.ConfidenceLow,
			Method:     model.MethodReviewVelocity,
		}
	}

	rm := e.cal.ReviewModelFor(latest.Category)
	dailySales := rm.Base + velocity*rm.Multiplier
	if dailySales < minReviewDailySales {
		dailySales = minReviewDailySales
	}
	if dailySales > maxReviewDailySales {
		dailySales = maxReviewDailySales
	}

	est := model.RevenueEstimate{
		DailySales:     round2(dailySales),
		MonthlyUnits:   int(dailySales * 30),
		MonthlyRevenue: round2(dailySales * 30 * latest.Price),
		Currency:       latest.Currency,
		Method:         model.MethodReviewVelocity,
	}

	// Review-based estimation never grades above medium.
	score := 0.4
	if len(window) >= 30 {
		score += 0.15
	} else if len(window) >= 14 {
		score += 0.1
	}
	if latest.ReviewCount != nil && *latest.ReviewCount > 1000 {
		score += 0.1
	}
	if grade := gradeConfidence(score); grade == model.ConfidenceHigh {
		est.Confidence = model.ConfidenceMedium
	} else {
		est.Confidence = grade
	}
	return est
}

// MethodForWindow reports which model Estimate would use for a window.
func MethodForWindow(window []model.ProductSnapshot) model.EstimateMethod {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Rank != nil && *window[i].Rank > 0 {
			return model.MethodRankPowerLaw
		}
	}
	return model.MethodReviewVelocity
}

func boundedPowerLaw(rank int, p config.PowerLawParams) float64 {
	if rank <= 0 {
		return 0
	}
	sales := p.A * math.Pow(float64(rank), -p.B)
	if sales < minRankDailySales {
		return minRankDailySales
	}
	if sales > maxRankDailySales {
		return maxRankDailySales
	}
	return sales
}

// rankConfidence scores data quality: window depth, rank stability, and
// review base all push the estimate toward high confidence.
func rankConfidence(window []model.ProductSnapshot, latest model.ProductSnapshot) float64 {
	score := 0.5

	if len(window) >= 30 {
		score += 0.2
	} else if len(window) >= 14 {
		score += 0.1
	}

	var ranks []float64
	for _, s := range window {
		if s.Rank != nil {
			ranks = append(ranks, float64(*s.Rank))
		}
	}
	if len(ranks) >= 7 && latest.Rank != nil {
		var sum float64
		for _, r := range ranks {
			sum += r
		}
		avg := sum / float64(len(ranks))
		if avg > 0 {
			deviation := math.Abs(float64(*latest.Rank)-avg) / avg
			if deviation < 0.1 {
				score += 0.1
			} else if deviation < 0.25 {
				score += 0.05
			}
		}
	}

	if latest.ReviewCount != nil {
		if *latest.ReviewCount > 1000 {
			score += 0.1
		} else if *latest.ReviewCount > 100 {
			score += 0.05
		}
	}

	return score
}

func gradeConfidence(score float64) model.Confidence {
	switch {
	case score >= 0.7:
		return model.ConfidenceHigh
	case score >= 0.45:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func windowReviewVelocity(window []model.ProductSnapshot) (float64, bool) {
	var firstIdx, lastIdx = -1, -1
	for i := range window {
		if window[i].ReviewCount == nil {
			continue
		}
		if firstIdx == -1 {
			firstIdx = i
		}
		lastIdx = i
	}
	if firstIdx == -1 || firstIdx == lastIdx {
		return 0, false
	}
	days := window[lastIdx].Timestamp.Sub(window[firstIdx].Timestamp).Hours() / 24
	if days <= 0 {
		return 0, false
	}
	return float64(*window[lastIdx].ReviewCount-*window[firstIdx].ReviewCount) / days, true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
