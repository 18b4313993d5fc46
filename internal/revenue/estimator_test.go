package revenue

import (
	"math"
	"testing"
	"time"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/model"
)

var testCal = config.DefaultCalibration()

var t0 = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func rankedSnap(day, rank, reviews int, price float64) model.ProductSnapshot {
	r, rc := rank, reviews
	return model.ProductSnapshot{
		Platform:    model.PlatformAmazon,
		ProductID:   "B000TEST01",
		Timestamp:   t0.AddDate(0, 0, day),
		Price:       price,
		Currency:    "USD",
		Rank:        &r,
		ReviewCount: &rc,
		InStock:     true,
		Category:    "Electronics",
	}
}

func flipkartSnap(day, reviews int, price float64) model.ProductSnapshot {
	rc := reviews
	return model.ProductSnapshot{
		Platform:    model.PlatformFlipkart,
		ProductID:   "FKPRODTEST0001AB",
		Timestamp:   t0.AddDate(0, 0, day),
		Price:       price,
		Currency:    "INR",
		ReviewCount: &rc,
		InStock:     true,
		Category:    "Mobiles",
	}
}

func TestEstimate_PowerLawDecreasesWithRank(t *testing.T) {
	est := NewEstimator(testCal)

	top := est.Estimate([]model.ProductSnapshot{rankedSnap(0, 1, 500, 50)})
	mid := est.Estimate([]model.ProductSnapshot{rankedSnap(0, 100, 500, 50)})
	deep := est.Estimate([]model.ProductSnapshot{rankedSnap(0, 1000, 500, 50)})

	if !(top.DailySales > mid.DailySales && mid.DailySales > deep.DailySales) {
		t.Errorf("daily sales must strictly decrease with rank: %v > %v > %v",
			top.DailySales, mid.DailySales, deep.DailySales)
	}
	if top.Method != model.MethodRankPowerLaw {
		t.Errorf("expected rank_power_law, got %q", top.Method)
	}
}

func TestEstimate_KnownRankValue(t *testing.T) {
	est := NewEstimator(testCal)
	// Electronics: a=50000, b=0.8. rank 1000 -> 50000 * 1000^-0.8 = 125.59
	result := est.Estimate([]model.ProductSnapshot{rankedSnap(0, 1000, 500, 20)})

	expectedDaily := 50000 * math.Pow(1000, -0.8)
	if math.Abs(result.DailySales-expectedDaily) > 0.01 {
		t.Errorf("expected daily sales %.2f, got %.2f", expectedDaily, result.DailySales)
	}
	expectedMonthly := expectedDaily * 30 * 20
	if math.Abs(result.MonthlyRevenue-expectedMonthly) > 0.5 {
		t.Errorf("expected monthly revenue %.2f, got %.2f", expectedMonthly, result.MonthlyRevenue)
	}
}

func TestEstimate_RankOneIsClamped(t *testing.T) {
	est := NewEstimator(testCal)
	// Rank 1 in Electronics hits the upper bound: 50000 clamps to 10000/day.
	result := est.Estimate([]model.ProductSnapshot{rankedSnap(0, 1, 500, 50)})
	if result.DailySales != 10000 {
		t.Errorf("expected clamped daily sales 10000, got %.2f", result.DailySales)
	}
}

func TestEstimate_ReviewVelocityFallback(t *testing.T) {
	est := NewEstimator(testCal)
	// Flipkart has no rank: 10 days, reviews 100->200 is 10/day.
	// Mobiles: base 8 + 10*12 = 128/day.
	window := []model.ProductSnapshot{
		flipkartSnap(0, 100, 2000),
		flipkartSnap(10, 200, 2000),
	}
	result := est.Estimate(window)

	if result.Method != model.MethodReviewVelocity {
		t.Fatalf("expected review_velocity method, got %q", result.Method)
	}
	if math.Abs(result.DailySales-128) > 0.01 {
		t.Errorf("expected daily sales 128, got %.2f", result.DailySales)
	}
	if result.Currency != "INR" {
		t.Errorf("expected INR, got %q", result.Currency)
	}
}

func TestEstimate_ReviewMethodNeverGradesHigh(t *testing.T) {
	est := NewEstimator(testCal)
	window := make([]model.ProductSnapshot, 0, 35)
	for day := 0; day < 35; day++ {
		window = append(window, flipkartSnap(day, 2000+day*50, 1500))
	}
	result := est.Estimate(window)

	if result.Confidence == model.ConfidenceHigh {
		t.Error("review-based estimates must cap at medium confidence")
	}
}

func TestEstimate_NoSignalsYieldsZeroLowConfidence(t *testing.T) {
	est := NewEstimator(testCal)
	snap := flipkartSnap(0, 0, 1000)
	snap.ReviewCount = nil
	result := est.Estimate([]model.ProductSnapshot{snap})

	if result.DailySales != 0 || result.MonthlyRevenue != 0 {
		t.Errorf("expected zero estimate, got %+v", result)
	}
	if result.Confidence != model.ConfidenceLow {
		t.Errorf("expected low confidence, got %q", result.Confidence)
	}
}

func TestEstimate_StableRankEarnsMoreConfidence(t *testing.T) {
	_ = NewEstimator(testCal)

	stable := make([]model.ProductSnapshot, 0, 30)
	volatile := make([]model.ProductSnapshot, 0, 30)
	for day := 0; day < 30; day++ {
		stable = append(stable, rankedSnap(day, 500, 2000, 50))
		r := 500
		if day%2 == 0 {
			r = 5000
		}
		volatile = append(volatile, rankedSnap(day, r, 20, 50))
	}

	s := rankConfidence(stable, stable[len(stable)-1])
	v := rankConfidence(volatile, volatile[len(volatile)-1])
	if s <= v {
		t.Errorf("stable rank history should score higher confidence: stable=%.2f volatile=%.2f", s, v)
	}
	if grade := gradeConfidence(s); grade != model.ConfidenceHigh {
		t.Errorf("deep stable window should grade high, got %q", grade)
	}
}

func TestEstimatePoint_UsesRankWhenPresent(t *testing.T) {
	est := NewEstimator(testCal)
	withRank := est.EstimatePoint(rankedSnap(0, 1000, 500, 50))
	withoutRank := est.EstimatePoint(flipkartSnap(0, 500, 50))

	expected := 50000 * math.Pow(1000, -0.8)
	if math.Abs(withRank-expected) > 0.01 {
		t.Errorf("expected %.2f from rank, got %.2f", expected, withRank)
	}
	// Mobiles base rate.
	if withoutRank != 8 {
		t.Errorf("expected base rate 8 without rank, got %.2f", withoutRank)
	}
}
