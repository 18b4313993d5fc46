package signals

import (
	"testing"
	"time"

	"github.com/commercesignal/engine/internal/model"
)

func TestCalculator_ShortWindowDegradesGracefully(t *testing.T) {
	calc := NewCalculator(testBase, 14)
	now := t0.AddDate(0, 0, 1)

	scores := calc.Compute([]model.ProductSnapshot{snapAt(0, 50, 100, 10)}, nil, now)

	if scores.Confidence != model.ConfidenceLow {
		t.Errorf("expected low confidence, got %q", scores.Confidence)
	}
	if scores.TrendScore != 0 {
		t.Errorf("expected zero trend, got %.2f", scores.TrendScore)
	}
	if scores.CompetitionScore != 50 {
		t.Errorf("expected neutral competition, got %.2f", scores.CompetitionScore)
	}
	if !scores.ComputedAt.Equal(now) {
		t.Errorf("expected ComputedAt %s, got %s", now, scores.ComputedAt)
	}
}

func TestCalculator_WindowBoundsRecorded(t *testing.T) {
	calc := NewCalculator(testBase, 14)
	window := []model.ProductSnapshot{
		snapAt(5, 50, 100, 20), // deliberately out of order
		snapAt(0, 50, 120, 10),
		snapAt(10, 50, 90, 30),
	}
	scores := calc.Compute(window, nil, time.Now())

	if !scores.WindowStart.Equal(t0) {
		t.Errorf("expected window start %s, got %s", t0, scores.WindowStart)
	}
	if !scores.WindowEnd.Equal(t0.AddDate(0, 0, 10)) {
		t.Errorf("expected window end %s, got %s", t0.AddDate(0, 0, 10), scores.WindowEnd)
	}
}

func TestCalculator_RichWindowEarnsHighConfidence(t *testing.T) {
	calc := NewCalculator(testBase, 14)
	window := make([]model.ProductSnapshot, 0, 30)
	for day := 0; day < 30; day++ {
		window = append(window, snapAt(day, 50, 500-day*5, 100+day*3))
	}
	rev := &model.RevenueEstimate{Confidence: model.ConfidenceHigh}

	scores := calc.Compute(window, rev, time.Now())
	if scores.Confidence != model.ConfidenceHigh {
		t.Errorf("expected high confidence for 30 daily snapshots, got %q", scores.Confidence)
	}
}

func TestCalculator_ScoresStayInRange(t *testing.T) {
	calc := NewCalculator(testBase, 14)
	window := make([]model.ProductSnapshot, 0, 20)
	for day := 0; day < 20; day++ {
		snap := withSellers(snapAt(day, 100+float64(day*10), 10, 1000+day*500), 60, "alpha")
		if day%3 == 0 {
			snap = outOfStock(snap)
		}
		window = append(window, snap)
	}

	scores := calc.Compute(window, nil, time.Now())
	if scores.DemandScore < 0 || scores.DemandScore > 100 {
		t.Errorf("demand out of range: %.2f", scores.DemandScore)
	}
	if scores.CompetitionScore < 0 || scores.CompetitionScore > 100 {
		t.Errorf("competition out of range: %.2f", scores.CompetitionScore)
	}
	if scores.TrendScore < -100 || scores.TrendScore > 100 {
		t.Errorf("trend out of range: %.2f", scores.TrendScore)
	}
	if scores.RiskScore < 0 || scores.RiskScore > 100 {
		t.Errorf("risk out of range: %.2f", scores.RiskScore)
	}
}
