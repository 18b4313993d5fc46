package signals

import (
	"testing"

	"github.com/commercesignal/engine/internal/model"
)

func TestRisk_InsufficientData(t *testing.T) {
	result := Risk([]model.ProductSnapshot{snapAt(0, 50, 100, 10)}, testBase)
	if result.Level != "Unknown" {
		t.Errorf("expected Unknown level, got %q", result.Level)
	}
	if result.Score != 0 {
		t.Errorf("expected zero score, got %.2f", result.Score)
	}
}

func TestRisk_ReviewSpikeFlagged(t *testing.T) {
	// Steady 5 reviews/day, then a one-day burst of 200 with no rank move.
	window := []model.ProductSnapshot{
		snapAt(0, 50, 500, 100),
		snapAt(1, 50, 500, 105),
		snapAt(2, 50, 500, 110),
		snapAt(3, 50, 500, 115),
		snapAt(4, 50, 500, 315),
	}
	result := Risk(window, testBase)

	if !result.Signals.ReviewSpikeDetected {
		t.Fatal("expected review spike to be detected")
	}
	found := false
	for _, f := range result.Flags {
		if f.Category == "review_manipulation" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected review_manipulation flag, got %+v", result.Flags)
	}
}

func TestRisk_SpikeWithRankImprovementIsDampened(t *testing.T) {
	// Same review burst, but rank improves 60% alongside it: organic surge.
	suspicious := Risk([]model.ProductSnapshot{
		snapAt(0, 50, 500, 100),
		snapAt(1, 50, 500, 105),
		snapAt(2, 50, 500, 110),
		snapAt(3, 50, 500, 115),
		snapAt(4, 50, 500, 315),
	}, testBase)
	organic := Risk([]model.ProductSnapshot{
		snapAt(0, 50, 500, 100),
		snapAt(1, 50, 450, 105),
		snapAt(2, 50, 400, 110),
		snapAt(3, 50, 300, 115),
		snapAt(4, 50, 200, 315),
	}, testBase)

	if organic.Signals.ReviewSpikeMagnitude >= suspicious.Signals.ReviewSpikeMagnitude {
		t.Errorf("rank improvement should dampen spike magnitude: organic=%.2f suspicious=%.2f",
			organic.Signals.ReviewSpikeMagnitude, suspicious.Signals.ReviewSpikeMagnitude)
	}
}

func TestRisk_SellerChurnFlagged(t *testing.T) {
	window := []model.ProductSnapshot{
		withSellers(snapAt(0, 50, 500, 100), 5, "alpha"),
		withSellers(snapAt(1, 50, 500, 105), 9, "alpha"),
		withSellers(snapAt(2, 50, 500, 110), 3, "alpha"),
		withSellers(snapAt(3, 50, 500, 115), 12, "alpha"),
	}
	result := Risk(window, testBase)

	if result.Signals.SellerChurnRate != 1 {
		t.Errorf("expected full churn rate, got %.2f", result.Signals.SellerChurnRate)
	}
	found := false
	for _, f := range result.Flags {
		if f.Category == "seller_instability" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected seller_instability flag, got %+v", result.Flags)
	}
}

func TestRisk_RatingVolatilityFlagged(t *testing.T) {
	window := []model.ProductSnapshot{
		withRating(snapAt(0, 50, 500, 100), 4.8),
		withRating(snapAt(1, 50, 500, 105), 2.1),
		withRating(snapAt(2, 50, 500, 110), 4.5),
		withRating(snapAt(3, 50, 500, 115), 1.9),
	}
	result := Risk(window, testBase)

	found := false
	for _, f := range result.Flags {
		if f.Category == "quality_issues" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected quality_issues flag, got %+v", result.Flags)
	}
}

func TestRisk_CleanWindowScoresLow(t *testing.T) {
	window := []model.ProductSnapshot{
		withRating(withSellers(snapAt(0, 50, 500, 100), 5, "alpha"), 4.5),
		withRating(withSellers(snapAt(1, 50, 500, 105), 5, "alpha"), 4.5),
		withRating(withSellers(snapAt(2, 50, 500, 110), 5, "alpha"), 4.5),
		withRating(withSellers(snapAt(3, 50, 500, 115), 5, "alpha"), 4.5),
	}
	result := Risk(window, testBase)

	if result.Level != "Low" && result.Level != "Medium" {
		t.Errorf("clean window should not be high risk, got %q (%.2f)", result.Level, result.Score)
	}
	if len(result.Flags) != 0 {
		t.Errorf("expected no flags, got %+v", result.Flags)
	}
}
