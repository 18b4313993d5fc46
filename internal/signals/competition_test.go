package signals

import (
	"testing"

	"github.com/commercesignal/engine/internal/model"
)

func TestCompetition_EmptyWindowIsNeutral(t *testing.T) {
	result := Competition(nil, testBase)
	if result.Score != 50 {
		t.Errorf("expected neutral 50, got %.2f", result.Score)
	}
	if result.BarrierToEntry != "Unknown" {
		t.Errorf("expected Unknown barrier, got %q", result.BarrierToEntry)
	}
}

func TestCompetition_NoSignalsIsNeutral(t *testing.T) {
	// Snapshots with no seller or buybox data at all.
	result := Competition([]model.ProductSnapshot{
		snapAt(0, 50, 100, 10),
		snapAt(1, 50, 100, 12),
	}, testBase)
	if result.Score != 50 {
		t.Errorf("expected neutral 50 without signals, got %.2f", result.Score)
	}
}

func TestCompetition_MoreSellersScoresHigher(t *testing.T) {
	few := Competition([]model.ProductSnapshot{
		withSellers(snapAt(0, 50, 100, 10), 2, "alpha"),
		withSellers(snapAt(1, 50, 100, 12), 2, "alpha"),
	}, testBase)
	many := Competition([]model.ProductSnapshot{
		withSellers(snapAt(0, 50, 100, 10), 40, "alpha"),
		withSellers(snapAt(1, 50, 100, 12), 40, "alpha"),
	}, testBase)

	if many.Score <= few.Score {
		t.Errorf("more sellers must score higher: many=%.2f few=%.2f", many.Score, few.Score)
	}
}

func TestCompetition_BuyboxChurnScoresHigher(t *testing.T) {
	stable := Competition([]model.ProductSnapshot{
		withSellers(snapAt(0, 50, 100, 10), 10, "alpha"),
		withSellers(snapAt(1, 50, 100, 12), 10, "alpha"),
		withSellers(snapAt(2, 50, 100, 14), 10, "alpha"),
		withSellers(snapAt(3, 50, 100, 16), 10, "alpha"),
	}, testBase)
	contested := Competition([]model.ProductSnapshot{
		withSellers(snapAt(0, 50, 100, 10), 10, "alpha"),
		withSellers(snapAt(1, 50, 100, 12), 10, "beta"),
		withSellers(snapAt(2, 50, 100, 14), 10, "gamma"),
		withSellers(snapAt(3, 50, 100, 16), 10, "alpha"),
	}, testBase)

	if contested.Score <= stable.Score {
		t.Errorf("buybox churn must score higher: contested=%.2f stable=%.2f",
			contested.Score, stable.Score)
	}
}

func TestCompetition_DominantBuyboxRaisesBarrier(t *testing.T) {
	result := Competition([]model.ProductSnapshot{
		withSellers(snapAt(0, 50, 100, 10), 3, "alpha"),
		withSellers(snapAt(1, 50, 100, 12), 3, "alpha"),
		withSellers(snapAt(2, 50, 100, 14), 3, "alpha"),
		withSellers(snapAt(3, 50, 100, 16), 3, "alpha"),
	}, testBase)
	if result.BarrierToEntry != "High" {
		t.Errorf("single dominant buybox holder should mean High barrier, got %q",
			result.BarrierToEntry)
	}
}

func TestCompetition_ScoreStaysInRange(t *testing.T) {
	window := []model.ProductSnapshot{
		withSellers(snapAt(0, 50, 100, 10), 500, "a"),
		withSellers(snapAt(1, 50, 100, 12), 500, "b"),
		withSellers(snapAt(2, 50, 100, 14), 500, "c"),
	}
	result := Competition(window, testBase)
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("score out of range: %.2f", result.Score)
	}
}
