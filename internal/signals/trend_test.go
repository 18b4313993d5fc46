package signals

import (
	"testing"

	"github.com/commercesignal/engine/internal/model"
)

// dailyWindow builds one snapshot per day with reviews accumulating at the
// given per-day gains.
func dailyWindow(gains []int, rank int, price float64) []model.ProductSnapshot {
	window := make([]model.ProductSnapshot, 0, len(gains)+1)
	reviews := 100
	window = append(window, snapAt(0, price, rank, reviews))
	for i, g := range gains {
		reviews += g
		window = append(window, snapAt(i+1, price, rank, reviews))
	}
	return window
}

func TestTrend_ShortWindowIsZero(t *testing.T) {
	result := Trend([]model.ProductSnapshot{snapAt(0, 50, 100, 10)}, 14)
	if result.Score != 0 {
		t.Errorf("expected zero trend for one snapshot, got %.2f", result.Score)
	}
	if result.Direction != "Unknown" {
		t.Errorf("expected Unknown direction, got %q", result.Direction)
	}
}

func TestTrend_AcceleratingReviews(t *testing.T) {
	// 5 reviews/day for 10 days, then 25/day for 10 days.
	gains := make([]int, 20)
	for i := range gains {
		if i < 10 {
			gains[i] = 5
		} else {
			gains[i] = 25
		}
	}
	result := Trend(dailyWindow(gains, 500, 50), 14)

	if result.Score <= 20 {
		t.Errorf("expected accelerating trend, got score %.2f", result.Score)
	}
	if result.Direction != "Accelerating" {
		t.Errorf("expected Accelerating, got %q", result.Direction)
	}
}

func TestTrend_DeceleratingReviews(t *testing.T) {
	// 30 reviews/day that stop dead halfway through the window.
	gains := make([]int, 20)
	for i := range gains {
		if i < 10 {
			gains[i] = 30
		} else {
			gains[i] = 0
		}
	}
	result := Trend(dailyWindow(gains, 500, 50), 14)

	if result.Score >= -20 {
		t.Errorf("expected declining trend, got score %.2f", result.Score)
	}
	if result.Direction != "Declining" {
		t.Errorf("expected Declining, got %q", result.Direction)
	}
}

func TestTrend_ShortSpanCompressesScore(t *testing.T) {
	// Identical acceleration pattern, one squeezed into a quarter of the
	// minimum span. The short window must claim less.
	longGains := make([]int, 20)
	for i := range longGains {
		if i < 10 {
			longGains[i] = 5
		} else {
			longGains[i] = 25
		}
	}
	long := Trend(dailyWindow(longGains, 500, 50), 14)

	short := []model.ProductSnapshot{
		snapAt(0, 50, 500, 100),
		snapAt(1, 50, 500, 105),
		snapAt(2, 50, 500, 130),
		snapAt(3, 50, 500, 155),
	}
	compressed := Trend(short, 14)

	if compressed.Score >= long.Score {
		t.Errorf("short window should compress the score: short=%.2f long=%.2f",
			compressed.Score, long.Score)
	}
}

func TestTrend_ScoreStaysInRange(t *testing.T) {
	gains := make([]int, 30)
	for i := range gains {
		gains[i] = i * i // violent acceleration
	}
	result := Trend(dailyWindow(gains, 500, 50), 14)
	if result.Score < -100 || result.Score > 100 {
		t.Errorf("score out of range: %.2f", result.Score)
	}
}
