package signals

import (
	"math"
	"sort"
	"time"

	"github.com/commercesignal/engine/internal/model"
)

// sortWindow returns the window ordered oldest-first without mutating the
// caller's slice.
func sortWindow(window []model.ProductSnapshot) []model.ProductSnapshot {
	out := make([]model.ProductSnapshot, len(window))
	copy(out, window)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// spanDays returns the window duration in fractional days.
func spanDays(window []model.ProductSnapshot) float64 {
	if len(window) < 2 {
		return 0
	}
	first := window[0].Timestamp
	last := window[len(window)-1].Timestamp
	return last.Sub(first).Hours() / 24
}

// reviewVelocity computes reviews per day across the window. The second
// return reports whether the signal was present at all.
func reviewVelocity(window []model.ProductSnapshot) (float64, bool) {
	var first, last *model.ProductSnapshot
	var firstAt, lastAt time.Time
	for i := range window {
		if window[i].ReviewCount == nil {
			continue
		}
		if first == nil {
			first = &window[i]
			firstAt = window[i].Timestamp
		}
		last = &window[i]
		lastAt = window[i].Timestamp
	}
	if first == nil || last == nil || first == last {
		return 0, false
	}
	days := lastAt.Sub(firstAt).Hours() / 24
	if days <= 0 {
		return 0, false
	}
	return float64(*last.ReviewCount-*first.ReviewCount) / days, true
}

// rankImprovement is the fractional improvement in rank over the window.
// Positive means the rank got better (lower).
func rankImprovement(window []model.ProductSnapshot) (float64, bool) {
	var first, last *int
	for i := range window {
		if window[i].Rank == nil {
			continue
		}
		if first == nil {
			first = window[i].Rank
		}
		last = window[i].Rank
	}
	if first == nil || last == nil || first == last || *first == 0 {
		return 0, false
	}
	return float64(*first-*last) / float64(*first), true
}

// stockoutFrequency is the share of observations where the product was out
// of stock.
func stockoutFrequency(window []model.ProductSnapshot) float64 {
	if len(window) == 0 {
		return 0
	}
	out := 0
	for _, s := range window {
		if !s.InStock {
			out++
		}
	}
	return float64(out) / float64(len(window))
}

// priceChange is the fractional price change across the window.
func priceChange(window []model.ProductSnapshot) (float64, bool) {
	if len(window) < 2 {
		return 0, false
	}
	oldest := window[0].Price
	newest := window[len(window)-1].Price
	if oldest == 0 {
		return 0, false
	}
	return (newest - oldest) / oldest, true
}

// linearSlope fits a least-squares line through the values at evenly spaced
// indices and returns its slope. Matches simple trend detection before any
// confidence scaling.
func linearSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - m
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

// weightedScore combines normalized terms with their weights, redistributing
// the weight of absent terms proportionally across the present ones. An
// all-absent input returns (0, false) so callers can pick a neutral value
// instead of silently zero-filling.
func weightedScore(terms []term) (float64, bool) {
	var totalWeight, sum float64
	for _, t := range terms {
		if !t.present {
			continue
		}
		totalWeight += t.weight
		sum += t.weight * t.value
	}
	if totalWeight == 0 {
		return 0, false
	}
	return sum / totalWeight, true
}

type term struct {
	value   float64 // normalized to [0,1] (or [-1,1] for signed scores)
	weight  float64
	present bool
}
