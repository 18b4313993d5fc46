package signals

import (
	"fmt"
	"time"

	"github.com/commercesignal/engine/internal/model"
)

// DiscountEvent is one detected discount against the trailing baseline.
type DiscountEvent struct {
	Date            time.Time
	BaselinePrice   float64
	DiscountedPrice float64
	DiscountPercent float64
}

// DiscountPrediction estimates when the next discount will land based on
// the spacing of past discount events.
type DiscountPrediction struct {
	AvgCycleDays       float64 // 0 = no cycle detected
	NextDiscount       *time.Time
	Confidence         float64 // 0-1
	Events             []DiscountEvent
	TypicalDiscountPct float64
	Interpretation     string
}

const minDiscountPct = 0.05 // below this a dip is noise, not a promotion

// PredictDiscountCycle analyzes price history for recurring promotions.
// Needs 14+ snapshots to say anything; shorter windows report insufficient
// data, never an error.
func PredictDiscountCycle(window []model.ProductSnapshot) DiscountPrediction {
	if len(window) < 14 {
		return DiscountPrediction{Interpretation: "Insufficient price history (need 14+ observations)"}
	}
	sorted := sortWindow(window)

	events := detectDiscounts(sorted)
	if len(events) < 2 {
		return DiscountPrediction{
			Confidence:         0.1,
			Events:             events,
			TypicalDiscountPct: avgDiscount(events),
			Interpretation:     "Not enough discount events to detect a cycle",
		}
	}

	var gaps []float64
	for i := 1; i < len(events); i++ {
		gaps = append(gaps, events[i].Date.Sub(events[i-1].Date).Hours()/24)
	}
	cycle := mean(gaps)
	cycleStd := stdDev(gaps)

	next := events[len(events)-1].Date.AddDate(0, 0, int(cycle))

	// Regular spacing means a confident prediction; irregular spacing does
	// not.
	confidence := 0.3 + 0.1*float64(len(events))
	if cycle > 0 {
		confidence += 0.4 * clamp01(1-cycleStd/cycle)
	}
	confidence = clamp01(confidence)

	typical := avgDiscount(events)
	return DiscountPrediction{
		AvgCycleDays:       cycle,
		NextDiscount:       &next,
		Confidence:         confidence,
		Events:             events,
		TypicalDiscountPct: typical,
		Interpretation: fmt.Sprintf(
			"Discounts recur roughly every %.0f days (typically %.1f%% off); next expected around %s",
			cycle, typical, next.Format("2006-01-02")),
	}
}

// detectDiscounts flags prices at least minDiscountPct below the 7-point
// trailing average, collapsing runs into single events.
func detectDiscounts(window []model.ProductSnapshot) []DiscountEvent {
	var events []DiscountEvent
	if len(window) < 8 {
		return events
	}

	for i := 7; i < len(window); i++ {
		var baselineSum float64
		for j := i - 7; j < i; j++ {
			baselineSum += window[j].Price
		}
		baseline := baselineSum / 7
		if baseline <= 0 {
			continue
		}

		discount := (baseline - window[i].Price) / baseline
		if discount < minDiscountPct {
			continue
		}
		// Continuation of an ongoing promotion, not a new event.
		if len(events) > 0 && window[i].Timestamp.Sub(events[len(events)-1].Date).Hours() <= 72 {
			continue
		}
		events = append(events, DiscountEvent{
			Date:            window[i].Timestamp,
			BaselinePrice:   baseline,
			DiscountedPrice: window[i].Price,
			DiscountPercent: discount * 100,
		})
	}
	return events
}

func avgDiscount(events []DiscountEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	var sum float64
	for _, e := range events {
		sum += e.DiscountPercent
	}
	return sum / float64(len(events))
}
