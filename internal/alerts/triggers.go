package alerts

import (
	"fmt"
	"time"

	"github.com/commercesignal/engine/internal/model"
	"github.com/commercesignal/engine/internal/signals"
)

// triggerState is the per-subscription memory that makes alerts fire once
// per crossing. A trigger disarms when it fires and re-arms only after the
// watched value returns to the non-triggering side of its baseline.
type triggerState struct {
	armed    bool
	fired    bool    // arbitrage only: opportunity already reported
	baseline float64 // price or rank reference the threshold applies to
	lastSign int     // trend_change only: sign of the last nonzero trend score
	hasSign  bool
}

// evaluate runs one subscription against the new snapshot. prev is nil on
// the product's first observation. Returns nil when nothing fires.
func evaluate(sub model.AlertSubscription, st *triggerState, prev *model.ProductSnapshot, curr model.ProductSnapshot, window []model.ProductSnapshot, minTrendDays int, defaultRankThreshold float64) *model.AlertEvent {
	switch sub.Type {
	case model.AlertPriceDrop:
		return priceDrop(sub, st, curr)
	case model.AlertStockout:
		return stockout(sub, st, prev, curr)
	case model.AlertRankChange:
		return rankChange(sub, st, curr, defaultRankThreshold)
	case model.AlertTrendChange:
		return trendChange(sub, st, window, minTrendDays)
	default:
		return nil
	}
}

// priceDrop fires when the price falls ThresholdPercent below the highest
// price seen since arming. While armed the baseline ratchets upward; after
// firing it re-arms only once the price recovers to the baseline.
func priceDrop(sub model.AlertSubscription, st *triggerState, curr model.ProductSnapshot) *model.AlertEvent {
	if st.baseline == 0 {
		st.baseline = curr.Price
		st.armed = true
		return nil
	}

	if !st.armed {
		if curr.Price >= st.baseline {
			st.armed = true
			st.baseline = curr.Price
		}
		return nil
	}

	if curr.Price > st.baseline {
		st.baseline = curr.Price
		return nil
	}

	dropPct := (st.baseline - curr.Price) / st.baseline * 100
	if dropPct < sub.ThresholdPercent {
		return nil
	}
	st.armed = false
	return newEvent(sub, "price_drop",
		fmt.Sprintf("Price dropped %.1f%% from %.2f to %.2f", dropPct, st.baseline, curr.Price),
		fmt.Sprintf("%.2f", st.baseline), fmt.Sprintf("%.2f", curr.Price),
		map[string]interface{}{"drop_percent": round1(dropPct), "threshold_percent": sub.ThresholdPercent},
		curr.Timestamp)
}

// stockout fires on an in-stock to out-of-stock transition, and reports the
// recovery transition so subscribers see restocks too.
func stockout(sub model.AlertSubscription, st *triggerState, prev *model.ProductSnapshot, curr model.ProductSnapshot) *model.AlertEvent {
	if prev == nil {
		return nil
	}
	switch {
	case prev.InStock && !curr.InStock:
		return newEvent(sub, "stockout",
			"Product went out of stock",
			"in_stock", "out_of_stock", nil, curr.Timestamp)
	case !prev.InStock && curr.InStock:
		return newEvent(sub, "back_in_stock",
			"Product is back in stock",
			"out_of_stock", "in_stock", nil, curr.Timestamp)
	default:
		return nil
	}
}

// rankChange fires when the rank moves at least ThresholdValue positions
// from the baseline, in either direction, then rebaselines at the new rank.
func rankChange(sub model.AlertSubscription, st *triggerState, curr model.ProductSnapshot, defaultThreshold float64) *model.AlertEvent {
	if curr.Rank == nil {
		return nil
	}
	rank := float64(*curr.Rank)
	if !st.armed {
		st.baseline = rank
		st.armed = true
		return nil
	}

	threshold := sub.ThresholdValue
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	delta := rank - st.baseline
	if delta > -threshold && delta < threshold {
		return nil
	}

	prevRank := st.baseline
	st.baseline = rank
	direction := "improved"
	if delta > 0 {
		direction = "worsened"
	}
	return newEvent(sub, "rank_change",
		fmt.Sprintf("Rank %s from %.0f to %.0f", direction, prevRank, rank),
		fmt.Sprintf("%.0f", prevRank), fmt.Sprintf("%.0f", rank),
		map[string]interface{}{"delta": delta, "threshold": threshold},
		curr.Timestamp)
}

// trendChange fires when the trend score crosses zero. A zero or unknown
// score keeps the last sign, so a flat stretch between two rises does not
// refire.
func trendChange(sub model.AlertSubscription, st *triggerState, window []model.ProductSnapshot, minTrendDays int) *model.AlertEvent {
	trend := signals.Trend(window, minTrendDays)
	sign := 0
	switch {
	case trend.Score > 0:
		sign = 1
	case trend.Score < 0:
		sign = -1
	}
	if sign == 0 {
		return nil
	}
	if !st.hasSign {
		st.lastSign = sign
		st.hasSign = true
		return nil
	}
	if sign == st.lastSign {
		return nil
	}
	prevSign := st.lastSign
	st.lastSign = sign
	return newEvent(sub, "trend_change",
		fmt.Sprintf("Trend reversed from %s to %s (score %.1f)",
			signLabel(prevSign), signLabel(sign), trend.Score),
		signLabel(prevSign), signLabel(sign),
		map[string]interface{}{"trend_score": trend.Score, "direction": trend.Direction},
		window[len(window)-1].Timestamp)
}

func signLabel(sign int) string {
	if sign > 0 {
		return "rising"
	}
	return "falling"
}

// arbitrageTrigger fires when net profit rises above the threshold and
// re-arms once the opportunity closes.
func arbitrageTrigger(sub model.AlertSubscription, st *triggerState, result model.ArbitrageResult, at time.Time) *model.AlertEvent {
	profit := 0.0
	if result.BestOpportunity != nil {
		profit = result.BestOpportunity.PotentialProfit
	}
	threshold := sub.ThresholdValue

	if profit <= threshold {
		st.fired = false
		return nil
	}
	if st.fired {
		return nil
	}
	st.fired = true
	return newEvent(sub, "arbitrage",
		fmt.Sprintf("Arbitrage opportunity: %.2f USD net profit via %s",
			profit, result.BestOpportunity.SourcePlatform),
		"", fmt.Sprintf("%.2f", profit),
		map[string]interface{}{
			"source_platform": string(result.BestOpportunity.SourcePlatform),
			"landed_cost_usd": result.BestOpportunity.LandedCostUSD,
		},
		at)
}

func newEvent(sub model.AlertSubscription, eventType, message, prevVal, currVal string, details map[string]interface{}, at time.Time) *model.AlertEvent {
	return &model.AlertEvent{
		SubscriptionID: sub.ID,
		Type:           sub.Type,
		EventType:      eventType,
		Message:        message,
		PreviousValue:  prevVal,
		CurrentValue:   currVal,
		Details:        details,
		TriggeredAt:    at,
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
