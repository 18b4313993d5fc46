package alerts

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/commercesignal/engine/internal/model"
)

// Engine evaluates alert subscriptions against incoming snapshots. A failing
// trigger never blocks the others; it is logged and skipped.
type Engine struct {
	store SubscriptionStore
	log   zerolog.Logger

	minTrendDays         int
	defaultRankThreshold float64

	mu    sync.Mutex
	state map[string]*triggerState // keyed by subscription ID
}

// NewEngine builds an alert engine over a subscription store.
func NewEngine(store SubscriptionStore, log zerolog.Logger, minTrendDays int, defaultRankThreshold float64) *Engine {
	return &Engine{
		store:                store,
		log:                  log.With().Str("component", "alerts").Logger(),
		minTrendDays:         minTrendDays,
		defaultRankThreshold: defaultRankThreshold,
		state:                make(map[string]*triggerState),
	}
}

// HandleSnapshot runs every active subscription for the product against the
// new snapshot. prev is nil for a product's first observation. Returns the
// events that fired, in no particular order.
func (e *Engine) HandleSnapshot(prev *model.ProductSnapshot, curr model.ProductSnapshot, window []model.ProductSnapshot) []model.AlertEvent {
	subs := e.store.ListByProduct(curr.Platform, curr.ProductID)
	if len(subs) == 0 {
		return nil
	}

	var events []model.AlertEvent
	for _, sub := range subs {
		event := e.runTrigger(sub, func(st *triggerState) *model.AlertEvent {
			return evaluate(sub, st, prev, curr, window, e.minTrendDays, e.defaultRankThreshold)
		})
		if event != nil {
			events = append(events, *event)
		}
	}
	return events
}

// HandleArbitrage runs arbitrage subscriptions for a product against a fresh
// comparison result, typically from the periodic sweep.
func (e *Engine) HandleArbitrage(platform model.Platform, productID string, result model.ArbitrageResult, at time.Time) []model.AlertEvent {
	var events []model.AlertEvent
	for _, sub := range e.store.ListByProduct(platform, productID) {
		if sub.Type != model.AlertArbitrage {
			continue
		}
		event := e.runTrigger(sub, func(st *triggerState) *model.AlertEvent {
			return arbitrageTrigger(sub, st, result, at)
		})
		if event != nil {
			events = append(events, *event)
		}
	}
	return events
}

// Forget drops the trigger state for an unsubscribed ID.
func (e *Engine) Forget(id string) {
	e.mu.Lock()
	delete(e.state, id)
	e.mu.Unlock()
}

// runTrigger executes one trigger under the state lock, isolating panics so
// one bad subscription cannot take down evaluation for the rest.
func (e *Engine) runTrigger(sub model.AlertSubscription, fn func(*triggerState) *model.AlertEvent) (event *model.AlertEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("subscription_id", sub.ID).
				Str("alert_type", string(sub.Type)).
				Interface("panic", r).
				Msg("trigger panicked, skipping")
			event = nil
		}
	}()

	event = func() *model.AlertEvent {
		e.mu.Lock()
		defer e.mu.Unlock()
		st, ok := e.state[sub.ID]
		if !ok {
			st = &triggerState{}
			e.state[sub.ID] = st
		}
		return fn(st)
	}()

	if event != nil {
		e.markTriggered(sub, event.TriggeredAt)
		e.log.Info().
			Str("subscription_id", sub.ID).
			Str("alert_type", string(sub.Type)).
			Str("message", event.Message).
			Msg("alert fired")
	}
	return event
}

func (e *Engine) markTriggered(sub model.AlertSubscription, at time.Time) {
	sub.LastTriggeredAt = &at
	if err := e.store.Update(sub); err != nil {
		e.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("updating last trigger time")
	}
}
