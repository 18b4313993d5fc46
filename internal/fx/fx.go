package fx

import (
	"fmt"
	"strings"
	"time"

	"github.com/commercesignal/engine/internal/model"
)

// Provider converts between currencies. RateAt returns the FROM->TO rate in
// effect at the given time; implementations that only know current rates may
// ignore the timestamp.
type Provider interface {
	RateAt(from, to string, at time.Time) (float64, error)
}

// Convert applies the provider's rate to an amount.
func Convert(p Provider, amount float64, from, to string, at time.Time) (float64, error) {
	if from == to {
		return amount, nil
	}
	rate, err := p.RateAt(from, to, at)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// StaticProvider serves rates from a fixed table, crossing through USD when a
// pair is not listed directly. It backs the HTTP client when the rate API is
// unreachable and runs alone in tests.
type StaticProvider struct {
	rates map[string]float64 // "FROM_TO" -> rate
}

// NewStaticProvider builds a provider over a fallback rate table.
func NewStaticProvider(rates map[string]float64) *StaticProvider {
	return &StaticProvider{rates: rates}
}

// RateAt looks up the pair directly, then via USD cross rates.
func (p *StaticProvider) RateAt(from, to string, _ time.Time) (float64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return 1, nil
	}
	if rate, ok := p.rates[pairKey(from, to)]; ok {
		return rate, nil
	}
	// Cross via USD: FROM->USD then USD->TO.
	toUSD, ok1 := p.rates[pairKey(from, "USD")]
	fromUSD, ok2 := p.rates[pairKey("USD", to)]
	if from == "USD" {
		toUSD, ok1 = 1, true
	}
	if to == "USD" {
		fromUSD, ok2 = 1, true
	}
	if ok1 && ok2 {
		return toUSD * fromUSD, nil
	}
	return 0, fmt.Errorf("no rate for %s->%s: %w", from, to, model.ErrUpstream)
}

func pairKey(from, to string) string {
	return from + "_" + to
}
