package fx

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/commercesignal/engine/internal/model"
)

var testRates = map[string]float64{
	"USD_INR": 83.00,
	"INR_USD": 0.012,
	"USD_EUR": 0.92,
	"EUR_USD": 1.09,
	"USD_GBP": 0.79,
}

func TestStaticProvider_DirectPair(t *testing.T) {
	p := NewStaticProvider(testRates)
	rate, err := p.RateAt("USD", "INR", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 83.00 {
		t.Errorf("expected 83.00, got %v", rate)
	}
}

func TestStaticProvider_SameCurrency(t *testing.T) {
	p := NewStaticProvider(testRates)
	rate, err := p.RateAt("usd", "USD", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 1 {
		t.Errorf("expected 1, got %v", rate)
	}
}

func TestStaticProvider_CrossViaUSD(t *testing.T) {
	p := NewStaticProvider(testRates)
	// EUR -> INR has no direct entry: EUR_USD * USD_INR = 1.09 * 83.
	rate, err := p.RateAt("EUR", "INR", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := 1.09 * 83.00
	if math.Abs(rate-expected) > 1e-9 {
		t.Errorf("expected %v, got %v", expected, rate)
	}
}

func TestStaticProvider_UnknownPair(t *testing.T) {
	p := NewStaticProvider(testRates)
	_, err := p.RateAt("XYZ", "INR", time.Time{})
	if err == nil {
		t.Fatal("expected error for unknown currency")
	}
	if !errors.Is(err, model.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestConvert(t *testing.T) {
	p := NewStaticProvider(testRates)
	got, err := Convert(p, 100, "USD", "INR", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 8300 {
		t.Errorf("expected 8300, got %v", got)
	}
}
