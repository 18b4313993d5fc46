package schedule

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/commercesignal/engine/internal/alerts"
	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/engine"
	"github.com/commercesignal/engine/internal/fx"
	"github.com/commercesignal/engine/internal/history"
)

func testEngine(cfg *config.Config) *engine.Engine {
	store := history.NewMemoryStore(zerolog.Nop())
	subs := alerts.NewMemorySubscriptionStore()
	rates := fx.NewStaticProvider(cfg.Calibration.FallbackRates)
	return engine.New(cfg, store, subs, rates, zerolog.Nop())
}

func baseConfig() *config.Config {
	return &config.Config{
		WindowDays:           30,
		MinTrendDays:         14,
		MaxWindowSize:        500,
		RetentionDays:        90,
		DefaultRankThreshold: 100,
		MaxThresholdPercent:  90,
		SweepSpec:            "0 * * * *",
		PruneSpec:            "30 3 * * *",
		Calibration:          config.DefaultCalibration(),
	}
}

func TestNew_ValidSpecs(t *testing.T) {
	cfg := baseConfig()
	s, err := New(cfg, testEngine(cfg), zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Start()
	s.Stop()
}

func TestNew_InvalidSweepSpec(t *testing.T) {
	cfg := baseConfig()
	cfg.SweepSpec = "every hour"
	if _, err := New(cfg, testEngine(cfg), zerolog.Nop()); err == nil {
		t.Error("expected error for malformed sweep spec")
	}
}

func TestNew_InvalidPruneSpec(t *testing.T) {
	cfg := baseConfig()
	cfg.PruneSpec = "61 * * * *"
	if _, err := New(cfg, testEngine(cfg), zerolog.Nop()); err == nil {
		t.Error("expected error for out-of-range prune spec")
	}
}
