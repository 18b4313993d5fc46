package arbitrage

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/fx"
	"github.com/commercesignal/engine/internal/model"
)

// Analyzer compares the same product across platforms and models the profit
// of buying where it is cheap. Results are computed on demand and never
// persisted.
type Analyzer struct {
	rates fx.Provider
	cal   config.Calibration
	log   zerolog.Logger
}

// NewAnalyzer builds an analyzer over an FX provider and the calibration
// tables for shipping and duty.
func NewAnalyzer(rates fx.Provider, cal config.Calibration, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		rates: rates,
		cal:   cal,
		log:   log.With().Str("component", "arbitrage").Logger(),
	}
}

// Compare normalizes the base snapshot and each comparison snapshot to USD at
// their own timestamps, then models the best net opportunity. A zero base
// price yields an invalid result rather than an error. A comparison whose
// currency cannot be converted is skipped with a warning.
func (a *Analyzer) Compare(base model.ProductSnapshot, comps []model.ProductSnapshot, category string) (model.ArbitrageResult, error) {
	result := model.ArbitrageResult{
		BasePlatform:  base.Platform,
		BaseProductID: base.ProductID,
	}

	basePriceUSD, err := a.toUSD(base)
	if err != nil {
		return result, fmt.Errorf("converting base price: %w", err)
	}
	result.BasePriceUSD = round2(basePriceUSD)

	if basePriceUSD <= 0 {
		result.Invalid = true
		result.InvalidReason = "base price is zero, savings percentages are undefined"
		return result, nil
	}

	if category == "" {
		category = base.Category
	}

	var best *model.ArbitrageOpportunity
	var bestComp model.ArbitrageComparison
	for _, comp := range comps {
		priceUSD, err := a.toUSD(comp)
		if err != nil {
			a.log.Warn().Err(err).
				Str("platform", string(comp.Platform)).
				Str("product_id", comp.ProductID).
				Msg("skipping comparison, currency conversion failed")
			continue
		}

		savings := basePriceUSD - priceUSD
		entry := model.ArbitrageComparison{
			Platform:       comp.Platform,
			ProductID:      comp.ProductID,
			PriceUSD:       round2(priceUSD),
			Savings:        round2(savings),
			SavingsPercent: round2(savings / basePriceUSD * 100),
		}
		result.Comparisons = append(result.Comparisons, entry)

		opp := a.modelOpportunity(base, comp, priceUSD, savings, category)
		if opp == nil {
			continue
		}
		if best == nil || betterOpportunity(*opp, entry, *best, bestComp) {
			best = opp
			bestComp = entry
		}
	}

	result.BestOpportunity = best
	return result, nil
}

// modelOpportunity nets shipping and duty out of the raw savings. Only a
// positive net profit qualifies.
func (a *Analyzer) modelOpportunity(base, comp model.ProductSnapshot, priceUSD, savings float64, category string) *model.ArbitrageOpportunity {
	if savings <= 0 {
		return nil
	}
	from := a.cal.CountryFor(comp.Platform)
	to := a.cal.CountryFor(base.Platform)
	shipping := a.cal.ShippingFor(from, to)
	if from == to {
		shipping = 0
	}
	duty := priceUSD * a.cal.DutyRateFor(category)
	if from == to {
		duty = 0
	}

	profit := savings - shipping - duty
	if profit <= 0 {
		return nil
	}
	return &model.ArbitrageOpportunity{
		SourcePlatform:   comp.Platform,
		SourceProductID:  comp.ProductID,
		PotentialProfit:  round2(profit),
		ShippingEstimate: round2(shipping),
		DutyEstimate:     round2(duty),
		LandedCostUSD:    round2(priceUSD + shipping + duty),
	}
}

// betterOpportunity orders candidates by net profit, then lower landed cost,
// then platform name for a stable pick.
func betterOpportunity(a model.ArbitrageOpportunity, ac model.ArbitrageComparison, b model.ArbitrageOpportunity, bc model.ArbitrageComparison) bool {
	if a.PotentialProfit != b.PotentialProfit {
		return a.PotentialProfit > b.PotentialProfit
	}
	if a.LandedCostUSD != b.LandedCostUSD {
		return a.LandedCostUSD < b.LandedCostUSD
	}
	return ac.Platform < bc.Platform
}

func (a *Analyzer) toUSD(snap model.ProductSnapshot) (float64, error) {
	currency := snap.Currency
	if currency == "" {
		currency = "USD"
	}
	at := snap.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return fx.Convert(a.rates, snap.Price, currency, "USD", at)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
