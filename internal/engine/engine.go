package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/commercesignal/engine/internal/alerts"
	"github.com/commercesignal/engine/internal/arbitrage"
	"github.com/commercesignal/engine/internal/brand"
	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/forecast"
	"github.com/commercesignal/engine/internal/fx"
	"github.com/commercesignal/engine/internal/history"
	"github.com/commercesignal/engine/internal/model"
	"github.com/commercesignal/engine/internal/normalize"
	"github.com/commercesignal/engine/internal/platform"
	"github.com/commercesignal/engine/internal/revenue"
	"github.com/commercesignal/engine/internal/signals"
)

// Engine is the request/response facade over the signal calculators, the
// history store, and the alert engine. All inputs are validated here;
// everything below assumes normalized data.
type Engine struct {
	cfg   *config.Config
	store history.Store
	subs  alerts.SubscriptionStore

	calc   *signals.Calculator
	est    *revenue.Estimator
	arb    *arbitrage.Analyzer
	fc     *forecast.Forecaster
	brands *brand.Analyzer
	alerts *alerts.Engine

	log zerolog.Logger
	now func() time.Time
}

// New wires an engine from its injected collaborators.
func New(cfg *config.Config, store history.Store, subs alerts.SubscriptionStore, rates fx.Provider, log zerolog.Logger) *Engine {
	est := revenue.NewEstimator(cfg.Calibration)
	return &Engine{
		cfg:    cfg,
		store:  store,
		subs:   subs,
		calc:   signals.NewCalculator(cfg.Calibration.Baselines, cfg.MinTrendDays),
		est:    est,
		arb:    arbitrage.NewAnalyzer(rates, cfg.Calibration, log),
		fc:     forecast.NewForecaster(est),
		brands: brand.NewAnalyzer(est, cfg.Calibration.Baselines, cfg.MinTrendDays),
		alerts: alerts.NewEngine(subs, log, cfg.MinTrendDays, cfg.DefaultRankThreshold),
		log:    log.With().Str("component", "engine").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProductRequest identifies a product for the analysis operations.
type ProductRequest struct {
	Platform  string `json:"platform"`
	ProductID string `json:"product_id"`
}

func (r ProductRequest) resolve() (model.Platform, string, error) {
	plat, err := resolvePlatform(r.Platform)
	if err != nil {
		return "", "", err
	}
	id := strings.TrimSpace(r.ProductID)
	if id == "" {
		return "", "", fmt.Errorf("product_id is required: %w", model.ErrInvalidInput)
	}
	return plat, id, nil
}

func resolvePlatform(name string) (model.Platform, error) {
	info, err := platform.Lookup(model.Platform(strings.ToLower(strings.TrimSpace(name))))
	if err != nil {
		return "", err
	}
	return info.Platform, nil
}

// AnalyzeProductResponse bundles everything AnalyzeProduct derives for one
// product.
type AnalyzeProductResponse struct {
	Platform     model.Platform        `json:"platform"`
	ProductID    string                `json:"product_id"`
	Latest       model.ProductSnapshot `json:"latest"`
	Scores       model.SignalScores    `json:"scores"`
	Revenue      model.RevenueEstimate `json:"revenue"`
	OverallScore float64               `json:"overall_score"` // 0-100
	Verdict      string                `json:"verdict"`
	Insights     []string              `json:"insights"`
	NextDiscount *time.Time            `json:"next_discount,omitempty"`
}

// AnalyzeProduct computes the full signal picture for a tracked product.
func (e *Engine) AnalyzeProduct(req ProductRequest) (AnalyzeProductResponse, error) {
	plat, id, err := req.resolve()
	if err != nil {
		return AnalyzeProductResponse{}, err
	}
	window, err := e.store.Window(plat, id, e.cfg.WindowDays, e.cfg.MaxWindowSize)
	if err != nil {
		return AnalyzeProductResponse{}, fmt.Errorf("loading history: %w", err)
	}

	rev := e.est.Estimate(window)
	scores := e.calc.Compute(window, &rev, e.now())
	demand := signals.Demand(window, e.cfg.Calibration.Baselines)
	competition := signals.Competition(window, e.cfg.Calibration.Baselines)
	trend := signals.Trend(window, e.cfg.MinTrendDays)
	risk := signals.Risk(window, e.cfg.Calibration.Baselines)
	discount := signals.PredictDiscountCycle(window)

	resp := AnalyzeProductResponse{
		Platform:     plat,
		ProductID:    id,
		Latest:       window[len(window)-1],
		Scores:       scores,
		Revenue:      rev,
		OverallScore: OverallScore(scores),
	}
	resp.Verdict = verdict(resp.OverallScore, scores.Confidence)
	resp.Insights = buildInsights(demand, competition, trend, risk, discount)
	resp.NextDiscount = discount.NextDiscount
	return resp, nil
}

// Overall blend weights. Trend is renormalized from [-100,100] to [0,100]
// and competition and risk count inverted, so a crowded or risky listing
// pulls the overall down.
const (
	weightDemand      = 0.35
	weightTrend       = 0.25
	weightCompetition = 0.20
	weightRisk        = 0.20
)

// OverallScore blends the four signal scores into a 0-100 summary.
func OverallScore(s model.SignalScores) float64 {
	normTrend := (s.TrendScore + 100) / 2
	overall := weightDemand*s.DemandScore +
		weightTrend*normTrend +
		weightCompetition*(100-s.CompetitionScore) +
		weightRisk*(100-s.RiskScore)
	return round2(clamp(overall, 0, 100))
}

func verdict(overall float64, conf model.Confidence) string {
	var v string
	switch {
	case overall >= 75:
		v = "strong opportunity"
	case overall >= 60:
		v = "promising"
	case overall >= 40:
		v = "neutral"
	case overall >= 25:
		v = "weak"
	default:
		v = "avoid"
	}
	if conf == model.ConfidenceLow {
		v += " (low confidence)"
	}
	return v
}

func buildInsights(demand signals.DemandResult, competition signals.CompetitionResult, trend signals.TrendResult, risk signals.RiskResult, discount signals.DiscountPrediction) []string {
	insights := make([]string, 0, 6)
	for _, s := range []string{
		demand.Interpretation,
		competition.Interpretation,
		trend.Interpretation,
		risk.Interpretation,
	} {
		if s != "" {
			insights = append(insights, s)
		}
	}
	if discount.NextDiscount != nil {
		insights = append(insights, fmt.Sprintf(
			"Discounts recur roughly every %.0f days (typically %.0f%% off), next expected around %s",
			discount.AvgCycleDays, discount.TypicalDiscountPct,
			discount.NextDiscount.Format("2006-01-02")))
	}
	return insights
}

// RecordResponse is the result of ingesting one observation.
type RecordResponse struct {
	Snapshot model.ProductSnapshot `json:"snapshot"`
	Events   []model.AlertEvent    `json:"events,omitempty"`
}

// RecordObservation normalizes a raw observation, appends it to history, and
// evaluates alert subscriptions against the updated window, all atomically
// for the product.
func (e *Engine) RecordObservation(raw normalize.RawObservation) (RecordResponse, error) {
	snap, err := normalize.Snapshot(raw)
	if err != nil {
		return RecordResponse{}, err
	}

	var events []model.AlertEvent
	err = e.store.AppendAndEvaluate(snap, e.cfg.WindowDays, func(window []model.ProductSnapshot) {
		var prev *model.ProductSnapshot
		if len(window) >= 2 {
			prev = &window[len(window)-2]
		}
		events = e.alerts.HandleSnapshot(prev, snap, window)
	})
	if err != nil {
		return RecordResponse{}, err
	}

	e.log.Debug().
		Str("platform", string(snap.Platform)).
		Str("product_id", snap.ProductID).
		Int("alerts_fired", len(events)).
		Msg("observation recorded")
	return RecordResponse{Snapshot: snap, Events: events}, nil
}

// CompareRequest asks for an arbitrage comparison of a base product against
// explicit comparison products. Category defaults to the base snapshot's.
type CompareRequest struct {
	Base        ProductRequest   `json:"base"`
	Comparisons []ProductRequest `json:"comparisons"`
	Category    string           `json:"category,omitempty"`
}

// ComparePrices normalizes the latest snapshots of the base and comparison
// products to USD and models the best net opportunity.
func (e *Engine) ComparePrices(req CompareRequest) (model.ArbitrageResult, error) {
	plat, id, err := req.Base.resolve()
	if err != nil {
		return model.ArbitrageResult{}, err
	}
	if len(req.Comparisons) == 0 {
		return model.ArbitrageResult{}, fmt.Errorf("at least one comparison product required: %w",
			model.ErrInvalidInput)
	}

	base, err := e.store.Latest(plat, id)
	if err != nil {
		return model.ArbitrageResult{}, fmt.Errorf("loading base product: %w", err)
	}

	comps := make([]model.ProductSnapshot, 0, len(req.Comparisons))
	for _, c := range req.Comparisons {
		cPlat, cID, err := c.resolve()
		if err != nil {
			return model.ArbitrageResult{}, err
		}
		snap, err := e.store.Latest(cPlat, cID)
		if err != nil {
			return model.ArbitrageResult{}, fmt.Errorf("loading comparison %s/%s: %w", cPlat, cID, err)
		}
		comps = append(comps, snap)
	}

	return e.arb.Compare(base, comps, req.Category)
}

// ForecastRequest asks for a demand forecast over one of the supported
// horizons.
type ForecastRequest struct {
	Product     ProductRequest `json:"product"`
	HorizonDays int            `json:"horizon_days"`
}

// ForecastDemand projects daily sales for a tracked product.
func (e *Engine) ForecastDemand(req ForecastRequest) (model.ForecastResult, error) {
	plat, id, err := req.Product.resolve()
	if err != nil {
		return model.ForecastResult{}, err
	}
	window, err := e.store.Window(plat, id, e.cfg.WindowDays, e.cfg.MaxWindowSize)
	if err != nil {
		return model.ForecastResult{}, fmt.Errorf("loading history: %w", err)
	}
	now := e.now()
	rev := e.est.Estimate(window)
	scores := e.calc.Compute(window, &rev, now)
	return e.fc.Forecast(window, scores, req.HorizonDays, now)
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

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
