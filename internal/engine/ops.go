package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/commercesignal/engine/internal/brand"
	"github.com/commercesignal/engine/internal/history"
	"github.com/commercesignal/engine/internal/model"
	"github.com/commercesignal/engine/internal/signals"
)

// SubscribeRequest registers an alert subscription.
type SubscribeRequest struct {
	Product          ProductRequest  `json:"product"`
	Type             model.AlertType `json:"alert_type"`
	ThresholdPercent float64         `json:"threshold_percent,omitempty"`
	ThresholdValue   float64         `json:"threshold_value,omitempty"`
}

// SubscribeAlert validates and stores a subscription. Thresholds are
// checked per alert type; price drops require a percent in (0, max].
func (e *Engine) SubscribeAlert(req SubscribeRequest) (model.AlertSubscription, error) {
	plat, id, err := req.Product.resolve()
	if err != nil {
		return model.AlertSubscription{}, err
	}

	switch req.Type {
	case model.AlertPriceDrop:
		if req.ThresholdPercent <= 0 || req.ThresholdPercent > e.cfg.MaxThresholdPercent {
			return model.AlertSubscription{}, fmt.Errorf(
				"price drop threshold must be in (0, %.0f] percent, got %.1f: %w",
				e.cfg.MaxThresholdPercent, req.ThresholdPercent, model.ErrInvalidInput)
		}
	case model.AlertRankChange:
		if req.ThresholdValue < 0 {
			return model.AlertSubscription{}, fmt.Errorf(
				"rank threshold cannot be negative: %w", model.ErrInvalidInput)
		}
	case model.AlertArbitrage:
		if req.ThresholdValue < 0 {
			return model.AlertSubscription{}, fmt.Errorf(
				"profit threshold cannot be negative: %w", model.ErrInvalidInput)
		}
	case model.AlertStockout, model.AlertTrendChange:
		// No threshold.
	default:
		return model.AlertSubscription{}, fmt.Errorf(
			"unknown alert type %q: %w", req.Type, model.ErrInvalidInput)
	}

	sub, err := e.subs.Create(model.AlertSubscription{
		ProductID:        id,
		Platform:         plat,
		Type:             req.Type,
		ThresholdPercent: req.ThresholdPercent,
		ThresholdValue:   req.ThresholdValue,
	})
	if err != nil {
		return model.AlertSubscription{}, fmt.Errorf("storing subscription: %w", err)
	}
	e.log.Info().
		Str("subscription_id", sub.ID).
		Str("alert_type", string(sub.Type)).
		Str("product_id", id).
		Msg("alert subscribed")
	return sub, nil
}

// ListAlerts returns subscriptions, optionally filtered to one product.
func (e *Engine) ListAlerts(req *ProductRequest) ([]model.AlertSubscription, error) {
	if req == nil {
		return e.subs.List(), nil
	}
	plat, id, err := req.resolve()
	if err != nil {
		return nil, err
	}
	return e.subs.ListByProduct(plat, id), nil
}

// UnsubscribeAlert removes a subscription and its trigger state. Removing
// an ID that does not exist, including one already removed, reports
// ErrNotFound.
func (e *Engine) UnsubscribeAlert(id string) error {
	if id == "" {
		return fmt.Errorf("subscription id is required: %w", model.ErrInvalidInput)
	}
	if _, err := e.subs.Get(id); err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	e.subs.Delete(id)
	e.alerts.Forget(id)
	return nil
}

// TrendingRequest asks for the strongest upward movers.
type TrendingRequest struct {
	Platform string `json:"platform,omitempty"` // empty = all platforms
	Limit    int    `json:"limit,omitempty"`    // default 10
}

// TrendingProduct is one entry of a trending scan.
type TrendingProduct struct {
	Platform   model.Platform `json:"platform"`
	ProductID  string         `json:"product_id"`
	TrendScore float64        `json:"trend_score"`
	Direction  string         `json:"direction"`
	Overall    float64        `json:"overall_score"`
}

// DetectTrending scans every tracked product and returns the top movers by
// trend score. Products whose trend cannot be established are skipped.
func (e *Engine) DetectTrending(req TrendingRequest) ([]TrendingProduct, error) {
	var platFilter model.Platform
	if req.Platform != "" {
		p, err := resolvePlatform(req.Platform)
		if err != nil {
			return nil, err
		}
		platFilter = p
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	var out []TrendingProduct
	for _, key := range e.store.Products() {
		if platFilter != "" && key.Platform != platFilter {
			continue
		}
		window, err := e.store.Window(key.Platform, key.ProductID, e.cfg.WindowDays, e.cfg.MaxWindowSize)
		if err != nil {
			continue
		}
		trend := signals.Trend(window, e.cfg.MinTrendDays)
		if trend.Direction == "Unknown" {
			continue
		}
		rev := e.est.Estimate(window)
		scores := e.calc.Compute(window, &rev, e.now())
		out = append(out, TrendingProduct{
			Platform:   key.Platform,
			ProductID:  key.ProductID,
			TrendScore: trend.Score,
			Direction:  trend.Direction,
			Overall:    OverallScore(scores),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TrendScore != out[j].TrendScore {
			return out[i].TrendScore > out[j].TrendScore
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AnalyzeBrand aggregates every tracked product carrying the brand name.
func (e *Engine) AnalyzeBrand(brandName string) (BrandResponse, error) {
	if brandName == "" {
		return BrandResponse{}, fmt.Errorf("brand is required: %w", model.ErrInvalidInput)
	}
	windows := e.collectWindows(func(latest model.ProductSnapshot) bool {
		return latest.Brand == brandName
	})
	report := e.brands.Analyze(brandName, windows)
	if report.ProductCount == 0 {
		return BrandResponse{}, fmt.Errorf("no tracked products for brand %q: %w",
			brandName, model.ErrNotFound)
	}
	return BrandResponse{Report: report}, nil
}

// AnalyzeSeller measures a seller's buybox footprint across all tracked
// products.
func (e *Engine) AnalyzeSeller(seller string) (SellerResponse, error) {
	if seller == "" {
		return SellerResponse{}, fmt.Errorf("seller is required: %w", model.ErrInvalidInput)
	}
	windows := e.collectWindows(func(model.ProductSnapshot) bool { return true })
	report := e.brands.AnalyzeSeller(seller, windows)
	if report.ProductCount == 0 {
		return SellerResponse{}, fmt.Errorf("seller %q not observed in any buybox: %w",
			seller, model.ErrNotFound)
	}
	return SellerResponse{Report: report}, nil
}

func (e *Engine) collectWindows(keep func(latest model.ProductSnapshot) bool) [][]model.ProductSnapshot {
	var windows [][]model.ProductSnapshot
	for _, key := range e.store.Products() {
		window, err := e.store.Window(key.Platform, key.ProductID, e.cfg.WindowDays, e.cfg.MaxWindowSize)
		if err != nil || len(window) == 0 {
			continue
		}
		if keep(window[len(window)-1]) {
			windows = append(windows, window)
		}
	}
	return windows
}

// Sweep re-evaluates arbitrage subscriptions across tracked products,
// comparing each subscribed product against the same product id on other
// platforms. Run periodically by the scheduler.
func (e *Engine) Sweep() []model.AlertEvent {
	byID := make(map[string][]history.ProductKey)
	for _, key := range e.store.Products() {
		byID[key.ProductID] = append(byID[key.ProductID], key)
	}

	var events []model.AlertEvent
	for _, sub := range e.subs.List() {
		if sub.Type != model.AlertArbitrage || sub.Status != model.StatusActive {
			continue
		}
		base, err := e.store.Latest(sub.Platform, sub.ProductID)
		if err != nil {
			continue
		}
		var comps []model.ProductSnapshot
		for _, key := range byID[sub.ProductID] {
			if key.Platform == sub.Platform {
				continue
			}
			if snap, err := e.store.Latest(key.Platform, key.ProductID); err == nil {
				comps = append(comps, snap)
			}
		}
		if len(comps) == 0 {
			continue
		}
		result, err := e.arb.Compare(base, comps, base.Category)
		if err != nil || result.Invalid {
			continue
		}
		events = append(events, e.alerts.HandleArbitrage(sub.Platform, sub.ProductID, result, e.now())...)
	}
	if len(events) > 0 {
		e.log.Info().Int("events", len(events)).Msg("arbitrage sweep fired alerts")
	}
	return events
}

// PruneHistory drops snapshots older than the retention window.
func (e *Engine) PruneHistory() int {
	cutoff := e.now().AddDate(0, 0, -e.cfg.RetentionDays)
	return e.store.Prune(cutoff)
}

// BrandResponse wraps a brand report.
type BrandResponse struct {
	Report brand.Report `json:"report"`
}

// SellerResponse wraps a seller report.
type SellerResponse struct {
	Report brand.SellerReport `json:"report"`
}

// IsNotFound reports whether an error is the not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
