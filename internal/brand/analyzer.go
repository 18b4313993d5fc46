package brand

import (
	"math"
	"sort"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/model"
	"github.com/commercesignal/engine/internal/revenue"
	"github.com/commercesignal/engine/internal/signals"
)

// Analyzer aggregates per-product signals into brand and seller views.
type Analyzer struct {
	est          *revenue.Estimator
	baselines    config.Baselines
	minTrendDays int
}

// NewAnalyzer builds a brand analyzer sharing the engine's estimator and
// scoring baselines.
func NewAnalyzer(est *revenue.Estimator, baselines config.Baselines, minTrendDays int) *Analyzer {
	return &Analyzer{est: est, baselines: baselines, minTrendDays: minTrendDays}
}

// ProductMetrics is one product's contribution to a brand report.
type ProductMetrics struct {
	Platform       model.Platform `json:"platform"`
	ProductID      string         `json:"product_id"`
	DemandScore    float64        `json:"demand_score"`
	TrendScore     float64        `json:"trend_score"`
	RiskScore      float64        `json:"risk_score"`
	MonthlyRevenue float64        `json:"monthly_revenue"`
	AvgRating      float64        `json:"avg_rating,omitempty"`
}

// Report is the aggregated view of one brand's tracked portfolio.
type Report struct {
	Brand          string           `json:"brand"`
	ProductCount   int              `json:"product_count"`
	HealthScore    float64          `json:"health_score"` // 0-100
	MonthlyRevenue float64          `json:"monthly_revenue"`
	AvgDemandScore float64          `json:"avg_demand_score"`
	AvgTrendScore  float64          `json:"avg_trend_score"`
	AvgRiskScore   float64          `json:"avg_risk_score"`
	AvgRating      float64          `json:"avg_rating,omitempty"`
	TopProducts    []ProductMetrics `json:"top_products"` // by revenue, capped at 5
	HealthLevel    string           `json:"health_level"`
}

// Analyze rolls each product window up into a brand report. Empty input
// yields a zero report rather than an error, so callers can distinguish
// "unknown brand" at the boundary.
func (a *Analyzer) Analyze(brand string, windows [][]model.ProductSnapshot) Report {
	report := Report{Brand: brand}
	var ratingSum float64
	var ratingCount int
	products := make([]ProductMetrics, 0, len(windows))

	for _, window := range windows {
		if len(window) == 0 {
			continue
		}
		latest := window[len(window)-1]
		demand := signals.Demand(window, a.baselines)
		trend := signals.Trend(window, a.minTrendDays)
		risk := signals.Risk(window, a.baselines)
		rev := a.est.Estimate(window)

		pm := ProductMetrics{
			Platform:       latest.Platform,
			ProductID:      latest.ProductID,
			DemandScore:    demand.Score,
			TrendScore:     trend.Score,
			RiskScore:      risk.Score,
			MonthlyRevenue: rev.MonthlyRevenue,
		}
		if latest.Rating != nil {
			pm.AvgRating = *latest.Rating
			ratingSum += *latest.Rating
			ratingCount++
		}
		products = append(products, pm)

		report.MonthlyRevenue += rev.MonthlyRevenue
		report.AvgDemandScore += demand.Score
		report.AvgTrendScore += trend.Score
		report.AvgRiskScore += risk.Score
	}

	report.ProductCount = len(products)
	if report.ProductCount == 0 {
		report.HealthLevel = "Unknown"
		return report
	}

	n := float64(report.ProductCount)
	report.AvgDemandScore = round2(report.AvgDemandScore / n)
	report.AvgTrendScore = round2(report.AvgTrendScore / n)
	report.AvgRiskScore = round2(report.AvgRiskScore / n)
	report.MonthlyRevenue = round2(report.MonthlyRevenue)
	if ratingCount > 0 {
		report.AvgRating = round2(ratingSum / float64(ratingCount))
	}

	// Health blends demand, normalized trend, and inverted risk.
	normTrend := (report.AvgTrendScore + 100) / 2
	report.HealthScore = round2(clamp(
		0.4*report.AvgDemandScore+0.3*normTrend+0.3*(100-report.AvgRiskScore), 0, 100))
	report.HealthLevel = healthLevel(report.HealthScore)

	sort.Slice(products, func(i, j int) bool {
		return products[i].MonthlyRevenue > products[j].MonthlyRevenue
	})
	if len(products) > 5 {
		products = products[:5]
	}
	report.TopProducts = products
	return report
}

// Comparison names the standouts among a set of brand reports.
type Comparison struct {
	Reports        []Report `json:"reports"`
	Leader         string   `json:"leader,omitempty"`          // highest health
	FastestGrowing string   `json:"fastest_growing,omitempty"` // highest avg trend
	BestRated      string   `json:"best_rated,omitempty"`      // highest avg rating
}

// Compare picks the leader, fastest-growing, and best-rated brands. Brands
// with no products are carried in the report list but never win a slot.
func Compare(reports []Report) Comparison {
	cmp := Comparison{Reports: reports}
	var bestHealth, bestTrend, bestRating float64 = -1, math.Inf(-1), -1
	for _, r := range reports {
		if r.ProductCount == 0 {
			continue
		}
		if r.HealthScore > bestHealth {
			bestHealth = r.HealthScore
			cmp.Leader = r.Brand
		}
		if r.AvgTrendScore > bestTrend {
			bestTrend = r.AvgTrendScore
			cmp.FastestGrowing = r.Brand
		}
		if r.AvgRating > bestRating {
			bestRating = r.AvgRating
			cmp.BestRated = r.Brand
		}
	}
	return cmp
}

// SellerReport summarizes one seller's buybox presence across the products
// where it appears.
type SellerReport struct {
	Seller         string  `json:"seller"`
	ProductCount   int     `json:"product_count"`   // products where the seller held the buybox
	BuyboxShare    float64 `json:"buybox_share"`    // share of observed buybox samples held
	AvgPrice       float64 `json:"avg_price"`       // average price while holding the buybox
	StabilityScore float64 `json:"stability_score"` // 0-100, higher = steadier buybox hold
}

// AnalyzeSeller measures a seller's footprint over a set of product windows.
func (a *Analyzer) AnalyzeSeller(seller string, windows [][]model.ProductSnapshot) SellerReport {
	report := SellerReport{Seller: seller}
	var held, observed int
	var priceSum float64
	var perProductShares []float64

	for _, window := range windows {
		var prodHeld, prodObserved int
		for _, snap := range window {
			if snap.BuyboxSeller == "" {
				continue
			}
			prodObserved++
			if snap.BuyboxSeller == seller {
				prodHeld++
				priceSum += snap.Price
			}
		}
		if prodHeld > 0 {
			report.ProductCount++
			perProductShares = append(perProductShares, float64(prodHeld)/float64(prodObserved))
		}
		held += prodHeld
		observed += prodObserved
	}

	if held == 0 || observed == 0 {
		return report
	}
	report.BuyboxShare = round2(float64(held) / float64(observed))
	report.AvgPrice = round2(priceSum / float64(held))

	// Stability rewards consistently high per-product shares.
	var shareSum float64
	for _, s := range perProductShares {
		shareSum += s
	}
	report.StabilityScore = round2(clamp(shareSum/float64(len(perProductShares))*100, 0, 100))
	return report
}

func healthLevel(score float64) string {
	switch {
	case score >= 75:
		return "Strong"
	case score >= 55:
		return "Healthy"
	case score >= 35:
		return "Mixed"
	default:
		return "Weak"
	}
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
