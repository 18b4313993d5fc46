package model

import "time"

// Platform identifies a marketplace we track.
type Platform string

const (
	PlatformAmazon   Platform = "amazon"
	PlatformFlipkart Platform = "flipkart"
	PlatformWalmart  Platform = "walmart"
	PlatformEbay     Platform = "ebay"
	PlatformAlibaba  Platform = "alibaba"
	PlatformShopify  Platform = "shopify"
)

// Confidence grades how much an estimate can be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ProductSnapshot is one normalized observation of a product's marketplace
// state. Snapshots are immutable once recorded; the ordered sequence per
// (platform, product) forms its history. Pointer fields are nil when the
// platform cannot supply the signal, never zero-filled.
type ProductSnapshot struct {
	Platform     Platform  `json:"platform"`
	ProductID    string    `json:"product_id"`
	Timestamp    time.Time `json:"timestamp"` // UTC
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	Rank         *int      `json:"rank,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	ReviewCount  *int      `json:"review_count,omitempty"`
	SellerCount  *int      `json:"seller_count,omitempty"`
	BuyboxSeller string    `json:"buybox_seller,omitempty"`
	InStock      bool      `json:"in_stock"`
	Category     string    `json:"category,omitempty"`
	Brand        string    `json:"brand,omitempty"`
}

// Key returns the product identity portion of the snapshot.
func (s ProductSnapshot) Key() string {
	return string(s.Platform) + "/" + s.ProductID
}

// SignalScores holds the derived scores for one product over a trailing
// window. Recomputed on each new snapshot, never independently mutable.
type SignalScores struct {
	DemandScore      float64    `json:"demand_score"`      // 0-100
	CompetitionScore float64    `json:"competition_score"` // 0-100
	TrendScore       float64    `json:"trend_score"`       // -100..100
	RiskScore        float64    `json:"risk_score"`        // 0-100
	RiskFlags        []RiskFlag `json:"risk_flags,omitempty"`
	Confidence       Confidence `json:"confidence"`
	ComputedAt       time.Time  `json:"computed_at"`
	WindowStart      time.Time  `json:"window_start"`
	WindowEnd        time.Time  `json:"window_end"`
}

// RiskFlag records a specific risk pattern detected in the window. The flag
// list is retained on the scores so insight generation can cite it.
type RiskFlag struct {
	Category    string `json:"category"` // "review_manipulation", "seller_instability", "quality_issues"
	Severity    string `json:"severity"` // "low", "medium", "high"
	Description string `json:"description"`
}

// EstimateMethod names the model a revenue estimate came from.
type EstimateMethod string

const (
	MethodRankPowerLaw   EstimateMethod = "rank_power_law"
	MethodReviewVelocity EstimateMethod = "review_velocity"
)

// RevenueEstimate is a sales-velocity and revenue figure derived from a
// snapshot plus its history.
type RevenueEstimate struct {
	DailySales     float64        `json:"daily_sales"`
	MonthlyUnits   int            `json:"monthly_units"`
	MonthlyRevenue float64        `json:"monthly_revenue"`
	Currency       string         `json:"currency"`
	Confidence     Confidence     `json:"confidence"`
	Method         EstimateMethod `json:"method"`
}

// ArbitrageComparison is one USD-normalized comparison point.
type ArbitrageComparison struct {
	Platform       Platform `json:"platform"`
	ProductID      string   `json:"product_id"`
	PriceUSD       float64  `json:"price_usd"`
	Savings        float64  `json:"savings"`
	SavingsPercent float64  `json:"savings_percent"`
}

// ArbitrageOpportunity is the profit model for the best comparison, net of
// shipping and duty.
type ArbitrageOpportunity struct {
	SourcePlatform   Platform `json:"source_platform"`
	SourceProductID  string   `json:"source_product_id"`
	PotentialProfit  float64  `json:"potential_profit"`
	ShippingEstimate float64  `json:"shipping_estimate"`
	DutyEstimate     float64  `json:"duty_estimate"`
	LandedCostUSD    float64  `json:"landed_cost_usd"`
}

// ArbitrageResult is computed on demand and not persisted. A degenerate
// input (zero base price) marks the result invalid with a reason instead of
// failing the call.
type ArbitrageResult struct {
	BasePlatform    Platform              `json:"base_platform"`
	BaseProductID   string                `json:"base_product_id"`
	BasePriceUSD    float64               `json:"base_price_usd"`
	Comparisons     []ArbitrageComparison `json:"comparisons"`
	BestOpportunity *ArbitrageOpportunity `json:"best_opportunity,omitempty"`
	Invalid         bool                  `json:"invalid,omitempty"`
	InvalidReason   string                `json:"invalid_reason,omitempty"`
}

// FactorImpact classifies a forecast factor's direction.
type FactorImpact string

const (
	ImpactPositive FactorImpact = "positive"
	ImpactNegative FactorImpact = "negative"
	ImpactNeutral  FactorImpact = "neutral"
)

// ForecastFactor is explanatory attribution metadata. Weights are advisory,
// non-negative, and sum to at most 1 across a result's factors.
type ForecastFactor struct {
	Name   string       `json:"name"`
	Impact FactorImpact `json:"impact"`
	Weight float64      `json:"weight"`
}

// DailyPrediction is one day of a demand forecast with its confidence band.
type DailyPrediction struct {
	Date  time.Time `json:"date"`
	Sales float64   `json:"sales"`
	Low   float64   `json:"low"`
	High  float64   `json:"high"`
}

// ForecastResult is a multi-day demand forecast.
type ForecastResult struct {
	ProductID          string            `json:"product_id"`
	Platform           Platform          `json:"platform"`
	HorizonDays        int               `json:"horizon_days"`
	DailyPredictions   []DailyPrediction `json:"daily_predictions"`
	CumulativeSales    float64           `json:"cumulative_sales"`
	ConfidenceInterval Interval          `json:"confidence_interval"` // band on the cumulative total
	ConfidenceScore    float64           `json:"confidence_score"`    // 0-1 fit quality
	Factors            []ForecastFactor  `json:"factors"`
}

// Interval is a numeric [Low, High] range.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// AlertType enumerates the supported alert rules.
type AlertType string

const (
	AlertPriceDrop   AlertType = "price_drop"
	AlertStockout    AlertType = "stockout"
	AlertTrendChange AlertType = "trend_change"
	AlertRankChange  AlertType = "rank_change"
	AlertArbitrage   AlertType = "arbitrage"
)

// SubscriptionStatus is the alert subscription state.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusInactive SubscriptionStatus = "inactive"
)

// AlertSubscription registers interest in a product condition. Mutated only
// by the alert engine (status, last trigger) or explicit unsubscribe.
type AlertSubscription struct {
	ID               string             `json:"id"`
	ProductID        string             `json:"product_id"`
	Platform         Platform           `json:"platform"`
	Type             AlertType          `json:"alert_type"`
	ThresholdPercent float64            `json:"threshold_percent,omitempty"`
	ThresholdValue   float64            `json:"threshold_value,omitempty"`
	Status           SubscriptionStatus `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
	LastTriggeredAt  *time.Time         `json:"last_triggered_at,omitempty"`
}

// AlertEvent is emitted exactly once per qualifying transition.
type AlertEvent struct {
	SubscriptionID string                 `json:"subscription_id"`
	Type           AlertType              `json:"alert_type"`
	EventType      string                 `json:"event_type"`
	Message        string                 `json:"message"`
	PreviousValue  string                 `json:"previous_value,omitempty"`
	CurrentValue   string                 `json:"current_value,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
	TriggeredAt    time.Time              `json:"triggered_at"`
}
