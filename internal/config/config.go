package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/commercesignal/engine/internal/model"
)

// Config holds all runtime configuration for the engine.
type Config struct {
	// Scoring window
	WindowDays    int // trailing window used for score computation
	MinTrendDays  int // span below which trend compresses toward zero
	MaxWindowSize int // hard cap on snapshots returned per window query

	// History store
	HistoryPath     string // optional JSON persistence path, empty = memory only
	RetentionDays   int    // snapshots older than this are pruned
	PersistOnAppend bool

	// FX
	FXAPIURL     string
	FXCacheTTL   time.Duration
	FXTimeout    time.Duration
	FXRatePerSec float64

	// Alerts
	DefaultRankThreshold float64 // absolute rank delta when the caller supplies none
	MaxThresholdPercent  float64 // upper bound accepted at the boundary

	// Scheduler
	SweepSpec string // cron spec for the periodic alert sweep
	PruneSpec string // cron spec for history pruning

	Debug bool

	// Calibration tables
	Calibration Calibration
}

// PowerLawParams are the (a, b) constants of dailySales = a * rank^(-b).
type PowerLawParams struct {
	A float64
	B float64
}

// ReviewModelParams drive the review-velocity fallback:
// dailySales = Base + velocity * Multiplier.
type ReviewModelParams struct {
	Multiplier float64
	Base       float64
}

// Route identifies a shipping lane between two countries.
type Route struct {
	From string
	To   string
}

// Baselines are the normalization ceilings for score terms. A term at or
// above its baseline normalizes to 1.
type Baselines struct {
	MaxReviewVelocity  float64 // reviews/day considered exceptional
	MaxRankImprovement float64 // fractional rank improvement considered exceptional
	MaxStockoutFreq    float64 // stockout share indicating very high demand
	MaxPriceIncrease   float64 // fractional price increase considered significant
	MaxSellerCount     float64 // seller count considered very competitive
	MaxReviewSpike     float64 // spike magnitude (x normal) mapping to max risk
	MaxSellerChurn     float64 // churn rate mapping to max risk
	MaxRatingStdDev    float64 // rating std dev mapping to max risk
}

// Calibration bundles the platform/category constants supplied as
// configuration rather than derived at runtime.
type Calibration struct {
	PowerLaw        map[string]PowerLawParams   // key: category, "default" required
	ReviewModel     map[string]ReviewModelParams
	Shipping        map[Route]float64 // USD per unit
	DefaultShipping float64
	DutyRates       map[string]float64 // category -> fraction of price
	DefaultDutyRate float64
	FallbackRates   map[string]float64 // "FROM_TO" -> rate
	PlatformCountry map[model.Platform]string
	Baselines       Baselines
}

// Load builds configuration from environment variables, reading a .env file
// when one is present.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		WindowDays:    getEnvInt("WINDOW_DAYS", 30),
		MinTrendDays:  getEnvInt("MIN_TREND_DAYS", 14),
		MaxWindowSize: getEnvInt("MAX_WINDOW_SIZE", 500),

		HistoryPath:     getEnv("HISTORY_PATH", ""),
		RetentionDays:   getEnvInt("RETENTION_DAYS", 90),
		PersistOnAppend: getEnvBool("PERSIST_ON_APPEND", false),

		FXAPIURL:     getEnv("FX_API_URL", "https://api.exchangerate-api.com/v4/latest"),
		FXCacheTTL:   getEnvDuration("FX_CACHE_TTL", time.Hour),
		FXTimeout:    getEnvDuration("FX_TIMEOUT", 5*time.Second),
		FXRatePerSec: getEnvFloat("FX_RATE_PER_SEC", 2),

		DefaultRankThreshold: getEnvFloat("RANK_CHANGE_THRESHOLD", 100),
		MaxThresholdPercent:  getEnvFloat("MAX_THRESHOLD_PCT", 90),

		SweepSpec: getEnv("SWEEP_CRON", "0 * * * *"),
		PruneSpec: getEnv("PRUNE_CRON", "30 3 * * *"),

		Debug: getEnvBool("DEBUG", false),

		Calibration: DefaultCalibration(),
	}

	if cfg.WindowDays < 1 {
		return nil, fmt.Errorf("WINDOW_DAYS must be positive, got %d", cfg.WindowDays)
	}
	if cfg.RetentionDays < cfg.WindowDays {
		return nil, fmt.Errorf("RETENTION_DAYS (%d) must cover WINDOW_DAYS (%d)",
			cfg.RetentionDays, cfg.WindowDays)
	}

	return cfg, nil
}

// DefaultCalibration returns the built-in platform/category constants.
// Power-law pairs approximate marketplace BSR curves and are expected to be
// recalibrated from observed sales data.
func DefaultCalibration() Calibration {
	return Calibration{
		PowerLaw: map[string]PowerLawParams{
			"Electronics":            {A: 50000, B: 0.8},
			"Home & Kitchen":         {A: 30000, B: 0.75},
			"Toys & Games":           {A: 25000, B: 0.7},
			"Sports & Outdoors":      {A: 20000, B: 0.7},
			"Beauty & Personal Care": {A: 35000, B: 0.75},
			"Health & Household":     {A: 30000, B: 0.72},
			"Clothing":               {A: 40000, B: 0.78},
			"Books":                  {A: 60000, B: 0.85},
			"default":                {A: 25000, B: 0.72},
		},
		ReviewModel: map[string]ReviewModelParams{
			"Electronics":      {Multiplier: 15, Base: 5},
			"Mobiles":          {Multiplier: 12, Base: 8},
			"Fashion":          {Multiplier: 20, Base: 10},
			"Home & Furniture": {Multiplier: 10, Base: 3},
			"Appliances":       {Multiplier: 8, Base: 2},
			"Beauty":           {Multiplier: 18, Base: 6},
			"Toys & Baby":      {Multiplier: 12, Base: 4},
			"Sports":           {Multiplier: 10, Base: 3},
			"Books":            {Multiplier: 25, Base: 2},
			"Grocery":          {Multiplier: 30, Base: 15},
			"default":          {Multiplier: 15, Base: 5},
		},
		Shipping: map[Route]float64{
			{"US", "IN"}: 25,
			{"IN", "US"}: 30,
			{"US", "UK"}: 20,
			{"UK", "US"}: 20,
			{"US", "DE"}: 22,
			{"DE", "US"}: 22,
			{"CN", "US"}: 18,
		},
		DefaultShipping: 35,
		DutyRates: map[string]float64{
			"Electronics": 0.05,
			"Clothing":    0.12,
			"Toys":        0.03,
			"Beauty":      0.08,
			"Books":       0.00,
		},
		DefaultDutyRate: 0.05,
		FallbackRates: map[string]float64{
			"USD_INR": 83.00,
			"INR_USD": 0.012,
			"USD_GBP": 0.79,
			"GBP_USD": 1.27,
			"USD_EUR": 0.92,
			"EUR_USD": 1.09,
			"USD_JPY": 150.00,
			"JPY_USD": 0.0067,
			"USD_CNY": 7.20,
			"CNY_USD": 0.139,
		},
		PlatformCountry: map[model.Platform]string{
			model.PlatformAmazon:   "US",
			model.PlatformFlipkart: "IN",
			model.PlatformWalmart:  "US",
			model.PlatformEbay:     "US",
			model.PlatformAlibaba:  "CN",
			model.PlatformShopify:  "US",
		},
		Baselines: Baselines{
			MaxReviewVelocity:  50,
			MaxRankImprovement: 0.5,
			MaxStockoutFreq:    0.3,
			MaxPriceIncrease:   0.2,
			MaxSellerCount:     50,
			MaxReviewSpike:     5,
			MaxSellerChurn:     0.5,
			MaxRatingStdDev:    1.0,
		},
	}
}

// PowerLawFor returns the calibration pair for a category, falling back to
// the default bucket.
func (c Calibration) PowerLawFor(category string) PowerLawParams {
	if p, ok := c.PowerLaw[category]; ok {
		return p
	}
	return c.PowerLaw["default"]
}

// ReviewModelFor returns the review-velocity parameters for a category.
func (c Calibration) ReviewModelFor(category string) ReviewModelParams {
	if p, ok := c.ReviewModel[category]; ok {
		return p
	}
	return c.ReviewModel["default"]
}

// ShippingFor returns the shipping estimate for a route in USD.
func (c Calibration) ShippingFor(from, to string) float64 {
	if cost, ok := c.Shipping[Route{From: from, To: to}]; ok {
		return cost
	}
	return c.DefaultShipping
}

// DutyRateFor returns the import duty fraction for a category.
func (c Calibration) DutyRateFor(category string) float64 {
	if rate, ok := c.DutyRates[category]; ok {
		return rate
	}
	return c.DefaultDutyRate
}

// CountryFor returns the home country assumed for a platform.
func (c Calibration) CountryFor(p model.Platform) string {
	if country, ok := c.PlatformCountry[p]; ok {
		return country
	}
	return "US"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
