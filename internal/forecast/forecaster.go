package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/commercesignal/engine/internal/model"
	"github.com/commercesignal/engine/internal/revenue"
)

// Horizons are the supported forecast lengths in days.
var Horizons = map[int]bool{7: true, 14: true, 30: true}

// Forecaster projects daily sales forward from a product's history using a
// linear trend plus day-of-week seasonality.
type Forecaster struct {
	est *revenue.Estimator
}

// NewForecaster wires the revenue estimator used to turn raw snapshots into
// a daily sales series.
func NewForecaster(est *revenue.Estimator) *Forecaster {
	return &Forecaster{est: est}
}

// minSeriesDays is the shortest history that supports trend extraction.
// Shorter series get a flat projection with a wide band.
const minSeriesDays = 7

type dayPoint struct {
	date  time.Time // midnight UTC
	sales float64
}

// Forecast projects horizonDays of daily sales from the window. Horizon must
// be one of Horizons. An empty window is invalid input; a short one degrades
// to a flat low-confidence projection instead of failing. The current signal
// scores feed the factor attribution alongside the fitted curve.
func (f *Forecaster) Forecast(window []model.ProductSnapshot, scores model.SignalScores, horizonDays int, now time.Time) (model.ForecastResult, error) {
	if !Horizons[horizonDays] {
		return model.ForecastResult{}, fmt.Errorf("horizon %d days not supported: %w",
			horizonDays, model.ErrInvalidInput)
	}
	if len(window) == 0 {
		return model.ForecastResult{}, fmt.Errorf("empty history: %w", model.ErrInvalidInput)
	}

	series := f.dailySeries(window)
	latest := window[0]
	for _, s := range window {
		if s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}

	result := model.ForecastResult{
		ProductID:   latest.ProductID,
		Platform:    latest.Platform,
		HorizonDays: horizonDays,
	}

	start := now.UTC().Truncate(24 * time.Hour)
	if len(series) < minSeriesDays {
		f.flatProjection(&result, series, scores, start)
		return result, nil
	}

	f.trendProjection(&result, series, scores, start)
	return result, nil
}

// dailySeries buckets snapshots into UTC days and estimates sales from the
// last snapshot of each day, sorted ascending.
func (f *Forecaster) dailySeries(window []model.ProductSnapshot) []dayPoint {
	byDay := make(map[time.Time]model.ProductSnapshot)
	for _, snap := range window {
		day := snap.Timestamp.UTC().Truncate(24 * time.Hour)
		if prev, ok := byDay[day]; !ok || snap.Timestamp.After(prev.Timestamp) {
			byDay[day] = snap
		}
	}
	series := make([]dayPoint, 0, len(byDay))
	for day, snap := range byDay {
		series = append(series, dayPoint{date: day, sales: f.est.EstimatePoint(snap)})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].date.Before(series[j].date) })
	return series
}

// flatProjection repeats the recent average with a wide band. Used when the
// history is too short for a meaningful trend.
func (f *Forecaster) flatProjection(result *model.ForecastResult, series []dayPoint, scores model.SignalScores, start time.Time) {
	level := 0.0
	for _, p := range series {
		level += p.sales
	}
	if len(series) > 0 {
		level /= float64(len(series))
	}

	for i := 0; i < result.HorizonDays; i++ {
		band := level * 0.5 * math.Sqrt(float64(i+1))
		result.DailyPredictions = append(result.DailyPredictions, model.DailyPrediction{
			Date:  start.AddDate(0, 0, i+1),
			Sales: round2(level),
			Low:   round2(math.Max(0, level-band)),
			High:  round2(level + band),
		})
	}
	finishResult(result)
	result.ConfidenceScore = 0.2
	result.Factors = []model.ForecastFactor{
		{Name: "limited history", Impact: model.ImpactNeutral, Weight: 0.8},
	}
	result.Factors = append(result.Factors, scoreFactors(scores, 0.2)...)
}

// trendProjection fits a least-squares line over the series, layers
// day-of-week seasonality on top, and widens the band with the residual
// spread as the horizon extends.
func (f *Forecaster) trendProjection(result *model.ForecastResult, series []dayPoint, scores model.SignalScores, start time.Time) {
	n := len(series)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range series {
		xs[i] = p.date.Sub(series[0].date).Hours() / 24
		ys[i] = p.sales
	}
	slope, intercept := fitLine(xs, ys)

	seasonal := weekdayFactors(series, slope, intercept)

	// Residual spread after removing trend and seasonality drives the band.
	var ss float64
	for i, p := range series {
		fitted := (intercept + slope*xs[i]) * seasonal[p.date.Weekday()]
		ss += (p.sales - fitted) * (p.sales - fitted)
	}
	residual := math.Sqrt(ss / float64(n))

	lastX := xs[n-1]
	offset := start.Sub(series[0].date).Hours() / 24
	for i := 0; i < result.HorizonDays; i++ {
		date := start.AddDate(0, 0, i+1)
		x := offset + float64(i+1)
		base := intercept + slope*x
		sales := math.Max(0, base*seasonal[date.Weekday()])
		band := residual * math.Sqrt(float64(i+1))
		result.DailyPredictions = append(result.DailyPredictions, model.DailyPrediction{
			Date:  date,
			Sales: round2(sales),
			Low:   round2(math.Max(0, sales-band)),
			High:  round2(sales + band),
		})
	}
	finishResult(result)

	result.ConfidenceScore = fitConfidence(ys, residual, n)
	result.Factors = buildFactors(slope, intercept, seasonal, lastX)

	var spent float64
	for _, factor := range result.Factors {
		spent += factor.Weight
	}
	result.Factors = append(result.Factors, scoreFactors(scores, 1-spent)...)
}

// fitLine is ordinary least squares over (xs, ys).
func fitLine(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// weekdayFactors measures each weekday's average deviation from the trend
// line. Days without observations get a neutral factor of 1.
func weekdayFactors(series []dayPoint, slope, intercept float64) map[time.Weekday]float64 {
	sums := make(map[time.Weekday]float64)
	counts := make(map[time.Weekday]int)
	for _, p := range series {
		x := p.date.Sub(series[0].date).Hours() / 24
		fitted := intercept + slope*x
		if fitted <= 0 {
			continue
		}
		sums[p.date.Weekday()] += p.sales / fitted
		counts[p.date.Weekday()]++
	}

	factors := make(map[time.Weekday]float64, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if counts[d] == 0 {
			factors[d] = 1
			continue
		}
		// Damp toward 1 so a single noisy weekday cannot dominate.
		raw := sums[d] / float64(counts[d])
		factors[d] = clampF(0.5+raw*0.5, 0.5, 2.0)
	}
	return factors
}

// fitConfidence maps residual spread relative to the series level into 0-1.
func fitConfidence(ys []float64, residual float64, n int) float64 {
	var level float64
	for _, y := range ys {
		level += y
	}
	level /= float64(n)
	if level <= 0 {
		return 0.2
	}
	noise := residual / level
	score := 1 - clampF(noise, 0, 1)
	// More observed days earn more trust, saturating at 30.
	coverage := clampF(float64(n)/30, 0, 1)
	return round2(clampF(score*(0.5+0.5*coverage), 0.1, 0.95))
}

// buildFactors produces the explanatory attribution. Weights are advisory
// and sum to at most 1.
func buildFactors(slope, intercept float64, seasonal map[time.Weekday]float64, lastX float64) []model.ForecastFactor {
	factors := make([]model.ForecastFactor, 0, 2)

	level := intercept + slope*lastX
	trendImpact := model.ImpactNeutral
	trendWeight := 0.3
	if level > 0 {
		rel := slope / level
		switch {
		case rel > 0.01:
			trendImpact = model.ImpactPositive
			trendWeight = clampF(0.3+rel*10, 0.3, 0.6)
		case rel < -0.01:
			trendImpact = model.ImpactNegative
			trendWeight = clampF(0.3-rel*10, 0.3, 0.6)
		}
	}
	factors = append(factors, model.ForecastFactor{
		Name: "sales trend", Impact: trendImpact, Weight: round2(trendWeight),
	})

	var spread float64
	for _, f := range seasonal {
		spread = math.Max(spread, math.Abs(f-1))
	}
	seasonImpact := model.ImpactNeutral
	if spread > 0.1 {
		seasonImpact = model.ImpactPositive
	}
	factors = append(factors, model.ForecastFactor{
		Name: "day-of-week seasonality", Impact: seasonImpact,
		Weight: round2(clampF(spread, 0.05, 1-trendWeight)),
	})
	return factors
}

// scoreFactors derives attribution from the product's current signal scores,
// spending at most budget across the emitted factors so the total stays
// within 1.
func scoreFactors(scores model.SignalScores, budget float64) []model.ForecastFactor {
	var factors []model.ForecastFactor
	add := func(name string, impact model.FactorImpact, weight float64) {
		if weight > budget {
			weight = budget
		}
		if weight <= 0 {
			return
		}
		budget -= weight
		factors = append(factors, model.ForecastFactor{
			Name: name, Impact: impact, Weight: round2(weight),
		})
	}

	switch {
	case scores.TrendScore > 20:
		add("review velocity accelerating", model.ImpactPositive, 0.15)
	case scores.TrendScore < -20:
		add("review velocity slowing", model.ImpactNegative, 0.15)
	}
	switch {
	case scores.DemandScore > 60:
		add("strong demand signals", model.ImpactPositive, 0.1)
	case scores.DemandScore > 0 && scores.DemandScore < 30:
		add("weak demand signals", model.ImpactNegative, 0.1)
	}
	return factors
}

// finishResult fills the cumulative total and its band from the daily rows.
func finishResult(result *model.ForecastResult) {
	var total, low, high float64
	for _, p := range result.DailyPredictions {
		total += p.Sales
		low += p.Low
		high += p.High
	}
	result.CumulativeSales = round2(total)
	result.ConfidenceInterval = model.Interval{Low: round2(low), High: round2(high)}
}

func clampF(v, lo, hi float64) float64 {
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
