// Package performance turns daily price series into per-ticker performance
// figures and ranks or groups them.
//
// Performance is the sum of daily percentage changes over the window. It is
// deliberately not compounded: 100 → 110 → 121 scores 20, not 21.
package performance

import (
	"github.com/montanaflynn/stats"

	"github.com/seenimoa/indexmovers/pkg/models"
)

// DailyChanges returns 100 * (p[i]/p[i-1] - 1) for each consecutive pair of
// points. Pairs whose previous price is zero are skipped.
func DailyChanges(points []models.PricePoint, field models.PriceField) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Value(field)
		if prev == 0 {
			continue
		}
		out = append(out, 100*(points[i].Value(field)/prev-1))
	}
	return out
}

// Performance returns the sum of daily percentage changes. A single point
// scores 0; an empty series is not computable and reports ok=false.
func Performance(points []models.PricePoint, field models.PriceField) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, c := range DailyChanges(points, field) {
		sum += c
	}
	return sum, true
}

// Cumulative returns the running sum of daily changes, one value per point.
// The first value is 0 and the last equals Performance.
func Cumulative(points []models.PricePoint, field models.PriceField) []float64 {
	if len(points) == 0 {
		return nil
	}
	out := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		out[i] = out[i-1]
		if prev := points[i-1].Value(field); prev != 0 {
			out[i] += 100 * (points[i].Value(field)/prev - 1)
		}
	}
	return out
}

// MeanVolume returns the unweighted mean daily volume, or 0 for no points.
func MeanVolume(points []models.PricePoint) float64 {
	vols := make(stats.Float64Data, len(points))
	for i, p := range points {
		vols[i] = float64(p.Volume)
	}
	mean, err := stats.Mean(vols)
	if err != nil {
		return 0
	}
	return mean
}

// Evaluate builds the result row of one constituent. It reports false when
// the series has no points, so the ticker contributes no row.
func Evaluate(c models.Constituent, points []models.PricePoint, field models.PriceField) (models.TickerPerformance, bool) {
	perf, ok := Performance(points, field)
	if !ok {
		return models.TickerPerformance{}, false
	}
	return models.TickerPerformance{
		Name:        c.Name,
		Ticker:      c.Ticker,
		YahooTicker: c.YahooTicker,
		Sector:      c.Sector,
		Industry:    c.Industry,
		Performance: perf,
		MeanVolume:  MeanVolume(points),
		TradingDays: len(points),
	}, true
}
