package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/indexmovers/pkg/models"
)

// series builds consecutive daily points from closes.
func series(closes ...float64) []models.PricePoint {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: c, Volume: int64(100 * (i + 1))}
	}
	return out
}

func TestDailyChanges(t *testing.T) {
	got := DailyChanges(series(100, 110, 99), models.FieldClose)
	require.Len(t, got, 2)
	assert.InDelta(t, 10.0, got[0], 1e-9)
	assert.InDelta(t, -10.0, got[1], 1e-9)

	assert.Nil(t, DailyChanges(series(100), models.FieldClose))
	assert.Nil(t, DailyChanges(nil, models.FieldClose))
}

func TestDailyChangesSkipsZeroPrevious(t *testing.T) {
	got := DailyChanges(series(0, 50, 55), models.FieldClose)
	require.Len(t, got, 1)
	assert.InDelta(t, 10.0, got[0], 1e-9)
}

func TestPerformanceIsNotCompounded(t *testing.T) {
	perf, ok := Performance(series(100, 110, 121), models.FieldClose)
	require.True(t, ok)
	assert.InDelta(t, 20.0, perf, 1e-9, "sum of daily changes, not the compounded 21")
}

func TestPerformanceEqualsSumOfChanges(t *testing.T) {
	points := series(50, 52, 49.5, 51, 60, 58.2)
	sum := 0.0
	for _, c := range DailyChanges(points, models.FieldClose) {
		sum += c
	}
	perf, ok := Performance(points, models.FieldClose)
	require.True(t, ok)
	assert.InDelta(t, sum, perf, 1e-12)

	telescoped := 100 * (58.2/50 - 1)
	assert.NotEqual(t, telescoped, perf)
}

func TestPerformanceEdgeCases(t *testing.T) {
	perf, ok := Performance(series(42), models.FieldClose)
	assert.True(t, ok, "a single point is computable")
	assert.Equal(t, 0.0, perf)

	_, ok = Performance(nil, models.FieldClose)
	assert.False(t, ok, "no points is not computable")
}

func TestPerformancePriceField(t *testing.T) {
	points := series(100, 110)
	points[0].AdjClose = 50
	points[1].AdjClose = 60

	adj, _ := Performance(points, models.FieldAdjClose)
	raw, _ := Performance(points, models.FieldClose)
	assert.InDelta(t, 20.0, adj, 1e-9)
	assert.InDelta(t, 10.0, raw, 1e-9)
}

func TestCumulative(t *testing.T) {
	points := series(100, 110, 99, 108.9)
	cum := Cumulative(points, models.FieldClose)
	require.Len(t, cum, len(points))
	assert.Equal(t, 0.0, cum[0])
	assert.InDelta(t, 10.0, cum[1], 1e-9)
	assert.InDelta(t, 0.0, cum[2], 1e-9)

	perf, _ := Performance(points, models.FieldClose)
	assert.InDelta(t, perf, cum[len(cum)-1], 1e-9)

	assert.Nil(t, Cumulative(nil, models.FieldClose))
}

func TestMeanVolume(t *testing.T) {
	assert.InDelta(t, 200.0, MeanVolume(series(1, 2, 3)), 1e-9)
	assert.Equal(t, 0.0, MeanVolume(nil))
}

func TestEvaluate(t *testing.T) {
	c := models.Constituent{Ticker: "BRK.B", YahooTicker: "BRK-B", Name: "Berkshire", Sector: "Financials", Industry: "Insurance"}

	row, ok := Evaluate(c, series(100, 105), models.FieldClose)
	require.True(t, ok)
	assert.Equal(t, "BRK.B", row.Ticker)
	assert.Equal(t, "BRK-B", row.YahooTicker)
	assert.Equal(t, "Financials", row.Sector)
	assert.Equal(t, 2, row.TradingDays)
	assert.InDelta(t, 5.0, row.Performance, 1e-9)
	assert.InDelta(t, 150.0, row.MeanVolume, 1e-9)

	_, ok = Evaluate(c, nil, models.FieldClose)
	assert.False(t, ok, "a ticker without trading days yields no row")
}
