package performance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/seenimoa/indexmovers/pkg/models"
)

// Unclassified labels rows whose sector or industry is blank.
const Unclassified = "Unclassified"

// Rank returns a copy of rows sorted by performance, best first. Ties keep
// their input order.
func Rank(rows []models.TickerPerformance) []models.TickerPerformance {
	out := make([]models.TickerPerformance, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Performance > out[j].Performance
	})
	return out
}

// Top returns the first n rows of a ranking.
func Top(ranked []models.TickerPerformance, n int) []models.TickerPerformance {
	if n <= 0 {
		return nil
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Bottom returns the last n rows of a ranking, still in ranking order.
func Bottom(ranked []models.TickerPerformance, n int) []models.TickerPerformance {
	if n <= 0 {
		return nil
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[len(ranked)-n:]
}

// MedianPerformance returns the median performance of rows, 0 when empty.
func MedianPerformance(rows []models.TickerPerformance) float64 {
	data := make(stats.Float64Data, len(rows))
	for i, r := range rows {
		data[i] = r.Performance
	}
	median, err := stats.Median(data)
	if err != nil {
		return 0
	}
	return median
}

// ParseGroupBy resolves "sector" or "industry".
func ParseGroupBy(s string) (models.GroupBy, error) {
	switch g := models.GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case models.GroupBySector, models.GroupByIndustry:
		return g, nil
	default:
		return "", fmt.Errorf("unknown grouping %q (want sector or industry)", s)
	}
}

// GroupBy averages member performance per sector or industry. Means are
// unweighted; groups are ordered by mean, best first, ties by first
// appearance in rows.
func GroupBy(rows []models.TickerPerformance, key models.GroupBy) []models.GroupPerformance {
	var (
		order   []string
		members = make(map[string]stats.Float64Data)
	)
	for _, r := range rows {
		k := groupKey(r, key)
		if _, ok := members[k]; !ok {
			order = append(order, k)
		}
		members[k] = append(members[k], r.Performance)
	}

	out := make([]models.GroupPerformance, 0, len(order))
	for _, k := range order {
		mean, err := stats.Mean(members[k])
		if err != nil {
			continue
		}
		out = append(out, models.GroupPerformance{
			Group:       k,
			Performance: mean,
			Members:     len(members[k]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Performance > out[j].Performance
	})
	return out
}

func groupKey(r models.TickerPerformance, key models.GroupBy) string {
	k := r.Sector
	if key == models.GroupByIndustry {
		k = r.Industry
	}
	if k = strings.TrimSpace(k); k == "" {
		return Unclassified
	}
	return k
}
