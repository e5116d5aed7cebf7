package models

import "time"

// TickerPerformance is the per-constituent result of a run.
type TickerPerformance struct {
	Name        string  `json:"name"         csv:"Company Name"`
	Ticker      string  `json:"ticker"       csv:"Ticker"`
	YahooTicker string  `json:"yahoo_ticker" csv:"Yahoo Ticker"`
	Sector      string  `json:"sector"       csv:"Sector"`
	Industry    string  `json:"industry"     csv:"Industry"`
	Performance float64 `json:"performance"  csv:"Performance"` // sum of daily % changes
	MeanVolume  float64 `json:"mean_volume"  csv:"Mean Volume"`
	TradingDays int     `json:"trading_days" csv:"Trading Days"`
}

// GroupBy selects the grouping key for group performance.
type GroupBy string

const (
	GroupBySector   GroupBy = "sector"
	GroupByIndustry GroupBy = "industry"
)

// GroupPerformance is the unweighted mean performance of a sector or industry.
type GroupPerformance struct {
	Group       string  `json:"group"`
	Performance float64 `json:"performance"`
	Members     int     `json:"members"`
}

// SkippedTicker records a constituent that produced no row.
type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// Report is the outcome of one pipeline run.
type Report struct {
	ID          string              `json:"id,omitempty"`
	Index       IndexInfo           `json:"index"`
	Range       DateRange           `json:"range"`
	PriceField  PriceField          `json:"price_field"`
	Rows        []TickerPerformance `json:"rows"` // ranked, best first
	Skipped     []SkippedTicker     `json:"skipped,omitempty"`
	Aligned     bool                `json:"aligned"` // restricted to the benchmark calendar
	GeneratedAt time.Time           `json:"generated_at"`
}

// TickerInspection is the single-ticker drill-down view.
type TickerInspection struct {
	Index       IndexInfo    `json:"index"`
	Ticker      string       `json:"ticker"`
	Range       DateRange    `json:"range"`
	Points      []PricePoint `json:"points"`
	Cumulative  []float64    `json:"cumulative"` // running sum of daily % changes
	Performance float64      `json:"performance"`
	MeanVolume  float64      `json:"mean_volume"`
}
