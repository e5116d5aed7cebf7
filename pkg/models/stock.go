// Package models defines the core data structures used throughout indexmovers.
package models

import "time"

// Constituent is a single security belonging to a tracked index.
type Constituent struct {
	Ticker      string `json:"ticker"`       // as listed, e.g. "BRK.B" or "600519"
	YahooTicker string `json:"yahoo_ticker"` // provider symbol, e.g. "BRK-B" or "600519.SS"
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
}

// PricePoint is one trading day of price data.
//
// Date is the exchange-local calendar date expressed as midnight UTC, so
// points from different feeds compare by calendar day.
type PricePoint struct {
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close,omitempty"`
	Volume   int64     `json:"volume"`
}

// PriceField selects which close a computation reads.
type PriceField string

const (
	FieldClose    PriceField = "close"
	FieldAdjClose PriceField = "adj_close"
)

// Value returns the price for the given field. Adjusted close falls back to
// the raw close when the provider did not supply one.
func (p PricePoint) Value(f PriceField) float64 {
	if f == FieldAdjClose && p.AdjClose != 0 {
		return p.AdjClose
	}
	return p.Close
}

// DateRange is the half-open calendar date range [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the range is not inverted.
func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

// Contains reports whether d falls inside the range. End is excluded.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && d.Before(r.End)
}
