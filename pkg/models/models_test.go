package models

import (
	"encoding/json"
	"testing"
	"time"
)

// ── Index Tests ──

func TestLookupIndex(t *testing.T) {
	tests := []struct {
		input string
		want  Index
		ok    bool
	}{
		{"sp500", IndexSP500, true},
		{"S&P 500", IndexSP500, true},
		{"S&P-500", IndexSP500, true},
		{" SPX ", IndexSP500, true},
		{"csi300", IndexCSI300, true},
		{"CSI 300", IndexCSI300, true},
		{"csi_300", IndexCSI300, true},
		{"nifty", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			info, ok := LookupIndex(tt.input)
			if ok != tt.ok {
				t.Fatalf("LookupIndex(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if info.ID != tt.want {
				t.Errorf("LookupIndex(%q) = %q, want %q", tt.input, info.ID, tt.want)
			}
		})
	}
}

func TestIndicesReturnsCopy(t *testing.T) {
	all := Indices()
	if len(all) != 2 {
		t.Fatalf("Indices() len = %d, want 2", len(all))
	}
	all[0].Name = "mutated"
	if Indices()[0].Name != "S&P 500" {
		t.Error("Indices() must not expose the internal slice")
	}
}

func TestIndexBenchmarks(t *testing.T) {
	sp, _ := LookupIndex("sp500")
	if sp.Benchmark != "^GSPC" || sp.TimeZone != "America/New_York" {
		t.Errorf("unexpected S&P 500 info: %+v", sp)
	}
	csi, _ := LookupIndex("csi300")
	if csi.Benchmark != "000300.SS" || csi.TimeZone != "Asia/Shanghai" {
		t.Errorf("unexpected CSI 300 info: %+v", csi)
	}
}

// ── Price Tests ──

func TestPricePointValue(t *testing.T) {
	p := PricePoint{Close: 10, AdjClose: 9.5}
	if got := p.Value(FieldClose); got != 10 {
		t.Errorf("Value(close) = %v, want 10", got)
	}
	if got := p.Value(FieldAdjClose); got != 9.5 {
		t.Errorf("Value(adj_close) = %v, want 9.5", got)
	}

	noAdj := PricePoint{Close: 10}
	if got := noAdj.Value(FieldAdjClose); got != 10 {
		t.Errorf("Value(adj_close) without adjusted close = %v, want fallback 10", got)
	}
}

func TestDateRange(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	r := DateRange{Start: start, End: end}

	if !r.Valid() {
		t.Error("expected range to be valid")
	}
	if !(DateRange{Start: start, End: start}).Valid() {
		t.Error("single-day range should be valid")
	}
	if (DateRange{Start: end, End: start}).Valid() {
		t.Error("inverted range should be invalid")
	}

	if !r.Contains(start) || !r.Contains(end.AddDate(0, 0, -1)) {
		t.Error("range must include the start and the day before the end")
	}
	if r.Contains(start.AddDate(0, 0, -1)) || r.Contains(end) {
		t.Error("range must exclude the end date and dates before the start")
	}
	if (DateRange{Start: start, End: start}).Contains(start) {
		t.Error("single-day range must be empty")
	}
}

// ── Report Tests ──

func TestTickerPerformanceJSON(t *testing.T) {
	row := TickerPerformance{
		Name:        "Apple Inc.",
		Ticker:      "AAPL",
		YahooTicker: "AAPL",
		Sector:      "Information Technology",
		Industry:    "Technology Hardware, Storage & Peripherals",
		Performance: 12.5,
		TradingDays: 20,
	}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	for _, key := range []string{"name", "ticker", "yahoo_ticker", "sector", "industry", "performance", "mean_volume", "trading_days"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}
}
