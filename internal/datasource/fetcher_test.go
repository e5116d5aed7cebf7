package datasource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/seenimoa/indexmovers/pkg/models"
)

// fakeSource serves canned histories keyed by symbol.
type fakeSource struct {
	mu      sync.Mutex
	series  map[string][]models.PricePoint
	errs    map[string]error
	windows map[string][2]time.Time
	delay   time.Duration
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.windows == nil {
		f.windows = make(map[string][2]time.Time)
	}
	f.windows[symbol] = [2]time.Time{from, to}
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	points, ok := f.series[symbol]
	if !ok {
		return nil, ErrTickerNotFound
	}
	return points, nil
}

func pts(closes map[string]float64) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(closes))
	for _, d := range []string{"2023-12-29", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"} {
		if c, ok := closes[d]; ok {
			out = append(out, models.PricePoint{Date: day(d), Close: c})
		}
	}
	return out
}

var testRange = models.DateRange{Start: day("2024-01-02"), End: day("2024-01-05")}

func cons(symbols ...string) []models.Constituent {
	out := make([]models.Constituent, len(symbols))
	for i, s := range symbols {
		out[i] = models.Constituent{Ticker: s, YahooTicker: s, Name: s, Sector: "S", Industry: "I"}
	}
	return out
}

func TestTrimToRange(t *testing.T) {
	points := pts(map[string]float64{"2023-12-29": 1, "2024-01-02": 2, "2024-01-04": 3, "2024-01-05": 4, "2024-01-08": 5})
	got := TrimToRange(points, testRange)
	if len(got) != 2 || got[0].Close != 2 || got[1].Close != 3 {
		t.Fatalf("TrimToRange kept %+v", got)
	}
}

func TestAlignToCalendar(t *testing.T) {
	points := pts(map[string]float64{"2024-01-02": 1, "2024-01-03": 2, "2024-01-04": 3})
	calendar := tradingDays(pts(map[string]float64{"2024-01-02": 0, "2024-01-04": 0}))
	got := AlignToCalendar(points, calendar)
	if len(got) != 2 || got[0].Close != 1 || got[1].Close != 3 {
		t.Fatalf("AlignToCalendar kept %+v", got)
	}
}

func TestBulkFetcherFetch(t *testing.T) {
	src := &fakeSource{
		series: map[string][]models.PricePoint{
			"^GSPC": pts(map[string]float64{"2023-12-29": 1, "2024-01-02": 1, "2024-01-04": 1, "2024-01-05": 1}),
			"AAA":   pts(map[string]float64{"2023-12-29": 9, "2024-01-02": 10, "2024-01-03": 99, "2024-01-04": 11, "2024-01-05": 12}),
			"BBB":   pts(map[string]float64{"2024-01-08": 5}),
			"DDD":   pts(map[string]float64{"2024-01-03": 7}),
			"EEE":   pts(map[string]float64{"2024-01-02": 20, "2024-01-05": 21}),
		},
	}
	sp500, _ := models.LookupIndex("sp500")
	f := NewBulkFetcher(src, FetchOptions{PadDays: 5, Concurrency: 2, Align: true}, nil)

	var events []FetchEvent
	res, err := f.Fetch(context.Background(), sp500, cons("AAA", "BBB", "CCC", "DDD", "EEE"), testRange, func(ev FetchEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if !res.Aligned {
		t.Error("expected benchmark alignment")
	}

	if len(res.Histories) != 2 {
		t.Fatalf("expected 2 histories, got %d", len(res.Histories))
	}
	if res.Histories[0].Constituent.YahooTicker != "AAA" || res.Histories[1].Constituent.YahooTicker != "EEE" {
		t.Errorf("histories out of input order: %s, %s",
			res.Histories[0].Constituent.YahooTicker, res.Histories[1].Constituent.YahooTicker)
	}
	aaa := res.Histories[0].Points
	if len(aaa) != 2 || aaa[0].Close != 10 || aaa[1].Close != 11 {
		t.Errorf("AAA not trimmed and aligned: %+v", aaa)
	}

	wantSkipped := []string{"BBB", "CCC", "DDD"}
	if len(res.Skipped) != len(wantSkipped) {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	for i, w := range wantSkipped {
		if res.Skipped[i].Ticker != w || res.Skipped[i].Reason == "" {
			t.Errorf("skipped[%d] = %+v, want %s with reason", i, res.Skipped[i], w)
		}
	}

	if len(events) != 5 {
		t.Fatalf("expected 5 progress events, got %d", len(events))
	}
	if last := events[len(events)-1]; last.Done != 5 || last.Total != 5 {
		t.Errorf("last event = %+v", last)
	}

	win := src.windows["AAA"]
	if !win[0].Equal(day("2023-12-28")) || !win[1].Equal(day("2024-01-10")) {
		t.Errorf("padded window = %v .. %v", win[0], win[1])
	}
}

func TestBulkFetcherBenchmarkFailureSkipsAlignment(t *testing.T) {
	src := &fakeSource{
		series: map[string][]models.PricePoint{
			"AAA": pts(map[string]float64{"2024-01-02": 10, "2024-01-04": 11}),
		},
		errs: map[string]error{"^GSPC": errors.New("boom")},
	}
	sp500, _ := models.LookupIndex("sp500")
	f := NewBulkFetcher(src, FetchOptions{Concurrency: 4, Align: true}, nil)

	res, err := f.Fetch(context.Background(), sp500, cons("AAA"), testRange, nil)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if res.Aligned {
		t.Error("alignment should be skipped when the benchmark fails")
	}
	if len(res.Histories) != 1 || len(res.Histories[0].Points) != 2 {
		t.Errorf("histories = %+v", res.Histories)
	}
}

func TestBulkFetcherNoAlignment(t *testing.T) {
	src := &fakeSource{
		series: map[string][]models.PricePoint{
			"AAA": pts(map[string]float64{"2024-01-02": 10}),
		},
	}
	csi, _ := models.LookupIndex("csi300")
	f := NewBulkFetcher(src, FetchOptions{Concurrency: 1}, nil)

	res, err := f.Fetch(context.Background(), csi, cons("AAA"), testRange, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Aligned {
		t.Error("Aligned should be false when alignment is disabled")
	}
	if _, called := src.windows[csi.Benchmark]; called {
		t.Error("benchmark must not be fetched when alignment is disabled")
	}
}

func TestBulkFetcherCancelled(t *testing.T) {
	src := &fakeSource{
		series: map[string][]models.PricePoint{
			"AAA": pts(map[string]float64{"2024-01-02": 10}),
			"BBB": pts(map[string]float64{"2024-01-02": 10}),
		},
		delay: 200 * time.Millisecond,
	}
	sp500, _ := models.LookupIndex("sp500")
	f := NewBulkFetcher(src, FetchOptions{Concurrency: 1}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Fetch(ctx, sp500, cons("AAA", "BBB"), testRange, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestBulkFetcherFetchOne(t *testing.T) {
	src := &fakeSource{
		series: map[string][]models.PricePoint{
			"AAA": pts(map[string]float64{"2023-12-29": 1}),
		},
	}
	f := NewBulkFetcher(src, FetchOptions{PadDays: 5}, nil)

	if _, err := f.FetchOne(context.Background(), "AAA", testRange); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData for points outside the range, got %v", err)
	}
	if _, err := f.FetchOne(context.Background(), "ZZZ", testRange); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("expected ErrTickerNotFound, got %v", err)
	}
}
