package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/seenimoa/indexmovers/pkg/models"
	"github.com/seenimoa/indexmovers/pkg/utils"
)

// FetchOptions configures a bulk price download.
type FetchOptions struct {
	PadDays     int  // days requested on each side of the range
	Concurrency int  // simultaneous provider requests
	Align       bool // restrict series to the benchmark's trading days
}

// TickerHistory is the trimmed price history of one constituent.
type TickerHistory struct {
	Constituent models.Constituent
	Points      []models.PricePoint
}

// FetchResult holds the outcome of a bulk download. Histories keep the
// order of the input constituents.
type FetchResult struct {
	Histories []TickerHistory
	Skipped   []models.SkippedTicker
	Aligned   bool
}

// FetchEvent reports one finished ticker.
type FetchEvent struct {
	Ticker string
	Done   int
	Total  int
	Err    error
}

// ProgressFunc receives fetch events. Calls are serialized.
type ProgressFunc func(FetchEvent)

// BulkFetcher downloads price histories for a constituent list.
type BulkFetcher struct {
	source PriceSource
	opts   FetchOptions
	log    logrus.FieldLogger
}

// NewBulkFetcher creates a bulk fetcher over the given price source.
func NewBulkFetcher(source PriceSource, opts FetchOptions, log logrus.FieldLogger) *BulkFetcher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PadDays < 0 {
		opts.PadDays = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BulkFetcher{source: source, opts: opts, log: log}
}

// Fetch downloads the padded window for every constituent, trims each
// series to rng and, when enabled, aligns it to the benchmark calendar.
// Tickers that fail or end up empty are recorded in Skipped. Only context
// cancellation aborts the whole fetch.
func (f *BulkFetcher) Fetch(ctx context.Context, index models.IndexInfo, cons []models.Constituent, rng models.DateRange, progress ProgressFunc) (*FetchResult, error) {
	res := &FetchResult{}

	var calendar map[time.Time]bool
	if f.opts.Align && index.Benchmark != "" {
		bench, err := f.FetchOne(ctx, index.Benchmark, rng)
		switch {
		case err == nil:
			calendar = tradingDays(bench)
			res.Aligned = true
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			f.log.WithFields(logrus.Fields{
				"index":     index.ID,
				"benchmark": index.Benchmark,
			}).WithError(err).Warn("benchmark calendar unavailable, skipping alignment")
		}
	}

	var (
		histories = make([][]models.PricePoint, len(cons))
		errs      = make([]error, len(cons))
		mu        sync.Mutex
		done      int
	)

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(f.opts.Concurrency))

	for i, c := range cons {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		i, c := i, c
		g.Go(func() error {
			defer sem.Release(1)

			points, err := f.FetchOne(gctx, c.YahooTicker, rng)
			if err == nil && calendar != nil {
				points = AlignToCalendar(points, calendar)
				if len(points) == 0 {
					err = fmt.Errorf("%w: %s", ErrNoData, c.YahooTicker)
				}
			}
			histories[i] = points
			errs[i] = err

			mu.Lock()
			done++
			if progress != nil {
				progress(FetchEvent{Ticker: c.YahooTicker, Done: done, Total: len(cons), Err: err})
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, c := range cons {
		if errs[i] != nil {
			f.log.WithFields(logrus.Fields{
				"index":  index.ID,
				"ticker": c.YahooTicker,
			}).WithError(errs[i]).Debug("ticker skipped")
			res.Skipped = append(res.Skipped, models.SkippedTicker{
				Ticker: c.YahooTicker,
				Reason: errs[i].Error(),
			})
			continue
		}
		res.Histories = append(res.Histories, TickerHistory{
			Constituent: c,
			Points:      histories[i],
		})
	}
	return res, nil
}

// FetchOne downloads the padded window for one symbol and trims it to rng.
func (f *BulkFetcher) FetchOne(ctx context.Context, symbol string, rng models.DateRange) ([]models.PricePoint, error) {
	from, to := utils.PaddedWindow(rng.Start, rng.End, f.opts.PadDays)
	points, err := f.source.GetPriceHistory(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	points = TrimToRange(points, rng)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return points, nil
}

// TrimToRange keeps the points dated in [rng.Start, rng.End).
func TrimToRange(points []models.PricePoint, rng models.DateRange) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if rng.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out
}

// AlignToCalendar keeps the points whose date is a reference trading day.
func AlignToCalendar(points []models.PricePoint, calendar map[time.Time]bool) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if calendar[p.Date] {
			out = append(out, p)
		}
	}
	return out
}

func tradingDays(points []models.PricePoint) map[time.Time]bool {
	days := make(map[time.Time]bool, len(points))
	for _, p := range points {
		days[p.Date] = true
	}
	return days
}
