// Package pipeline runs the constituent performance batch: load the index
// membership, download prices, score each ticker and rank the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/indexmovers/internal/analysis/performance"
	"github.com/seenimoa/indexmovers/internal/datasource"
	"github.com/seenimoa/indexmovers/pkg/models"
	"github.com/seenimoa/indexmovers/pkg/utils"
)

// Sentinel errors.
var (
	ErrInvalidRange = errors.New("start date is after end date")
	ErrUnknownIndex = errors.New("unknown index")
	ErrNoValidData  = errors.New("no valid data")
)

// ConstituentLoader returns the members of an index.
type ConstituentLoader interface {
	Load(ctx context.Context, index models.IndexInfo) ([]models.Constituent, error)
}

// Options configures a Pipeline.
type Options struct {
	PadDays     int
	Concurrency int
	Align       bool
	PriceField  models.PriceField
}

// Request describes one run.
type Request struct {
	Index    string
	Start    time.Time
	End      time.Time
	Progress datasource.ProgressFunc // optional
}

// Pipeline wires the constituent loader and price source together.
type Pipeline struct {
	loader  ConstituentLoader
	fetcher *datasource.BulkFetcher
	field   models.PriceField
	log     logrus.FieldLogger
	now     func() time.Time
}

// New creates a pipeline.
func New(loader ConstituentLoader, source datasource.PriceSource, opts Options, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.PriceField == "" {
		opts.PriceField = models.FieldAdjClose
	}
	return &Pipeline{
		loader: loader,
		fetcher: datasource.NewBulkFetcher(source, datasource.FetchOptions{
			PadDays:     opts.PadDays,
			Concurrency: opts.Concurrency,
			Align:       opts.Align,
		}, log),
		field: opts.PriceField,
		log:   log,
		now:   time.Now,
	}
}

// Run executes the batch and returns the ranked report. The request is
// validated before any constituent or price source is touched.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.Report, error) {
	index, rng, err := resolve(req.Index, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	log := p.log.WithField("index", index.ID)
	started := p.now()

	cons, err := p.loader.Load(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("load %s constituents: %w", index.Name, err)
	}
	log.WithField("constituents", len(cons)).Info("constituents loaded")

	fetched, err := p.fetcher.Fetch(ctx, index, cons, rng, req.Progress)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	rows := make([]models.TickerPerformance, 0, len(fetched.Histories))
	skipped := fetched.Skipped
	for _, h := range fetched.Histories {
		row, ok := performance.Evaluate(h.Constituent, h.Points, p.field)
		if !ok {
			skipped = append(skipped, models.SkippedTicker{Ticker: h.Constituent.YahooTicker, Reason: "no trading days in range"})
			continue
		}
		rows = append(rows, row)
	}

	log.WithFields(logrus.Fields{
		"scored":  len(rows),
		"skipped": len(skipped),
		"aligned": fetched.Aligned,
		"elapsed": p.now().Sub(started).Round(time.Millisecond),
	}).Info("run finished")

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w for %s between %s and %s", ErrNoValidData,
			index.Name, utils.FormatDate(rng.Start), utils.FormatDate(rng.End))
	}

	return &models.Report{
		Index:       index,
		Range:       rng,
		PriceField:  p.field,
		Rows:        performance.Rank(rows),
		Skipped:     skipped,
		Aligned:     fetched.Aligned,
		GeneratedAt: p.now().UTC(),
	}, nil
}

// Inspect returns the single-ticker view: trimmed series, cumulative
// performance line, total performance and mean volume.
func (p *Pipeline) Inspect(ctx context.Context, indexName, ticker string, start, end time.Time) (*models.TickerInspection, error) {
	index, rng, err := resolve(indexName, start, end)
	if err != nil {
		return nil, err
	}

	symbol, err := utils.ToYahooTicker(index.ID, utils.NormalizeTicker(ticker))
	if err != nil {
		return nil, err
	}

	points, err := p.fetcher.FetchOne(ctx, symbol, rng)
	if err != nil {
		return nil, err
	}

	perf, _ := performance.Performance(points, p.field)
	return &models.TickerInspection{
		Index:       index,
		Ticker:      symbol,
		Range:       rng,
		Points:      points,
		Cumulative:  performance.Cumulative(points, p.field),
		Performance: perf,
		MeanVolume:  performance.MeanVolume(points),
	}, nil
}

func resolve(indexName string, start, end time.Time) (models.IndexInfo, models.DateRange, error) {
	rng := models.DateRange{Start: start, End: end}
	if !rng.Valid() {
		return models.IndexInfo{}, rng, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			utils.FormatDate(start), utils.FormatDate(end))
	}
	index, ok := models.LookupIndex(indexName)
	if !ok {
		return models.IndexInfo{}, rng, fmt.Errorf("%w: %q", ErrUnknownIndex, indexName)
	}
	return index, rng, nil
}
