package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/indexmovers/internal/config"
	"github.com/seenimoa/indexmovers/internal/datasource"
	"github.com/seenimoa/indexmovers/internal/pipeline"
	"github.com/seenimoa/indexmovers/pkg/models"
	"github.com/seenimoa/indexmovers/pkg/utils"
)

// app holds the wired data sources for one command invocation.
type app struct {
	pipeline *pipeline.Pipeline
	news     *datasource.News
	caches   []datasource.Purger
	sweep    time.Duration
	log      logrus.FieldLogger
}

// newApp wires config into the HTTP client, the data sources and the pipeline.
func newApp(cfg *config.Config, log logrus.FieldLogger) *app {
	client := datasource.NewClient(time.Duration(cfg.Data.TimeoutSec)*time.Second, cfg.Data.UserAgent)
	ttl := time.Duration(cfg.Analysis.CacheTTL) * time.Second

	prices := datasource.NewYFinance(client, datasource.YFinanceOptions{
		BaseURL:    cfg.Data.YahooBaseURL,
		CacheTTL:   ttl,
		RatePerSec: cfg.Analysis.RateLimit,
	})
	constituents := datasource.NewConstituents(client, datasource.ConstituentOptions{
		SP500URL:   cfg.Data.SP500URL,
		SP500File:  cfg.Data.SP500File,
		CSI300File: cfg.Data.CSI300File,
		CacheTTL:   ttl,
	})
	news := datasource.NewNews(client, map[models.Index][]string{
		models.IndexSP500:  cfg.News.SP500,
		models.IndexCSI300: cfg.News.CSI300,
	})

	return &app{
		pipeline: pipeline.New(constituents, prices, pipeline.Options{
			PadDays:     cfg.Data.PadDays,
			Concurrency: cfg.Analysis.ConcurrentFetches,
			Align:       cfg.Data.AlignToCalendar,
			PriceField:  models.PriceField(cfg.Analysis.PriceField),
		}, log),
		news:   news,
		caches: []datasource.Purger{prices, constituents, news},
		sweep:  ttl,
		log:    log,
	}
}

// sweepCaches purges expired cache entries until ctx is done.
func (a *app) sweepCaches(ctx context.Context) {
	datasource.SweepCaches(ctx, a.sweep, a.log, a.caches...)
}

// addRangeFlags registers --index, --start and --end.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("index", "i", "sp500", "index to analyse (sp500, csi300)")
	cmd.Flags().String("start", "", "first day of the window, YYYY-MM-DD (default: 1 January)")
	cmd.Flags().String("end", "", "end of the window, excluded, YYYY-MM-DD (default: today)")
}

// dateRange reads --start and --end, defaulting to year to date.
func dateRange(cmd *cobra.Command, now time.Time) (time.Time, time.Time, error) {
	start, end := utils.YearToDate(now)
	if s, _ := cmd.Flags().GetString("start"); s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
		start = t
	}
	if s, _ := cmd.Flags().GetString("end"); s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
		end = t
	}
	return start, end, nil
}

// applyConstituentsOverride points the selected index at a local
// constituent file given with --constituents.
func applyConstituentsOverride(cmd *cobra.Command, cfg *config.Config, indexName string) error {
	path, _ := cmd.Flags().GetString("constituents")
	if path == "" {
		return nil
	}
	index, ok := models.LookupIndex(indexName)
	if !ok {
		return fmt.Errorf("%w: %q", pipeline.ErrUnknownIndex, indexName)
	}
	switch index.ID {
	case models.IndexSP500:
		cfg.Data.SP500File = path
	case models.IndexCSI300:
		cfg.Data.CSI300File = path
	}
	return nil
}

// progressLogger logs fetch progress every step tickers.
func progressLogger(log logrus.FieldLogger, step int) datasource.ProgressFunc {
	return func(ev datasource.FetchEvent) {
		entry := log.WithField("ticker", ev.Ticker)
		if ev.Err != nil {
			entry.WithError(ev.Err).Debug("ticker skipped")
		}
		if ev.Done == ev.Total || ev.Done%step == 0 {
			log.WithFields(logrus.Fields{"done": ev.Done, "total": ev.Total}).Info("fetching prices")
		}
	}
}
