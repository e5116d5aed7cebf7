package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/indexmovers/pkg/models"
	"github.com/seenimoa/indexmovers/pkg/utils"
)

// DefaultYahooBaseURL is the Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YFinance implements PriceSource using the Yahoo Finance chart API.
type YFinance struct {
	client  *Client
	baseURL string
	cache   *Cache
	limiter *RateLimiter
}

// YFinanceOptions configures a YFinance source.
type YFinanceOptions struct {
	BaseURL    string
	CacheTTL   time.Duration
	RatePerSec int // 0 disables throttling
}

// NewYFinance creates a new Yahoo Finance data source.
func NewYFinance(client *Client, opts YFinanceOptions) *YFinance {
	if client == nil {
		client = NewClient(0, "")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	return &YFinance{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		cache:   NewCache(opts.CacheTTL),
		limiter: NewRateLimiter(opts.RatePerSec, time.Second),
	}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// PurgeExpired drops expired price histories from the cache.
func (y *YFinance) PurgeExpired() int { return y.cache.Cleanup() }

// --- Yahoo Finance v8 API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol               string `json:"symbol"`
	Currency             string `json:"currency"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
}

type yfIndicators struct {
	Quote    []yfOHLCV    `json:"quote"`
	AdjClose []yfAdjClose `json:"adjclose"`
}

type yfOHLCV struct {
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetPriceHistory returns daily closes from the Yahoo Finance chart API.
func (y *YFinance) GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	cacheKey := fmt.Sprintf("hist:%s:%d:%d", symbol, from.Unix(), to.Unix())
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.([]models.PricePoint), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&includeAdjustedClose=true&events=div%%7Csplit",
		y.baseURL, url.PathEscape(symbol), from.Unix(), to.Unix(),
	)

	body, err := y.client.get(ctx, u, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		var httpErr *ErrHTTP
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance chart: %w", err)
	}

	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	points := parseYFPoints(resp.Chart.Result[0])

	y.cache.Set(cacheKey, points)
	return points, nil
}

// --- Helpers ---

// parseYFPoints converts a chart result into day-keyed points. Rows without a
// close are dropped; when the provider repeats a date (an intraday point for
// the current session) the later row wins.
func parseYFPoints(result yfChartResult) []models.PricePoint {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	loc := time.UTC
	if result.Meta.ExchangeTimezoneName != "" {
		loc = utils.LoadLocation(result.Meta.ExchangeTimezoneName)
	}

	q := result.Indicators.Quote[0]
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		p := models.PricePoint{
			Date:  utils.DayKey(time.Unix(ts, 0), loc),
			Close: *q.Close[i],
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			p.Volume = *q.Volume[i]
		}
		if i < len(adjCloses) && adjCloses[i] != nil {
			p.AdjClose = *adjCloses[i]
		}

		if n := len(points); n > 0 && points[n-1].Date.Equal(p.Date) {
			points[n-1] = p
			continue
		}
		points = append(points, p)
	}
	return points
}
