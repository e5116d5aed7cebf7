package datasource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/indexmovers/pkg/models"
	"github.com/seenimoa/indexmovers/pkg/utils"
)

// DefaultSP500URL is the Wikipedia page listing the S&P 500 constituents.
const DefaultSP500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// ErrNoConstituentSource is returned when an index has neither a scrape
// source nor a configured file.
var ErrNoConstituentSource = errors.New("no constituent source configured")

// RawConstituent is one row of a constituent table before normalization.
// The csv tags are the column headers of local constituent files.
type RawConstituent struct {
	Ticker   string `csv:"Ticker"`
	Name     string `csv:"Company Name"`
	Sector   string `csv:"Sector"`
	Industry string `csv:"Industry"`
}

// Column headers for each source, in RawConstituent field order.
var (
	fileColumns      = []string{"Ticker", "Company Name", "Sector", "Industry"}
	wikipediaColumns = []string{"Symbol", "Security", "GICS Sector", "GICS Sub-Industry"}
)

// Constituents loads index membership tables.
type Constituents struct {
	client   *Client
	cache    *Cache
	sp500URL string
	files    map[models.Index]string
}

// ConstituentOptions configures a Constituents loader.
type ConstituentOptions struct {
	SP500URL   string
	SP500File  string // overrides the Wikipedia scrape when set
	CSI300File string // .xlsx or .csv
	CacheTTL   time.Duration
}

// NewConstituents creates a constituent loader.
func NewConstituents(client *Client, opts ConstituentOptions) *Constituents {
	if client == nil {
		client = NewClient(0, "")
	}
	if opts.SP500URL == "" {
		opts.SP500URL = DefaultSP500URL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	files := make(map[models.Index]string)
	if opts.SP500File != "" {
		files[models.IndexSP500] = opts.SP500File
	}
	if opts.CSI300File != "" {
		files[models.IndexCSI300] = opts.CSI300File
	}
	return &Constituents{
		client:   client,
		cache:    NewCache(opts.CacheTTL),
		sp500URL: opts.SP500URL,
		files:    files,
	}
}

// Name returns the data source name.
func (c *Constituents) Name() string { return "Constituents" }

// PurgeExpired drops expired constituent tables from the cache.
func (c *Constituents) PurgeExpired() int { return c.cache.Cleanup() }

// Load returns the normalized constituents of the index. A configured file
// takes precedence; otherwise the S&P 500 is scraped from Wikipedia.
func (c *Constituents) Load(ctx context.Context, index models.IndexInfo) ([]models.Constituent, error) {
	cacheKey := "constituents:" + string(index.ID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]models.Constituent), nil
	}

	var (
		raws []RawConstituent
		err  error
	)
	switch path, ok := c.files[index.ID]; {
	case ok:
		raws, err = ReadConstituentFile(path)
	case index.ID == models.IndexSP500:
		raws, err = c.scrapeSP500(ctx)
	default:
		err = fmt.Errorf("%w for %s", ErrNoConstituentSource, index.Name)
	}
	if err != nil {
		return nil, err
	}

	out := NormalizeConstituents(index.ID, raws)
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable constituents for %s", index.Name)
	}

	c.cache.Set(cacheKey, out)
	return out, nil
}

// NormalizeConstituents maps listed tickers to provider symbols, drops rows
// that fail normalization or miss a required field, and dedupes by provider
// symbol keeping the first occurrence.
func NormalizeConstituents(index models.Index, raws []RawConstituent) []models.Constituent {
	seen := make(map[string]bool, len(raws))
	out := make([]models.Constituent, 0, len(raws))
	for _, r := range raws {
		ticker := strings.TrimSpace(r.Ticker)
		name := strings.TrimSpace(r.Name)
		sector := strings.TrimSpace(r.Sector)
		industry := strings.TrimSpace(r.Industry)
		if ticker == "" || name == "" || sector == "" || industry == "" {
			continue
		}

		yf, err := utils.ToYahooTicker(index, ticker)
		if err != nil {
			continue
		}
		if seen[yf] {
			continue
		}
		seen[yf] = true

		if index == models.IndexCSI300 {
			// Keep the listed code in its canonical six-digit form.
			ticker = utils.FromYahooTicker(yf)
		}

		out = append(out, models.Constituent{
			Ticker:      ticker,
			YahooTicker: yf,
			Name:        name,
			Sector:      sector,
			Industry:    industry,
		})
	}
	return out
}

// --- S&P 500 (Wikipedia) ---

func (c *Constituents) scrapeSP500(ctx context.Context) ([]RawConstituent, error) {
	body, err := c.client.get(ctx, c.sp500URL, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, fmt.Errorf("wikipedia S&P 500: %w", err)
	}
	defer body.Close()

	return ParseWikipediaTable(body)
}

// ParseWikipediaTable extracts constituents from the first table of the
// Wikipedia S&P 500 list. Columns are located by header text.
func ParseWikipediaTable(r io.Reader) ([]RawConstituent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse wikipedia HTML: %w", err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		table = doc.Find("table.wikitable").First()
	}
	if table.Length() == 0 {
		return nil, errors.New("constituent table not found")
	}

	var headers []string
	table.Find("tr").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})
	idx, err := columnIndexes(headers, wikipediaColumns)
	if err != nil {
		return nil, err
	}

	var rows []RawConstituent
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) == 0 {
			return // header row
		}
		rows = append(rows, rawFromCells(cells, idx))
	})

	return rows, nil
}

// --- Local files ---

// ReadConstituentFile reads a constituent table from an .xlsx or .csv file
// with the columns Ticker, Company Name, Sector, Industry.
func ReadConstituentFile(path string) ([]RawConstituent, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open constituent file: %w", err)
		}
		defer f.Close()
		return ReadConstituentCSV(f)
	default:
		return nil, fmt.Errorf("unsupported constituent file %q (want .xlsx or .csv)", path)
	}
}

// ReadConstituentCSV decodes a constituent CSV table.
func ReadConstituentCSV(r io.Reader) ([]RawConstituent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read constituent csv: %w", err)
	}
	// Spreadsheet exports often carry a UTF-8 BOM in front of the first header.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var rows []RawConstituent
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("decode constituent csv: %w", err)
	}
	return rows, nil
}

func readXLSX(path string) ([]RawConstituent, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open constituent workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rawFromGrid(grid)
}

// rawFromGrid maps a header row plus data rows onto RawConstituent.
func rawFromGrid(grid [][]string) ([]RawConstituent, error) {
	if len(grid) == 0 {
		return nil, errors.New("constituent sheet is empty")
	}
	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
	}
	idx, err := columnIndexes(headers, fileColumns)
	if err != nil {
		return nil, err
	}

	rows := make([]RawConstituent, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		rows = append(rows, rawFromCells(cells, idx))
	}
	return rows, nil
}

// columnIndexes returns the position of each wanted header.
func columnIndexes(headers, want []string) ([]int, error) {
	idx := make([]int, len(want))
	for i, w := range want {
		idx[i] = -1
		for j, h := range headers {
			if strings.EqualFold(h, w) {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("missing column %q (have %v)", w, headers)
		}
	}
	return idx, nil
}

func rawFromCells(cells []string, idx []int) RawConstituent {
	cell := func(i int) string {
		if idx[i] < len(cells) {
			return strings.TrimSpace(cells[idx[i]])
		}
		return ""
	}
	return RawConstituent{
		Ticker:   cell(0),
		Name:     cell(1),
		Sector:   cell(2),
		Industry: cell(3),
	}
}
