package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/indexmovers/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleRows() []models.TickerPerformance {
	return []models.TickerPerformance{
		{Name: "Apple Inc.", Ticker: "AAPL", YahooTicker: "AAPL", Sector: "Information Technology", Industry: "Technology Hardware", Performance: 12.3456, MeanVolume: 55123456, TradingDays: 20},
		{Name: "Berkshire Hathaway", Ticker: "BRK.B", YahooTicker: "BRK-B", Sector: "Financials", Industry: "Multi-Sector Holdings", Performance: 1.5, MeanVolume: 3400000, TradingDays: 20},
		{Name: "Exxon Mobil", Ticker: "XOM", YahooTicker: "XOM", Sector: "Energy", Industry: "Integrated Oil & Gas", Performance: -4.2, MeanVolume: 0, TradingDays: 19},
	}
}

func sampleReport() *models.Report {
	sp500, _ := models.LookupIndex("sp500")
	return &models.Report{
		Index:      sp500,
		Range:      models.DateRange{Start: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
		PriceField: models.FieldAdjClose,
		Rows:       sampleRows(),
		Skipped:    []models.SkippedTicker{{Ticker: "ZZZ", Reason: "ticker not found: ZZZ"}},
		Aligned:    true,
	}
}

func sampleInspection() *models.TickerInspection {
	csi, _ := models.LookupIndex("csi300")
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return &models.TickerInspection{
		Index:  csi,
		Ticker: "600519.SS",
		Range:  models.DateRange{Start: start, End: start.AddDate(0, 0, 2)},
		Points: []models.PricePoint{
			{Date: start, Close: 1700, AdjClose: 1690.5, Volume: 2500000},
			{Date: start.AddDate(0, 0, 1), Close: 1717, AdjClose: 1707.4, Volume: 3100000},
			{Date: start.AddDate(0, 0, 2), Close: 1682.66, AdjClose: 1673.2, Volume: 2800000},
		},
		Cumulative:  []float64{0, 1, -1},
		Performance: -1,
		MeanVolume:  2800000,
	}
}

// ════════════════════════════════════════════════════════════════════
// Tables
// ════════════════════════════════════════════════════════════════════

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleReport())
	out := buf.String()
	for _, want := range []string{"S&P 500", "2024-01-02", "2024-01-31", "adj_close", "3 tickers scored, 1 skipped", "^GSPC trading days"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestWriteMovers(t *testing.T) {
	var buf bytes.Buffer
	WriteMovers(&buf, "Top movers", sampleRows()[:2], 1)
	out := buf.String()

	for _, want := range []string{"Top movers", "AAPL", "Apple Inc.", "+12.35%", "55,123,456", "BRK.B", "+1.50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("movers table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "XOM") {
		t.Error("movers table should only contain the given rows")
	}
}

func TestWriteMoversRanks(t *testing.T) {
	var buf bytes.Buffer
	WriteMovers(&buf, "", sampleRows()[2:], 498)
	if !strings.Contains(buf.String(), "498") {
		t.Errorf("expected rank 498 in bottom table:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "-4.20%") {
		t.Errorf("expected negative performance:\n%s", buf.String())
	}
}

func TestWriteGroups(t *testing.T) {
	var buf bytes.Buffer
	WriteGroups(&buf, []models.GroupPerformance{
		{Group: "Energy", Performance: 3.25, Members: 22},
		{Group: "Utilities", Performance: -0.5, Members: 31},
	}, models.GroupByIndustry)
	out := buf.String()
	for _, want := range []string{"by industry", "Industry", "Energy", "+3.25%", "22", "-0.50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("groups table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSkipped(t *testing.T) {
	var buf bytes.Buffer
	WriteSkipped(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for no skipped tickers, got %q", buf.String())
	}

	WriteSkipped(&buf, sampleReport().Skipped)
	if !strings.Contains(buf.String(), "ticker not found: ZZZ") {
		t.Errorf("skipped table missing reason:\n%s", buf.String())
	}
}

func TestWriteInspection(t *testing.T) {
	var buf bytes.Buffer
	WriteInspection(&buf, sampleInspection())
	out := buf.String()
	for _, want := range []string{"600519.SS", "CSI 300", "-1.00%", "3 trading days", "2024-01-03", "1,717.00", "3,100,000", "+1.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspection missing %q:\n%s", want, out)
		}
	}
}

func TestWriteHeadlines(t *testing.T) {
	var buf bytes.Buffer
	WriteHeadlines(&buf, []models.NewsArticle{
		{Title: "Stocks rally", Source: "Markets Wire", PublishedAt: time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)},
		{Title: "Undated item", Source: "Wire"},
	})
	out := buf.String()
	for _, want := range []string{"2024-01-02 15:00", "Markets Wire", "Stocks rally", "Undated item"} {
		if !strings.Contains(out, want) {
			t.Errorf("headlines missing %q:\n%s", want, out)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// CSV
// ════════════════════════════════════════════════════════════════════

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	wantHeader := []string{"Company Name", "Ticker", "Yahoo Ticker", "Sector", "Industry", "Performance", "Mean Volume", "Trading Days"}
	for i, h := range wantHeader {
		if records[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}
	if records[2][1] != "BRK.B" || records[2][2] != "BRK-B" {
		t.Errorf("row order or tickers wrong: %v", records[2])
	}
	if records[3][4] != "Integrated Oil & Gas" {
		t.Errorf("industry = %q", records[3][4])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV(nil) error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Company Name,Ticker") {
		t.Errorf("expected header only, got %q", buf.String())
	}
}

func TestCSVFilename(t *testing.T) {
	if got := CSVFilename(sampleReport()); got != "sp500_performance_20240102_20240131.csv" {
		t.Errorf("CSVFilename() = %q", got)
	}
}

// ════════════════════════════════════════════════════════════════════
// SVG Charts
// ════════════════════════════════════════════════════════════════════

func TestCumulativeChart(t *testing.T) {
	svg := CumulativeChart(sampleInspection(), ChartConfig{})
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an SVG document: %.80s", svg)
	}
	for _, want := range []string{"600519.SS cumulative performance", "<path", "02 Jan"} {
		if !strings.Contains(svg, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}

func TestCumulativeChartEmpty(t *testing.T) {
	svg := CumulativeChart(nil, ChartConfig{})
	if !strings.Contains(svg, "No data") {
		t.Errorf("expected placeholder SVG, got %.80s", svg)
	}
}

func TestLineChartSinglePoint(t *testing.T) {
	svg := LineChart([]LineChartSeries{{Name: "one", Values: []float64{0}}}, []string{"02 Jan"}, ChartConfig{})
	if !strings.Contains(svg, "<circle") {
		t.Error("a single value should render as a dot")
	}
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("chart contains invalid coordinates")
	}
}

func TestGroupChart(t *testing.T) {
	svg := GroupChart([]models.GroupPerformance{
		{Group: "Energy & Utilities", Performance: 5},
		{Group: "Tech", Performance: -2},
	}, models.GroupBySector, ChartConfig{})
	for _, want := range []string{"Performance by sector", "Energy &amp; Utilities", "#4caf50", "#ef5350", "+5.00%"} {
		if !strings.Contains(svg, want) {
			t.Errorf("group chart missing %q", want)
		}
	}
}

func TestHorizontalBarChartAllZero(t *testing.T) {
	svg := HorizontalBarChart([]BarItem{{Label: "flat", Value: 0}}, ChartConfig{})
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Errorf("all-zero bars must not divide by zero:\n%s", svg)
	}
}

func TestMoversChart(t *testing.T) {
	svg := MoversChart(sampleRows(), "Top movers", ChartConfig{})
	for _, want := range []string{"Top movers", "AAPL", "BRK.B", "XOM"} {
		if !strings.Contains(svg, want) {
			t.Errorf("movers chart missing %q", want)
		}
	}
}

func TestEscapeXML(t *testing.T) {
	if got := escapeXML(`<a & "b">`); got != "&lt;a &amp; &quot;b&quot;&gt;" {
		t.Errorf("escapeXML() = %q", got)
	}
}

// ════════════════════════════════════════════════════════════════════
// HTML Report
// ════════════════════════════════════════════════════════════════════

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(sampleReport(), ReportConfig{TopN: 2})
	if err != nil {
		t.Fatalf("GenerateHTML() error: %v", err)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		"S&amp;P 500 constituent performance",
		"2024-01-02 → 2024-01-31",
		"^GSPC trading days",
		"AAPL &#43;12.35%", // html/template escapes '+'
		"XOM -4.20%",
		"Integrated Oil &amp; Gas",
		"ticker not found: ZZZ",
		"<svg",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
	if strings.Contains(html, "&lt;svg") {
		t.Error("charts must be embedded, not escaped")
	}
}

func TestGenerateHTMLNil(t *testing.T) {
	if _, err := GenerateHTML(nil, DefaultReportConfig()); err == nil {
		t.Error("expected error for nil report")
	}
}

func TestBuildReportDataRanks(t *testing.T) {
	d := buildReportData(sampleReport(), ReportConfig{TopN: 1})
	if len(d.Top) != 1 || d.Top[0].Rank != 1 || d.Top[0].Ticker != "AAPL" {
		t.Errorf("top = %+v", d.Top)
	}
	if len(d.Bottom) != 1 || d.Bottom[0].Rank != 3 || d.Bottom[0].Class != "negative" {
		t.Errorf("bottom = %+v", d.Bottom)
	}
	if d.Median != "+1.50%" {
		t.Errorf("median = %q", d.Median)
	}
}

func TestHTMLFilename(t *testing.T) {
	if got := HTMLFilename(sampleReport()); got != "sp500_performance_20240102_20240131.html" {
		t.Errorf("HTMLFilename() = %q", got)
	}
}
