package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/seenimoa/indexmovers/internal/analysis/performance"
	"github.com/seenimoa/indexmovers/pkg/models"
	"github.com/seenimoa/indexmovers/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator: chart + template rendering
// ════════════════════════════════════════════════════════════════════

// ReportConfig controls HTML report generation.
type ReportConfig struct {
	Title    string      // custom report title (optional)
	TopN     int         // movers per table (default: 10)
	ChartCfg ChartConfig // chart rendering config
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		TopN:     10,
		ChartCfg: DefaultChartConfig(),
	}
}

// ════════════════════════════════════════════════════════════════════
// Report Data: flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model passed to the HTML template.
type ReportData struct {
	Title       string
	IndexName   string
	Benchmark   string
	Currency    string
	Start       string
	End         string
	PriceField  string
	Calendar    string
	GeneratedAt string

	Scored  int
	Skipped int
	Best    string
	Worst   string
	Median  string

	Top        []MoverRow
	Bottom     []MoverRow
	Sectors    []GroupRow
	Industries []GroupRow
	SkipRows   []models.SkippedTicker

	MoversChart template.HTML
	SectorChart template.HTML
}

// MoverRow is one formatted line of a movers table.
type MoverRow struct {
	Rank        int
	Ticker      string
	Name        string
	Sector      string
	Industry    string
	Performance string
	Class       string // positive or negative
	MeanVolume  string
}

// GroupRow is one formatted line of a group table.
type GroupRow struct {
	Group       string
	Performance string
	Class       string
	Members     int
}

// GenerateHTML renders a standalone HTML report for a run.
func GenerateHTML(rep *models.Report, cfg ReportConfig) (string, error) {
	if rep == nil {
		return "", fmt.Errorf("report is nil")
	}

	data := buildReportData(rep, cfg)

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// HTMLFilename returns the default report file name, e.g.
// "csi300_performance_20240102_20240131.html".
func HTMLFilename(r *models.Report) string {
	return fmt.Sprintf("%s_performance_%s_%s.html", r.Index.ID,
		r.Range.Start.Format("20060102"), r.Range.End.Format("20060102"))
}

func buildReportData(rep *models.Report, cfg ReportConfig) ReportData {
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	title := cfg.Title
	if title == "" {
		title = rep.Index.Name + " constituent performance"
	}
	calendar := "each ticker's own trading days"
	if rep.Aligned {
		calendar = rep.Index.Benchmark + " trading days"
	}
	generated := rep.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	top := performance.Top(rep.Rows, cfg.TopN)
	bottom := performance.Bottom(rep.Rows, cfg.TopN)
	sectors := performance.GroupBy(rep.Rows, models.GroupBySector)

	d := ReportData{
		Title:       title,
		IndexName:   rep.Index.Name,
		Benchmark:   rep.Index.Benchmark,
		Currency:    rep.Index.Currency,
		Start:       utils.FormatDate(rep.Range.Start),
		End:         utils.FormatDate(rep.Range.End),
		PriceField:  string(rep.PriceField),
		Calendar:    calendar,
		GeneratedAt: generated.UTC().Format("02 Jan 2006, 15:04 UTC"),
		Scored:      len(rep.Rows),
		Skipped:     len(rep.Skipped),
		Top:         moverRows(top, 1),
		Bottom:      moverRows(bottom, len(rep.Rows)-len(bottom)+1),
		Sectors:     groupRows(sectors),
		Industries:  groupRows(performance.GroupBy(rep.Rows, models.GroupByIndustry)),
		SkipRows:    rep.Skipped,
	}
	if n := len(rep.Rows); n > 0 {
		d.Best = rep.Rows[0].Ticker + " " + utils.FormatPercent(rep.Rows[0].Performance)
		d.Worst = rep.Rows[n-1].Ticker + " " + utils.FormatPercent(rep.Rows[n-1].Performance)
		d.Median = utils.FormatPercent(performance.MedianPerformance(rep.Rows))
	}

	// Charts are generated by this package and already escaped.
	chartRows := make([]models.TickerPerformance, 0, len(top)+len(bottom))
	chartRows = append(chartRows, top...)
	chartRows = append(chartRows, bottom...)
	d.MoversChart = template.HTML(MoversChart(chartRows, "Top and bottom "+strconv.Itoa(cfg.TopN), cfg.ChartCfg))
	d.SectorChart = template.HTML(GroupChart(sectors, models.GroupBySector, cfg.ChartCfg))
	return d
}

func moverRows(rows []models.TickerPerformance, firstRank int) []MoverRow {
	out := make([]MoverRow, len(rows))
	for i, r := range rows {
		out[i] = MoverRow{
			Rank:        firstRank + i,
			Ticker:      r.Ticker,
			Name:        r.Name,
			Sector:      r.Sector,
			Industry:    r.Industry,
			Performance: utils.FormatPercent(r.Performance),
			Class:       signClass(r.Performance),
			MeanVolume:  utils.FormatVolume(r.MeanVolume),
		}
	}
	return out
}

func groupRows(groups []models.GroupPerformance) []GroupRow {
	out := make([]GroupRow, len(groups))
	for i, g := range groups {
		out[i] = GroupRow{
			Group:       g.Group,
			Performance: utils.FormatPercent(g.Performance),
			Class:       signClass(g.Performance),
			Members:     g.Members,
		}
	}
	return out
}

func signClass(v float64) string {
	if v < 0 {
		return "negative"
	}
	return "positive"
}
