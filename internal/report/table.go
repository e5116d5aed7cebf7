// Package report renders pipeline results for people and spreadsheets:
// console tables, CSV exports and SVG charts.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/seenimoa/indexmovers/pkg/models"
	"github.com/seenimoa/indexmovers/pkg/utils"
)

func newTable(w io.Writer, header []string, align []int) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	if align != nil {
		table.SetColumnAlignment(align)
	}
	return table
}

// WriteSummary prints the run header: index, window and counts.
func WriteSummary(w io.Writer, r *models.Report) {
	fmt.Fprintf(w, "%s  %s → %s  (%s)\n", r.Index.Name,
		utils.FormatDate(r.Range.Start), utils.FormatDate(r.Range.End), r.PriceField)
	calendar := "own trading days"
	if r.Aligned {
		calendar = r.Index.Benchmark + " trading days"
	}
	fmt.Fprintf(w, "%d tickers scored, %d skipped, calendar: %s\n\n", len(r.Rows), len(r.Skipped), calendar)
}

// WriteMovers prints ranked rows. firstRank is the rank of rows[0].
func WriteMovers(w io.Writer, title string, rows []models.TickerPerformance, firstRank int) {
	if title != "" {
		fmt.Fprintln(w, title)
	}
	table := newTable(w,
		[]string{"#", "Ticker", "Company", "Sector", "Industry", "Performance", "Mean Volume", "Days"},
		[]int{
			tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		})
	for i, r := range rows {
		table.Append([]string{
			strconv.Itoa(firstRank + i),
			r.Ticker,
			r.Name,
			r.Sector,
			r.Industry,
			utils.FormatPercent(r.Performance),
			utils.FormatVolume(r.MeanVolume),
			strconv.Itoa(r.TradingDays),
		})
	}
	table.Render()
	fmt.Fprintln(w)
}

// WriteGroups prints sector or industry averages.
func WriteGroups(w io.Writer, groups []models.GroupPerformance, by models.GroupBy) {
	label := "Sector"
	if by == models.GroupByIndustry {
		label = "Industry"
	}
	fmt.Fprintf(w, "Average performance by %s\n", by)
	table := newTable(w,
		[]string{"#", label, "Performance", "Members"},
		[]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for i, g := range groups {
		table.Append([]string{
			strconv.Itoa(i + 1),
			g.Group,
			utils.FormatPercent(g.Performance),
			strconv.Itoa(g.Members),
		})
	}
	table.Render()
	fmt.Fprintln(w)
}

// WriteSkipped prints tickers that produced no row.
func WriteSkipped(w io.Writer, skipped []models.SkippedTicker) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "Skipped (%d)\n", len(skipped))
	table := newTable(w, []string{"Ticker", "Reason"}, nil)
	for _, s := range skipped {
		table.Append([]string{s.Ticker, s.Reason})
	}
	table.Render()
	fmt.Fprintln(w)
}

// WriteInspection prints the single-ticker view with its daily series.
func WriteInspection(w io.Writer, insp *models.TickerInspection) {
	fmt.Fprintf(w, "%s (%s)  %s → %s\n", insp.Ticker, insp.Index.Name,
		utils.FormatDate(insp.Range.Start), utils.FormatDate(insp.Range.End))
	fmt.Fprintf(w, "Performance %s over %d trading days, mean volume %s\n\n",
		utils.FormatPercent(insp.Performance), len(insp.Points), utils.FormatVolume(insp.MeanVolume))

	table := newTable(w,
		[]string{"Date", "Close", "Adj Close", "Volume", "Cumulative"},
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for i, p := range insp.Points {
		cum := ""
		if i < len(insp.Cumulative) {
			cum = utils.FormatPercent(insp.Cumulative[i])
		}
		table.Append([]string{
			utils.FormatDate(p.Date),
			utils.FormatPrice(p.Close),
			utils.FormatPrice(p.AdjClose),
			utils.FormatVolume(float64(p.Volume)),
			cum,
		})
	}
	table.Render()
}

// WriteHeadlines prints articles newest first.
func WriteHeadlines(w io.Writer, articles []models.NewsArticle) {
	table := newTable(w, []string{"Published", "Source", "Title"}, nil)
	for _, a := range articles {
		published := "-"
		if !a.PublishedAt.IsZero() {
			published = a.PublishedAt.UTC().Format("2006-01-02 15:04")
		}
		table.Append([]string{published, a.Source, a.Title})
	}
	table.Render()
}
