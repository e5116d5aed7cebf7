package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/indexmovers/api"
	"github.com/seenimoa/indexmovers/internal/analysis/performance"
	"github.com/seenimoa/indexmovers/internal/pipeline"
	"github.com/seenimoa/indexmovers/internal/report"
	"github.com/seenimoa/indexmovers/pkg/models"
)

// runReport executes one pipeline run for the command's flags. Ctrl-C
// cancels outstanding downloads.
func runReport(cmd *cobra.Command) (*models.Report, error) {
	indexName, _ := cmd.Flags().GetString("index")
	if err := applyConstituentsOverride(cmd, cfg, indexName); err != nil {
		return nil, err
	}
	start, end, err := dateRange(cmd, time.Now())
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newApp(cfg, log).pipeline.Run(ctx, pipeline.Request{
		Index:    indexName,
		Start:    start,
		End:      end,
		Progress: progressLogger(log, 50),
	})
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.WithField("path", path).Info("file written")
	return nil
}

// --- Movers Command ---

var moversCmd = &cobra.Command{
	Use:   "movers",
	Short: "Show the top and bottom performing constituents",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := runReport(cmd)
		if err != nil {
			return err
		}
		top, _ := cmd.Flags().GetInt("top")
		if top <= 0 {
			top = cfg.Analysis.TopN
		}

		out := cmd.OutOrStdout()
		report.WriteSummary(out, rep)
		n := len(rep.Rows)
		bottom := performance.Bottom(rep.Rows, top)
		report.WriteMovers(out, fmt.Sprintf("Top %d", top), performance.Top(rep.Rows, top), 1)
		report.WriteMovers(out, fmt.Sprintf("Bottom %d", top), bottom, n-len(bottom)+1)
		if verbose, _ := cmd.Flags().GetBool("skipped"); verbose {
			report.WriteSkipped(out, rep.Skipped)
		}

		if path, _ := cmd.Flags().GetString("svg"); path != "" {
			rows := make([]models.TickerPerformance, 0, 2*top)
			rows = append(rows, performance.Top(rep.Rows, top)...)
			rows = append(rows, bottom...)
			chart := report.MoversChart(rows,
				fmt.Sprintf("%s top and bottom %d", rep.Index.Name, top), report.ChartConfig{})
			return writeFile(path, chart)
		}
		return nil
	},
}

func init() {
	addRangeFlags(moversCmd)
	moversCmd.Flags().IntP("top", "n", 0, "number of top and bottom movers (default: analysis.top_n)")
	moversCmd.Flags().String("constituents", "", "local constituent file (.csv or .xlsx) for the index")
	moversCmd.Flags().Bool("skipped", false, "list tickers that produced no data")
	moversCmd.Flags().String("svg", "", "also write a movers bar chart to this SVG file")
}

// --- Groups Command ---

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show average performance by sector and industry",
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		var keys []models.GroupBy
		if by == "" || by == "both" {
			keys = []models.GroupBy{models.GroupBySector, models.GroupByIndustry}
		} else {
			key, err := performance.ParseGroupBy(by)
			if err != nil {
				return err
			}
			keys = []models.GroupBy{key}
		}

		rep, err := runReport(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report.WriteSummary(out, rep)
		for _, key := range keys {
			report.WriteGroups(out, performance.GroupBy(rep.Rows, key), key)
		}

		if path, _ := cmd.Flags().GetString("svg"); path != "" {
			return writeFile(path, report.GroupChart(performance.GroupBy(rep.Rows, keys[0]), keys[0], report.ChartConfig{}))
		}
		return nil
	},
}

func init() {
	addRangeFlags(groupsCmd)
	groupsCmd.Flags().String("by", "both", "grouping: sector, industry or both")
	groupsCmd.Flags().String("constituents", "", "local constituent file (.csv or .xlsx) for the index")
	groupsCmd.Flags().String("svg", "", "also write a bar chart of the first grouping to this SVG file")
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the full ranked table as CSV or an HTML report",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "csv" && format != "html" {
			return fmt.Errorf("unknown format %q (want csv or html)", format)
		}
		rep, err := runReport(cmd)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			path = report.CSVFilename(rep)
			if format == "html" {
				path = report.HTMLFilename(rep)
			}
		}
		var w io.Writer = cmd.OutOrStdout()
		if path != "-" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if format == "html" {
			rcfg := report.DefaultReportConfig()
			if top, _ := cmd.Flags().GetInt("top"); top > 0 {
				rcfg.TopN = top
			} else if cfg.Analysis.TopN > 0 {
				rcfg.TopN = cfg.Analysis.TopN
			}
			html, err := report.GenerateHTML(rep, rcfg)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, html); err != nil {
				return err
			}
		} else if err := report.WriteCSV(w, rep.Rows); err != nil {
			return err
		}

		if path != "-" {
			log.WithFields(logrus.Fields{"path": path, "format": format, "rows": len(rep.Rows)}).Info("export written")
		}
		return nil
	},
}

func init() {
	addRangeFlags(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", `output path, "-" for stdout (default: <index>_performance_<start>_<end>.<format>)`)
	exportCmd.Flags().String("format", "csv", "csv or html")
	exportCmd.Flags().IntP("top", "n", 0, "movers per table in the HTML report (default: analysis.top_n)")
	exportCmd.Flags().String("constituents", "", "local constituent file (.csv or .xlsx) for the index")
}

// --- Inspect Command ---

var inspectCmd = &cobra.Command{
	Use:   "inspect [ticker]",
	Short: "Show the daily series and cumulative performance of one ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexName, _ := cmd.Flags().GetString("index")
		start, end, err := dateRange(cmd, time.Now())
		if err != nil {
			return err
		}

		insp, err := newApp(cfg, log).pipeline.Inspect(cmd.Context(), indexName, args[0], start, end)
		if err != nil {
			return err
		}
		report.WriteInspection(cmd.OutOrStdout(), insp)

		if path, _ := cmd.Flags().GetString("svg"); path != "" {
			return writeFile(path, report.CumulativeChart(insp, report.ChartConfig{}))
		}
		return nil
	},
}

func init() {
	addRangeFlags(inspectCmd)
	inspectCmd.Flags().String("svg", "", "also write the cumulative performance chart to this SVG file")
}

// --- Headlines Command ---

var headlinesCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Show recent market headlines for an index",
	RunE: func(cmd *cobra.Command, args []string) error {
		indexName, _ := cmd.Flags().GetString("index")
		index, ok := models.LookupIndex(indexName)
		if !ok {
			return fmt.Errorf("%w: %q", pipeline.ErrUnknownIndex, indexName)
		}
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.News.Limit
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		articles, err := newApp(cfg, log).news.Headlines(ctx, index.ID, limit)
		if err != nil {
			return err
		}
		report.WriteHeadlines(cmd.OutOrStdout(), articles)
		return nil
	},
}

func init() {
	headlinesCmd.Flags().StringP("index", "i", "sp500", "index (sp500, csi300)")
	headlinesCmd.Flags().IntP("limit", "n", 0, "maximum number of articles (default: news.limit)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cfg, log)
		srv := api.NewServer(cfg, a.pipeline, a.news, log)
		srv.Background(a.sweepCaches)

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
		}
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: api.host:api.port)")
}
