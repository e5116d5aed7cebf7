package report

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/seenimoa/indexmovers/pkg/models"
)

// WriteCSV writes the full ranked table, one row per ticker, with the
// column headers given by the csv tags of models.TickerPerformance.
func WriteCSV(w io.Writer, rows []models.TickerPerformance) error {
	if rows == nil {
		rows = []models.TickerPerformance{}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// CSVFilename is the suggested download name for a report export.
func CSVFilename(r *models.Report) string {
	return fmt.Sprintf("%s_performance_%s_%s.csv", r.Index.ID,
		r.Range.Start.Format("20060102"), r.Range.End.Format("20060102"))
}
