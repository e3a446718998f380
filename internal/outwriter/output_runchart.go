package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/parquet"
	"github.com/huangsam/flowpulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintRunChart outputs a run chart, dispatching based on the output format configured.
func PrintRunChart(stdout io.Writer, result schema.RunChartResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON run chart"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVRunChart(w, result)
		}, "Wrote CSV run chart"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertRunChart(result.Metric, result.Chart)
		if err := writeParquet(cfg.OutputFile, rows, "Wrote Parquet run chart"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		if err := writeRunChartTable(stdout, result, duration); err != nil {
			return fmt.Errorf("error writing run chart table output: %w", err)
		}
	}
	return nil
}

// writeCSVRunChart writes one row per day.
func writeCSVRunChart(w io.Writer, result schema.RunChartResult) error {
	header := []string{"entity_kind", "entity_id", "metric", "date", "count", "item_ids"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range result.Points {
			row := []string{
				string(result.Kind),
				strconv.Itoa(result.EntityID),
				string(result.Metric),
				p.Date,
				strconv.Itoa(p.Count),
				formatIDs(p.ItemIDs),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRunChartTable prints the run chart as a three-column table followed by a summary.
func writeRunChartTable(w io.Writer, result schema.RunChartResult, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Count", "Items"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(result.Points))
	for _, p := range result.Points {
		data = append(data, []string{p.Date, strconv.Itoa(p.Count), formatIDs(p.ItemIDs)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s for %s %d: total %d over %d days (computed in %v)\n",
		result.Metric, result.Kind, result.EntityID, result.Total, len(result.Points), duration)
	return nil
}
