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

// PrintPercentiles outputs a percentile list, dispatching based on the output format configured.
func PrintPercentiles(stdout io.Writer, result schema.PercentileResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON percentiles"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVPercentiles(w, result)
		}, "Wrote CSV percentiles"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertPercentiles(result.Metric, result.Values)
		if err := writeParquet(cfg.OutputFile, rows, "Wrote Parquet percentiles"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		if err := writePercentilesTable(stdout, result, duration); err != nil {
			return fmt.Errorf("error writing percentiles table output: %w", err)
		}
	}
	return nil
}

// percentileUnit names what the value of a percentile metric counts.
func percentileUnit(metric schema.MetricName) string {
	if metric == schema.SizeMetric {
		return "items"
	}
	return "days"
}

func formatRank(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func writeCSVPercentiles(w io.Writer, result schema.PercentileResult) error {
	header := []string{"entity_kind", "entity_id", "metric", "percentile", "value", "unit"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		unit := percentileUnit(result.Metric)
		for _, v := range result.Values {
			row := []string{
				string(result.Kind),
				strconv.Itoa(result.EntityID),
				string(result.Metric),
				formatRank(v.Percentile),
				strconv.Itoa(v.Value),
				unit,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writePercentilesTable(w io.Writer, result schema.PercentileResult, duration time.Duration) error {
	if len(result.Values) == 0 {
		_, _ = fmt.Fprintf(w, "No closed items for %s %d between %s and %s\n", result.Kind, result.EntityID,
			result.Start.Format(contract.DateFormat), result.End.Format(contract.DateFormat))
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Percentile", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	unit := percentileUnit(result.Metric)
	data := make([][]string, 0, len(result.Values))
	for _, v := range result.Values {
		data = append(data, []string{"P" + formatRank(v.Percentile), fmt.Sprintf("%d %s", v.Value, unit)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s for %s %d computed in %v\n", result.Metric, result.Kind, result.EntityID, duration)
	return nil
}
