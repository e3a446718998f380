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

// PrintChart outputs a process behaviour chart, dispatching based on the output format configured.
func PrintChart(stdout io.Writer, result schema.ChartResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON process behaviour chart"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVChart(w, result, fmtFloat)
		}, "Wrote CSV process behaviour chart"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertChart(result.Metric, result.ProcessBehaviourChart)
		if err := writeParquet(cfg.OutputFile, rows, "Wrote Parquet process behaviour chart"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		if err := writeChartTable(stdout, result, fmtFloat, cfg.UseColors, duration); err != nil {
			return fmt.Errorf("error writing chart table output: %w", err)
		}
	}
	return nil
}

func writeCSVChart(w io.Writer, result schema.ChartResult, fmtFloat func(float64) string) error {
	header := []string{
		"metric", "status", "x_value", "y_value", "special_cause",
		"average", "upper_limit", "lower_limit", "work_item_ids",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range result.DataPoints {
			row := []string{
				string(result.Metric),
				string(result.Status),
				p.XValue,
				strconv.Itoa(p.YValue),
				string(p.SpecialCause),
				fmtFloat(result.Average),
				fmtFloat(result.UpperLimit),
				fmtFloat(result.LowerLimit),
				formatIDs(p.WorkItemIDs),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeChartTable prints the limits and then one row per classified point.
// Charts that are not ready only print their status and reason.
func writeChartTable(w io.Writer, result schema.ChartResult, fmtFloat func(float64) string, useColors bool, duration time.Duration) error {
	status := string(result.Status)
	if useColors {
		status = contract.GetStatusLabel(result.Status)
	}
	_, _ = fmt.Fprintf(w, "%s for %s %d: %s\n", result.Metric, result.Kind, result.EntityID, status)
	if result.Status != schema.BaselineReady {
		if result.StatusReason != "" {
			_, _ = fmt.Fprintf(w, "Reason: %s\n", result.StatusReason)
		}
		return nil
	}
	_, _ = fmt.Fprintf(w, "Average: %s  UNPL: %s  LNPL: %s\n",
		fmtFloat(result.Average), fmtFloat(result.UpperLimit), fmtFloat(result.LowerLimit))

	table := tablewriter.NewWriter(w)
	table.Header([]string{"X", "Value", "Signal", "Items"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(result.DataPoints))
	for _, p := range result.DataPoints {
		signal := contract.GetPlainLabel(p.SpecialCause)
		if useColors {
			signal = contract.GetColorLabel(p.SpecialCause)
		}
		data = append(data, []string{p.XValue, strconv.Itoa(p.YValue), signal, formatIDs(p.WorkItemIDs)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Chart computed in %v\n", duration)
	return nil
}
