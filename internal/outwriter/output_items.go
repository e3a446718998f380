package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/parquet"
	"github.com/huangsam/flowpulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintWorkItems outputs work items, dispatching based on the output format configured.
func PrintWorkItems(stdout io.Writer, items []schema.WorkItem, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, items)
		}, "Wrote JSON work items"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWorkItems(w, items)
		}, "Wrote CSV work items"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquet(cfg.OutputFile, parquet.ConvertWorkItems(items), "Wrote Parquet work items"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		if err := writeWorkItemsTable(stdout, items, GetMaxTableNameWidth(cfg)); err != nil {
			return fmt.Errorf("error writing work item table output: %w", err)
		}
	}
	return nil
}

// writeCSVWorkItems writes items in the same column layout the importer reads.
func writeCSVWorkItems(w io.Writer, items []schema.WorkItem) error {
	header := []string{"reference_id", "name", "state", "created", "started", "closed", "cycle_time_days", "age_days", "size"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, item := range items {
			row := []string{
				item.ReferenceID,
				item.Name,
				string(item.State),
				item.CreatedDate.Format(contract.DateTimeFormat),
				formatTimestamp(item.StartedDate),
				formatTimestamp(item.ClosedDate),
				strconv.Itoa(item.CycleTimeDays),
				strconv.Itoa(item.AgeDays),
				strconv.Itoa(item.Size),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeWorkItemsTable(w io.Writer, items []schema.WorkItem, nameWidth int) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Ref", "Name", "State", "Created", "Started", "Closed", "Cycle", "Age", "Size"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(items))
	for _, item := range items {
		created := item.CreatedDate
		data = append(data, []string{
			item.ReferenceID,
			contract.TruncateName(item.Name, nameWidth),
			string(item.State),
			formatDate(&created),
			formatDate(item.StartedDate),
			formatDate(item.ClosedDate),
			strconv.Itoa(item.CycleTimeDays),
			strconv.Itoa(item.AgeDays),
			strconv.Itoa(item.Size),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%d work items\n", len(items))
	return nil
}

// PrintEntities outputs registered entities. Parquet is not offered for entities.
func PrintEntities(stdout io.Writer, entities []schema.Entity, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, entities)
		}, "Wrote JSON entities"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVEntities(w, entities)
		}, "Wrote CSV entities"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for entities")
	default:
		if err := writeEntitiesTable(stdout, entities); err != nil {
			return fmt.Errorf("error writing entity table output: %w", err)
		}
	}
	return nil
}

func writeCSVEntities(w io.Writer, entities []schema.Entity) error {
	header := []string{
		"kind", "id", "name", "throughput_history_days", "throughput_start", "throughput_end",
		"baseline_start", "baseline_end", "done_items_cutoff_days",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range entities {
			row := []string{
				string(e.Kind),
				strconv.Itoa(e.ID),
				e.Name,
				strconv.Itoa(e.ThroughputHistoryDays),
				formatDate(e.ThroughputStart),
				formatDate(e.ThroughputEnd),
				formatDate(e.BaselineStart),
				formatDate(e.BaselineEnd),
				strconv.Itoa(e.DoneItemsCutoffDays),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeEntitiesTable(w io.Writer, entities []schema.Entity) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Kind", "ID", "Name", "History", "Baseline", "Cutoff"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(entities))
	for _, e := range entities {
		baseline := "display window"
		if e.HasBaseline() {
			baseline = formatDate(e.BaselineStart) + ".." + formatDate(e.BaselineEnd)
		}
		cutoff := "unlimited"
		if e.DoneItemsCutoffDays > 0 {
			cutoff = fmt.Sprintf("%d days", e.DoneItemsCutoffDays)
		}
		data = append(data, []string{
			string(e.Kind),
			strconv.Itoa(e.ID),
			e.Name,
			fmt.Sprintf("%d days", e.ThroughputHistoryDays),
			baseline,
			cutoff,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
