// Package parquet provides data structures and functions for exporting flow
// metrics and work items to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/flowpulse/schema"
	"github.com/parquet-go/parquet-go"
)

// WorkItem is one persisted work item.
// This struct maps to the flowpulse_work_items database table.
type WorkItem struct {
	ID            int64      `parquet:"id,snappy"`
	ReferenceID   string     `parquet:"reference_id,snappy"`
	Name          string     `parquet:"name,snappy"`
	EntityKind    string     `parquet:"entity_kind,snappy"`
	EntityID      int32      `parquet:"entity_id,snappy"`
	State         string     `parquet:"state,snappy"`
	CreatedDate   time.Time  `parquet:"created_date,snappy"`
	StartedDate   *time.Time `parquet:"started_date,optional,snappy"`
	ClosedDate    *time.Time `parquet:"closed_date,optional,snappy"`
	CycleTimeDays int32      `parquet:"cycle_time_days,snappy"`
	AgeDays       int32      `parquet:"age_days,snappy"`
	Size          int32      `parquet:"size,snappy"`
}

// RunChartDay is one day of a run chart.
type RunChartDay struct {
	Metric  string    `parquet:"metric,snappy"`
	Date    time.Time `parquet:"date,snappy"`
	Value   int32     `parquet:"value,snappy"`
	ItemIDs []int64   `parquet:"item_ids"`
}

// Percentile is one percentile of a cycle time or size distribution.
type Percentile struct {
	Metric     string  `parquet:"metric,snappy"`
	Percentile float64 `parquet:"percentile,snappy"`
	Value      int32   `parquet:"value,snappy"`
}

// ChartPoint is one classified point of a process behaviour chart, denormalized
// with the chart limits so that each row stands alone.
type ChartPoint struct {
	Metric       string  `parquet:"metric,snappy"`
	Status       string  `parquet:"status,snappy"`
	XValue       string  `parquet:"x_value,snappy"`
	YValue       int32   `parquet:"y_value,snappy"`
	SpecialCause string  `parquet:"special_cause,snappy"`
	Average      float64 `parquet:"average,snappy"`
	UpperLimit   float64 `parquet:"upper_limit,snappy"`
	LowerLimit   float64 `parquet:"lower_limit,snappy"`
	WorkItemIDs  []int64 `parquet:"work_item_ids"`
}

// Write writes rows of any supported type to w.
// The schema is derived from the struct tags of T.
func Write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new file at outputPath.
func WriteFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

// ConvertWorkItems converts schema.WorkItem values for Parquet export.
func ConvertWorkItems(items []schema.WorkItem) []WorkItem {
	result := make([]WorkItem, len(items))
	for i, item := range items {
		result[i] = WorkItem{
			ID:            int64(item.ID),
			ReferenceID:   item.ReferenceID,
			Name:          item.Name,
			EntityKind:    string(item.EntityKind),
			EntityID:      int32(item.EntityID),
			State:         string(item.State),
			CreatedDate:   item.CreatedDate,
			StartedDate:   item.StartedDate,
			ClosedDate:    item.ClosedDate,
			CycleTimeDays: int32(item.CycleTimeDays),
			AgeDays:       int32(item.AgeDays),
			Size:          int32(item.Size),
		}
	}
	return result
}

// ConvertRunChart flattens a run chart into one row per day.
func ConvertRunChart(metric schema.MetricName, chart schema.RunChart) []RunChartDay {
	result := make([]RunChartDay, len(chart.Values))
	for i, point := range chart.Points() {
		var ids []int
		if i < len(chart.ItemIDs) {
			ids = chart.ItemIDs[i]
		}
		result[i] = RunChartDay{
			Metric:  string(metric),
			Date:    point.Date,
			Value:   int32(point.Count),
			ItemIDs: toInt64s(ids),
		}
	}
	return result
}

// ConvertPercentiles converts percentile results for Parquet export.
func ConvertPercentiles(metric schema.MetricName, values []schema.PercentileValue) []Percentile {
	result := make([]Percentile, len(values))
	for i, v := range values {
		result[i] = Percentile{Metric: string(metric), Percentile: v.Percentile, Value: int32(v.Value)}
	}
	return result
}

// ConvertChart flattens a process behaviour chart into one row per point.
func ConvertChart(metric schema.MetricName, chart schema.ProcessBehaviourChart) []ChartPoint {
	result := make([]ChartPoint, len(chart.DataPoints))
	for i, p := range chart.DataPoints {
		result[i] = ChartPoint{
			Metric:       string(metric),
			Status:       string(chart.Status),
			XValue:       p.XValue,
			YValue:       int32(p.YValue),
			SpecialCause: string(p.SpecialCause),
			Average:      chart.Average,
			UpperLimit:   chart.UpperLimit,
			LowerLimit:   chart.LowerLimit,
			WorkItemIDs:  toInt64s(p.WorkItemIDs),
		}
	}
	return result
}
