package schema

import "time"

// QueryWindow identifies the entity and date range a result was computed for.
type QueryWindow struct {
	Kind     EntityKind `json:"entity_kind"`
	EntityID int        `json:"entity_id"`
	Metric   MetricName `json:"metric"`
	Start    time.Time  `json:"start"`
	End      time.Time  `json:"end"`
}

// RunChartResult is a run chart together with the query that produced it.
type RunChartResult struct {
	QueryWindow
	Total  int        `json:"total"`
	Points []DayPoint `json:"points"`
	Chart  RunChart   `json:"-"`
}

// DayPoint is one day of a run chart with the items that contributed to it.
type DayPoint struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	ItemIDs []int  `json:"item_ids,omitempty"`
}

// PercentileResult is a percentile list together with the query that produced it.
type PercentileResult struct {
	QueryWindow
	Values []PercentileValue `json:"values"`
}

// ChartResult is a process behaviour chart together with the query that produced it.
type ChartResult struct {
	QueryWindow
	ProcessBehaviourChart
}

// NewRunChartResult flattens a run chart into dated points.
func NewRunChartResult(window QueryWindow, chart RunChart) RunChartResult {
	points := make([]DayPoint, len(chart.Values))
	for i, p := range chart.Points() {
		points[i] = DayPoint{Date: p.Date.Format(time.DateOnly), Count: p.Count}
		if i < len(chart.ItemIDs) {
			points[i].ItemIDs = chart.ItemIDs[i]
		}
	}
	return RunChartResult{QueryWindow: window, Total: chart.Total(), Points: points, Chart: chart}
}
