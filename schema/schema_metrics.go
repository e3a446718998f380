package schema

import "time"

// SpecialCause classifies one point of a process behaviour chart.
type SpecialCause string

// All special cause classifications, highest priority first.
const (
	LargeChange    SpecialCause = "LargeChange"
	ModerateChange SpecialCause = "ModerateChange"
	ModerateShift  SpecialCause = "ModerateShift"
	SmallShift     SpecialCause = "SmallShift"
	NoSpecialCause SpecialCause = "None"
)

// RunChart is a day-indexed count series starting at StartDate.
type RunChart struct {
	StartDate time.Time `json:"start_date"`
	Values    []int     `json:"values"`
	ItemIDs   [][]int   `json:"item_ids,omitempty"` // work item ids contributing to each day
}

// RunChartPoint is a single (date, count) pair of a run chart.
type RunChartPoint struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// Points returns the ordered (date, count) pairs of the run chart.
func (r RunChart) Points() []RunChartPoint {
	points := make([]RunChartPoint, len(r.Values))
	for i, v := range r.Values {
		points[i] = RunChartPoint{Date: r.StartDate.AddDate(0, 0, i), Count: v}
	}
	return points
}

// Total returns the sum of all buckets.
func (r RunChart) Total() int {
	total := 0
	for _, v := range r.Values {
		total += v
	}
	return total
}

// PercentileValue is one nearest-rank percentile result.
type PercentileValue struct {
	Percentile float64 `json:"percentile"`
	Value      int     `json:"value"`
}

// XmRResult holds the natural process limits and per-point classification of an XmR chart.
type XmRResult struct {
	Average         float64        `json:"average"`
	UpperLimit      float64        `json:"upper_limit"`
	LowerLimit      float64        `json:"lower_limit"`
	Classifications []SpecialCause `json:"classifications"`
}

// ProcessBehaviourChartPoint is one classified point of a process behaviour chart.
type ProcessBehaviourChartPoint struct {
	XValue       string       `json:"x_value"`
	YValue       int          `json:"y_value"`
	SpecialCause SpecialCause `json:"special_cause"`
	WorkItemIDs  []int        `json:"work_item_ids"`
}

// ProcessBehaviourChart is an XmR chart ready for presentation.
type ProcessBehaviourChart struct {
	Status             BaselineStatus               `json:"status"`
	StatusReason       string                       `json:"status_reason,omitempty"`
	XAxisKind          XAxisKind                    `json:"x_axis_kind"`
	Average            float64                      `json:"average"`
	UpperLimit         float64                      `json:"upper_natural_process_limit"`
	LowerLimit         float64                      `json:"lower_natural_process_limit"`
	BaselineConfigured bool                         `json:"baseline_configured"`
	DataPoints         []ProcessBehaviourChartPoint `json:"data_points"`
}
