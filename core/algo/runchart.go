// Package algo has the pure statistics behind flow metrics: run charts,
// nearest-rank percentiles and XmR process behaviour charts.
package algo

import (
	"time"

	"github.com/huangsam/flowpulse/schema"
)

const day = 24 * time.Hour

// DateSelector picks the lifecycle date a run chart buckets an item by.
// A nil result excludes the item.
type DateSelector func(item schema.WorkItem) *time.Time

// ClosedDate selects the closed date (throughput).
func ClosedDate(item schema.WorkItem) *time.Time { return item.ClosedDate }

// StartedDate selects the started date.
func StartedDate(item schema.WorkItem) *time.Time { return item.StartedDate }

// CreatedDate selects the created date. A zero created date counts as missing.
func CreatedDate(item schema.WorkItem) *time.Time {
	if item.CreatedDate.IsZero() {
		return nil
	}
	created := item.CreatedDate
	return &created
}

// calendarDay maps t to midnight UTC of its calendar date in loc, so that
// subtracting two calendar days always yields a whole number of 24h periods.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from start to t, using the location of start.
// The result is negative when t falls on an earlier date.
func DaysBetween(start, t time.Time) int {
	loc := start.Location()
	return int(calendarDay(t, loc).Sub(calendarDay(start, loc)) / day)
}

// NumberOfDays returns the length of the inclusive [start, end] range in calendar days.
func NumberOfDays(start, end time.Time) int {
	return DaysBetween(start, end) + 1
}

// StartOfDay returns midnight of t's calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// newRunChart allocates an empty chart with one bucket per day.
func newRunChart(start time.Time, days int) schema.RunChart {
	days = max(days, 0)
	chart := schema.RunChart{
		StartDate: StartOfDay(start),
		Values:    make([]int, days),
		ItemIDs:   make([][]int, days),
	}
	for i := range chart.ItemIDs {
		chart.ItemIDs[i] = []int{}
	}
	return chart
}

// RunChartByDay buckets items by the date chosen with selectDate. Bucket i counts the
// items whose selected date is start+i. Items without a selected date, or whose date
// lies outside [start, end], are left out. The caller guarantees start <= end.
func RunChartByDay(start, end time.Time, items []schema.WorkItem, selectDate DateSelector) schema.RunChart {
	days := NumberOfDays(start, end)
	chart := newRunChart(start, days)

	for _, item := range items {
		date := selectDate(item)
		if date == nil {
			continue
		}
		index := DaysBetween(start, *date)
		if index < 0 || index >= days {
			continue
		}
		chart.Values[index]++
		chart.ItemIDs[index] = append(chart.ItemIDs[index], item.ID)
	}

	return chart
}

// ThroughputByDay counts closed items per day.
func ThroughputByDay(start, end time.Time, items []schema.WorkItem) schema.RunChart {
	return RunChartByDay(start, end, items, ClosedDate)
}

// inProgressSpan returns the half-open range of day indexes [from, to) relative to start
// during which the item was in progress. ok is false for items that never started.
func inProgressSpan(start time.Time, item schema.WorkItem, days int) (from, to int, ok bool) {
	if item.StartedDate == nil {
		return 0, 0, false
	}
	from = DaysBetween(start, *item.StartedDate)
	to = days
	if item.ClosedDate != nil {
		to = min(to, DaysBetween(start, *item.ClosedDate))
	}
	return from, to, true
}

// WorkInProgressByDay counts, for each day, the items that were open at some point during
// that day: started on or before the day and not closed on or before it.
func WorkInProgressByDay(start, end time.Time, items []schema.WorkItem) schema.RunChart {
	days := NumberOfDays(start, end)
	chart := newRunChart(start, days)

	for _, item := range items {
		from, to, ok := inProgressSpan(start, item, days)
		if !ok {
			continue
		}
		for i := max(from, 0); i < to; i++ {
			chart.Values[i]++
			chart.ItemIDs[i] = append(chart.ItemIDs[i], item.ID)
		}
	}

	return chart
}

// TotalWorkItemAgeByDay sums, for each day, the age in days of every item in progress on
// that day. An item started on the day itself has age 1.
func TotalWorkItemAgeByDay(start, end time.Time, items []schema.WorkItem) schema.RunChart {
	days := NumberOfDays(start, end)
	chart := newRunChart(start, days)

	for _, item := range items {
		from, to, ok := inProgressSpan(start, item, days)
		if !ok {
			continue
		}
		for i := max(from, 0); i < to; i++ {
			chart.Values[i] += i - from + 1
			chart.ItemIDs[i] = append(chart.ItemIDs[i], item.ID)
		}
	}

	return chart
}

// CycleTimeDays returns the inclusive calendar-day span between started and closed,
// or 0 when either date is missing.
func CycleTimeDays(started, closed *time.Time) int {
	if started == nil || closed == nil {
		return 0
	}
	return DaysBetween(*started, *closed) + 1
}

// AgeDays returns the inclusive calendar-day span between started and now,
// or 0 when the item has not started.
func AgeDays(started *time.Time, now time.Time) int {
	if started == nil {
		return 0
	}
	return DaysBetween(*started, now) + 1
}
