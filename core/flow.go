package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/flowpulse/core/algo"
	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/schema"
)

// runChartFunc builds a day-indexed series over [start, end].
type runChartFunc func(start, end time.Time, items []schema.WorkItem) schema.RunChart

// runChartBuilders maps each run chart metric onto its aggregation.
var runChartBuilders = map[schema.MetricName]runChartFunc{
	schema.ThroughputMetric: algo.ThroughputByDay,
	schema.StartedMetric: func(start, end time.Time, items []schema.WorkItem) schema.RunChart {
		return algo.RunChartByDay(start, end, items, algo.StartedDate)
	},
	schema.CreatedMetric: func(start, end time.Time, items []schema.WorkItem) schema.RunChart {
		return algo.RunChartByDay(start, end, items, algo.CreatedDate)
	},
	schema.WIPOverTimeMetric: func(start, end time.Time, items []schema.WorkItem) schema.RunChart {
		return algo.WorkInProgressByDay(start, end, startedItems(items))
	},
	schema.TotalAgeOverTimeMetric: func(start, end time.Time, items []schema.WorkItem) schema.RunChart {
		return algo.TotalWorkItemAgeByDay(start, end, startedItems(items))
	},
}

// rangeKey qualifies a metric with its calendar date range.
func rangeKey(metric schema.MetricName, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s", metric, start.Format(time.DateOnly), end.Format(time.DateOnly))
}

// ranksKey renders the requested ranks for a cache key.
func ranksKey(ranks []float64) string {
	if len(ranks) == 0 {
		ranks = schema.CanonicalPercentiles
	}
	parts := make([]string, len(ranks))
	for i, r := range ranks {
		parts[i] = strconv.FormatFloat(r, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// today returns midnight of the current date.
func (s *MetricsService) today() time.Time {
	return algo.StartOfDay(s.now())
}

// RunChart returns a run chart metric of the entity over the inclusive [start, end] range.
func (s *MetricsService) RunChart(ctx context.Context, entity contract.Entity, metric schema.MetricName, start, end time.Time) (schema.RunChart, error) {
	if err := contract.ValidateDateRange(start, end); err != nil {
		return schema.RunChart{}, err
	}
	build, ok := runChartBuilders[metric]
	if !ok {
		return schema.RunChart{}, fmt.Errorf("%w: %s is not a run chart", contract.ErrUnknownMetric, metric)
	}

	return GetOrCompute(ctx, s, entity, rangeKey(metric, start, end), func(ctx context.Context) (schema.RunChart, error) {
		items, err := s.workItems(ctx, entity)
		if err != nil {
			return schema.RunChart{}, err
		}
		return build(start, end, items), nil
	})
}

// Throughput returns the closed items per day.
func (s *MetricsService) Throughput(ctx context.Context, entity contract.Entity, start, end time.Time) (schema.RunChart, error) {
	return s.RunChart(ctx, entity, schema.ThroughputMetric, start, end)
}

// WorkInProgressOverTime returns the items in progress per day.
func (s *MetricsService) WorkInProgressOverTime(ctx context.Context, entity contract.Entity, start, end time.Time) (schema.RunChart, error) {
	return s.RunChart(ctx, entity, schema.WIPOverTimeMetric, start, end)
}

// Percentiles returns cycle time or size percentiles of the items closed within [start, end].
// No ranks means the canonical 50/70/85/95. No qualifying items yields an empty list.
func (s *MetricsService) Percentiles(ctx context.Context, entity contract.Entity, metric schema.MetricName, start, end time.Time, ranks ...float64) ([]schema.PercentileValue, error) {
	if err := contract.ValidateDateRange(start, end); err != nil {
		return nil, err
	}
	var value func(schema.WorkItem) int
	switch metric {
	case schema.CycleTimeMetric:
		value = cycleTime
	case schema.SizeMetric:
		value = func(item schema.WorkItem) int { return item.Size }
	default:
		return nil, fmt.Errorf("%w: %s is not a percentile metric", contract.ErrUnknownMetric, metric)
	}

	key := rangeKey(metric, start, end) + ":" + ranksKey(ranks)
	return GetOrCompute(ctx, s, entity, key, func(ctx context.Context) ([]schema.PercentileValue, error) {
		items, err := s.workItems(ctx, entity)
		if err != nil {
			return nil, err
		}
		var sample []int
		for _, item := range closedInRange(items, start, end) {
			if v := value(item); v > 0 {
				sample = append(sample, v)
			}
		}
		return algo.Percentiles(sample, ranks...), nil
	})
}

// CurrentWorkInProgress returns the items in progress today, oldest first, with their age set.
func (s *MetricsService) CurrentWorkInProgress(ctx context.Context, entity contract.Entity) ([]schema.WorkItem, error) {
	return GetOrCompute(ctx, s, entity, string(schema.CurrentWIPMetric), func(ctx context.Context) ([]schema.WorkItem, error) {
		items, err := s.workItems(ctx, entity)
		if err != nil {
			return nil, err
		}
		now := s.now()
		wip := []schema.WorkItem{}
		for _, item := range items {
			if item.State != schema.DoingState {
				continue
			}
			started := item.StartedDate
			if started == nil {
				started = algo.CreatedDate(item)
			}
			item.AgeDays = algo.AgeDays(started, now)
			wip = append(wip, item)
		}
		slices.SortStableFunc(wip, func(a, b schema.WorkItem) int {
			return cmp.Or(cmp.Compare(b.AgeDays, a.AgeDays), cmp.Compare(a.ID, b.ID))
		})
		return wip, nil
	})
}

// TotalWorkItemAge returns the summed age in days of the items currently in progress.
func (s *MetricsService) TotalWorkItemAge(ctx context.Context, entity contract.Entity) (int, error) {
	return GetOrCompute(ctx, s, entity, string(schema.TotalAgeMetric), func(ctx context.Context) (int, error) {
		wip, err := s.CurrentWorkInProgress(ctx, entity)
		if err != nil {
			return 0, err
		}
		total := 0
		for _, item := range wip {
			total += item.AgeDays
		}
		return total, nil
	})
}

// CurrentThroughput returns the throughput over the entity's configured window:
// fixed dates when both are set, otherwise the trailing ThroughputHistoryDays ending today.
func (s *MetricsService) CurrentThroughput(ctx context.Context, entity schema.Entity) (schema.RunChart, error) {
	return GetOrCompute(ctx, s, entity, string(schema.CurrentThroughput), func(ctx context.Context) (schema.RunChart, error) {
		start, end := s.throughputWindow(entity)
		items, err := s.workItems(ctx, entity)
		if err != nil {
			return schema.RunChart{}, err
		}
		return algo.ThroughputByDay(start, end, items), nil
	})
}

// throughputWindow resolves the current throughput range of an entity.
func (s *MetricsService) throughputWindow(entity schema.Entity) (time.Time, time.Time) {
	if entity.ThroughputStart != nil && entity.ThroughputEnd != nil && !entity.ThroughputStart.After(*entity.ThroughputEnd) {
		return *entity.ThroughputStart, *entity.ThroughputEnd
	}
	history := entity.ThroughputHistoryDays
	if history <= 0 {
		history = contract.DefaultLookbackDays
	}
	end := s.today()
	return end.AddDate(0, 0, -(history - 1)), end
}

// startedItems keeps the items that have left the backlog.
func startedItems(items []schema.WorkItem) []schema.WorkItem {
	out := make([]schema.WorkItem, 0, len(items))
	for _, item := range items {
		if item.State != schema.ToDoState {
			out = append(out, item)
		}
	}
	return out
}

// closedInRange keeps the items closed on a calendar day within [start, end].
func closedInRange(items []schema.WorkItem, start, end time.Time) []schema.WorkItem {
	last := algo.DaysBetween(start, end)
	var out []schema.WorkItem
	for _, item := range items {
		if item.ClosedDate == nil {
			continue
		}
		if d := algo.DaysBetween(start, *item.ClosedDate); d >= 0 && d <= last {
			out = append(out, item)
		}
	}
	return out
}

// cycleTime prefers the stored cycle time and derives it from the dates otherwise.
func cycleTime(item schema.WorkItem) int {
	if item.CycleTimeDays > 0 {
		return item.CycleTimeDays
	}
	return algo.CycleTimeDays(item.StartedDate, item.ClosedDate)
}
