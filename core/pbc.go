package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/flowpulse/core/algo"
	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/schema"
	"golang.org/x/sync/errgroup"
)

// itemTimestampFormat renders the x value of per-item charts.
const itemTimestampFormat = "2006-01-02T15:04:05"

// dailyPBCSeries maps the daily process behaviour charts onto the run chart they classify.
var dailyPBCSeries = map[schema.MetricName]schema.MetricName{
	schema.ThroughputPBCMetric: schema.ThroughputMetric,
	schema.WIPPBCMetric:        schema.WIPOverTimeMetric,
	schema.TotalAgePBCMetric:   schema.TotalAgeOverTimeMetric,
}

// ProcessBehaviourChart returns an XmR chart of the metric over [start, end].
// Limits come from the entity's baseline, or from the display window when no baseline is set.
func (s *MetricsService) ProcessBehaviourChart(ctx context.Context, entity schema.Entity, metric schema.MetricName, start, end time.Time) (schema.ProcessBehaviourChart, error) {
	if err := contract.ValidateDateRange(start, end); err != nil {
		return schema.ProcessBehaviourChart{}, err
	}

	var compute func(ctx context.Context) (schema.ProcessBehaviourChart, error)
	switch metric {
	case schema.ThroughputPBCMetric, schema.WIPPBCMetric, schema.TotalAgePBCMetric:
		build := runChartBuilders[dailyPBCSeries[metric]]
		compute = func(ctx context.Context) (schema.ProcessBehaviourChart, error) {
			return s.dailyChart(ctx, entity, start, end, build)
		}
	case schema.CycleTimePBCMetric:
		compute = func(ctx context.Context) (schema.ProcessBehaviourChart, error) {
			return s.itemChart(ctx, entity, start, end, cycleTime, "No closed items with a cycle time were found in the selected date range.")
		}
	case schema.SizePBCMetric:
		size := func(item schema.WorkItem) int { return item.Size }
		compute = func(ctx context.Context) (schema.ProcessBehaviourChart, error) {
			return s.itemChart(ctx, entity, start, end, size, "No closed features with a non-zero size were found in the selected date range.")
		}
	default:
		return schema.ProcessBehaviourChart{}, fmt.Errorf("%w: %s is not a process behaviour chart", contract.ErrUnknownMetric, metric)
	}

	return GetOrCompute(ctx, s, entity, rangeKey(metric, start, end), compute)
}

// emptyChart is a chart without points carrying a non-ready status.
func emptyChart(status schema.BaselineStatus, reason string, axis schema.XAxisKind, configured bool) schema.ProcessBehaviourChart {
	return schema.ProcessBehaviourChart{
		Status:             status,
		StatusReason:       reason,
		XAxisKind:          axis,
		BaselineConfigured: configured,
		DataPoints:         []schema.ProcessBehaviourChartPoint{},
	}
}

// dailyChart classifies a daily series. Baseline and display series are built concurrently.
func (s *MetricsService) dailyChart(ctx context.Context, entity schema.Entity, start, end time.Time, build runChartFunc) (schema.ProcessBehaviourChart, error) {
	baseline := resolveBaseline(entity, start, end)
	if err := ValidateBaseline(baseline.start, baseline.end, entity.DoneItemsCutoffDays, s.today()); err != nil {
		return emptyChart(schema.BaselineInvalid, err.Error(), schema.DateAxis, baseline.configured), nil
	}

	items, err := s.workItems(ctx, entity)
	if err != nil {
		return schema.ProcessBehaviourChart{}, err
	}

	var baselineSeries, displaySeries schema.RunChart
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		baselineSeries = build(*baseline.start, *baseline.end, items)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		displaySeries = build(start, end, items)
		return nil
	})
	if err := g.Wait(); err != nil {
		return schema.ProcessBehaviourChart{}, err
	}

	xmr := algo.XmR(baselineSeries.Values, displaySeries.Values, s.clamp)
	points := make([]schema.ProcessBehaviourChartPoint, len(displaySeries.Values))
	for i, v := range displaySeries.Values {
		points[i] = schema.ProcessBehaviourChartPoint{
			XValue:       displaySeries.StartDate.AddDate(0, 0, i).Format(time.DateOnly),
			YValue:       v,
			SpecialCause: xmr.Classifications[i],
			WorkItemIDs:  displaySeries.ItemIDs[i],
		}
	}

	return schema.ProcessBehaviourChart{
		Status:             schema.BaselineReady,
		XAxisKind:          schema.DateAxis,
		Average:            xmr.Average,
		UpperLimit:         xmr.UpperLimit,
		LowerLimit:         xmr.LowerLimit,
		BaselineConfigured: baseline.configured,
		DataPoints:         points,
	}, nil
}

// itemChart classifies one value per closed item, ordered by closed date then id.
func (s *MetricsService) itemChart(ctx context.Context, entity schema.Entity, start, end time.Time, value func(schema.WorkItem) int, noDataReason string) (schema.ProcessBehaviourChart, error) {
	baseline := resolveBaseline(entity, start, end)
	if err := ValidateBaseline(baseline.start, baseline.end, entity.DoneItemsCutoffDays, s.today()); err != nil {
		return emptyChart(schema.BaselineInvalid, err.Error(), schema.DateTimeAxis, baseline.configured), nil
	}

	items, err := s.workItems(ctx, entity)
	if err != nil {
		return schema.ProcessBehaviourChart{}, err
	}

	var baselineItems, displayItems []schema.WorkItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		baselineItems = closedItemsWithValue(items, *baseline.start, *baseline.end, value)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		displayItems = closedItemsWithValue(items, start, end, value)
		return nil
	})
	if err := g.Wait(); err != nil {
		return schema.ProcessBehaviourChart{}, err
	}

	if len(displayItems) == 0 {
		return emptyChart(schema.BaselineNoData, noDataReason, schema.DateTimeAxis, baseline.configured), nil
	}

	xmr := algo.XmR(values(baselineItems, value), values(displayItems, value), s.clamp)
	points := make([]schema.ProcessBehaviourChartPoint, len(displayItems))
	for i, item := range displayItems {
		points[i] = schema.ProcessBehaviourChartPoint{
			XValue:       item.ClosedDate.Format(itemTimestampFormat),
			YValue:       value(item),
			SpecialCause: xmr.Classifications[i],
			WorkItemIDs:  []int{item.ID},
		}
	}

	return schema.ProcessBehaviourChart{
		Status:             schema.BaselineReady,
		XAxisKind:          schema.DateTimeAxis,
		Average:            xmr.Average,
		UpperLimit:         xmr.UpperLimit,
		LowerLimit:         xmr.LowerLimit,
		BaselineConfigured: baseline.configured,
		DataPoints:         points,
	}, nil
}

// closedItemsWithValue keeps the items closed within [start, end] with a positive value, in closing order.
func closedItemsWithValue(items []schema.WorkItem, start, end time.Time, value func(schema.WorkItem) int) []schema.WorkItem {
	var out []schema.WorkItem
	for _, item := range closedInRange(items, start, end) {
		if value(item) > 0 {
			out = append(out, item)
		}
	}
	slices.SortStableFunc(out, func(a, b schema.WorkItem) int {
		return cmp.Or(a.ClosedDate.Compare(*b.ClosedDate), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func values(items []schema.WorkItem, value func(schema.WorkItem) int) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = value(item)
	}
	return out
}
