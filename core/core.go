// Package core computes flow metrics for teams, projects and portfolios, caching each
// result per entity until it expires or the entity's data changes.
package core

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/outwriter"
	"github.com/huangsam/flowpulse/schema"
)

var errStoreMissing = errors.New("work item store is not initialized")

// ExecutorFunc defines the function signature for executing the metric commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, svcs *Services) error

// Services holds one MetricsService per entity family over a shared cache and store.
type Services struct {
	store    contract.WorkItemStore
	writer   *outwriter.OutWriter
	services map[schema.EntityKind]*MetricsService
}

// NewServices wires the metrics services of every family. Teams refresh on the team
// interval, projects and portfolios on the feature interval. A nil writer prints to stdout.
func NewServices(cfg *contract.Config, cache contract.MetricsCache, store contract.WorkItemStore, writer *outwriter.OutWriter, opts ...Option) *Services {
	if writer == nil {
		writer = outwriter.NewOutWriter()
	}
	svcs := &Services{
		store:    store,
		writer:   writer,
		services: make(map[schema.EntityKind]*MetricsService, len(schema.ValidEntityKinds)),
	}
	for kind := range schema.ValidEntityKinds {
		kindOpts := append([]Option{WithClampLowerLimit(cfg.ClampLowerLimit)}, opts...)
		svcs.services[kind] = NewMetricsService(kind, cache, store, cfg.RefreshFor(kind), kindOpts...)
	}
	return svcs
}

// For returns the service of a family, or nil for an unknown family.
func (s *Services) For(kind schema.EntityKind) *MetricsService {
	return s.services[kind]
}

// Store returns the work item store backing the services.
func (s *Services) Store() contract.WorkItemStore {
	return s.store
}

// entity resolves the family service and the configured entity.
func (s *Services) entity(ctx context.Context, cfg *contract.Config) (*MetricsService, schema.Entity, error) {
	if s.store == nil {
		return nil, schema.Entity{}, errStoreMissing
	}
	svc := s.For(cfg.Kind)
	if svc == nil {
		return nil, schema.Entity{}, fmt.Errorf("unsupported entity kind: %s", cfg.Kind)
	}
	entity, err := svc.ResolveEntity(ctx, s.store, cfg.EntityID)
	if err != nil {
		return nil, schema.Entity{}, fmt.Errorf("failed to load %s %d: %w", cfg.Kind, cfg.EntityID, err)
	}
	return svc, entity, nil
}

// ResolveMetric maps a user-facing metric name onto its metric. Blank selects fallback.
func ResolveMetric(table map[string]schema.MetricName, name, fallback string) (schema.MetricName, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = fallback
	}
	metric, ok := table[name]
	if !ok {
		return "", fmt.Errorf("%w '%s'. must be one of %s", contract.ErrUnknownMetric, name,
			strings.Join(slices.Sorted(maps.Keys(table)), ", "))
	}
	return metric, nil
}

func queryWindow(cfg *contract.Config, metric schema.MetricName) schema.QueryWindow {
	return schema.QueryWindow{Kind: cfg.Kind, EntityID: cfg.EntityID, Metric: metric, Start: cfg.StartTime, End: cfg.EndTime}
}

// ExecuteRunChart prints a run chart of the configured entity and window.
// It serves as the main entry point for the 'runchart' command.
func ExecuteRunChart(ctx context.Context, cfg *contract.Config, svcs *Services) error {
	start := time.Now()
	metric, err := ResolveMetric(schema.RunChartMetrics, cfg.Metric, "throughput")
	if err != nil {
		return err
	}
	svc, entity, err := svcs.entity(ctx, cfg)
	if err != nil {
		return err
	}
	chart, err := svc.RunChart(ctx, entity, metric, cfg.StartTime, cfg.EndTime)
	if err != nil {
		return err
	}
	result := schema.NewRunChartResult(queryWindow(cfg, metric), chart)
	return svcs.writer.WriteRunChart(result, cfg, time.Since(start))
}

// ExecutePercentiles prints cycle time or size percentiles of the configured entity and window.
func ExecutePercentiles(ctx context.Context, cfg *contract.Config, svcs *Services) error {
	start := time.Now()
	metric, err := ResolveMetric(schema.PercentileMetrics, cfg.Metric, "cycle-time")
	if err != nil {
		return err
	}
	svc, entity, err := svcs.entity(ctx, cfg)
	if err != nil {
		return err
	}
	values, err := svc.Percentiles(ctx, entity, metric, cfg.StartTime, cfg.EndTime, cfg.Ranks...)
	if err != nil {
		return err
	}
	result := schema.PercentileResult{QueryWindow: queryWindow(cfg, metric), Values: values}
	return svcs.writer.WritePercentiles(result, cfg, time.Since(start))
}

// ExecuteProcessBehaviourChart prints an XmR chart of the configured entity and window.
func ExecuteProcessBehaviourChart(ctx context.Context, cfg *contract.Config, svcs *Services) error {
	start := time.Now()
	metric, err := ResolveMetric(schema.PBCMetrics, cfg.Metric, "throughput")
	if err != nil {
		return err
	}
	svc, entity, err := svcs.entity(ctx, cfg)
	if err != nil {
		return err
	}
	chart, err := svc.ProcessBehaviourChart(ctx, entity, metric, cfg.StartTime, cfg.EndTime)
	if err != nil {
		return err
	}
	result := schema.ChartResult{QueryWindow: queryWindow(cfg, metric), ProcessBehaviourChart: chart}
	return svcs.writer.WriteChart(result, cfg, time.Since(start))
}

// ExecuteCurrentWIP prints the items in progress today, oldest first.
func ExecuteCurrentWIP(ctx context.Context, cfg *contract.Config, svcs *Services) error {
	svc, entity, err := svcs.entity(ctx, cfg)
	if err != nil {
		return err
	}
	wip, err := svc.CurrentWorkInProgress(ctx, entity)
	if err != nil {
		return err
	}
	if err := svcs.writer.WriteWorkItems(wip, cfg); err != nil {
		return err
	}
	if cfg.Output == schema.TextOut {
		total, err := svc.TotalWorkItemAge(ctx, entity)
		if err != nil {
			return err
		}
		svcs.writer.Printf("Total work item age: %d days\n", total)
	}
	return nil
}

// ExecuteCurrentThroughput prints throughput over the entity's configured history window.
func ExecuteCurrentThroughput(ctx context.Context, cfg *contract.Config, svcs *Services) error {
	start := time.Now()
	svc, entity, err := svcs.entity(ctx, cfg)
	if err != nil {
		return err
	}
	chart, err := svc.CurrentThroughput(ctx, entity)
	if err != nil {
		return err
	}
	window := queryWindow(cfg, schema.CurrentThroughput)
	window.Start = chart.StartDate
	window.End = chart.StartDate.AddDate(0, 0, max(len(chart.Values)-1, 0))
	return svcs.writer.WriteRunChart(schema.NewRunChartResult(window, chart), cfg, time.Since(start))
}

// ExecuteItemsList prints every stored work item of the configured entity.
func ExecuteItemsList(ctx context.Context, cfg *contract.Config, svcs *Services) error {
	if svcs.store == nil {
		return errStoreMissing
	}
	items, err := svcs.store.ListWorkItems(ctx, cfg.Kind, cfg.EntityID)
	if err != nil {
		return fmt.Errorf("failed to list work items: %w", err)
	}
	return svcs.writer.WriteWorkItems(items, cfg)
}

// ExecuteItemsImport reads a CSV of work items into the configured entity.
// Cached metrics of the entity are dropped so the next query sees the new items.
func ExecuteItemsImport(ctx context.Context, cfg *contract.Config, svcs *Services, items []schema.WorkItem) error {
	if svcs.store == nil {
		return errStoreMissing
	}
	svc, entity, err := svcs.entity(ctx, cfg)
	if err != nil {
		return err
	}
	saved, err := svc.ImportWorkItems(ctx, svcs.store, entity, items)
	if err != nil {
		return err
	}
	svcs.writer.Printf("Imported %d work items into %s %d\n", saved, cfg.Kind, cfg.EntityID)
	return nil
}

// ExecuteEntityUpsert saves the settings of an entity of the configured family.
func ExecuteEntityUpsert(ctx context.Context, cfg *contract.Config, svcs *Services, entity schema.Entity) error {
	if svcs.store == nil {
		return errStoreMissing
	}
	svc := svcs.For(cfg.Kind)
	if svc == nil {
		return fmt.Errorf("unsupported entity kind: %s", cfg.Kind)
	}
	entity.ID = cfg.EntityID
	if err := svc.UpsertEntity(ctx, svcs.store, entity); err != nil {
		return err
	}
	svcs.writer.Printf("Saved %s %d\n", cfg.Kind, entity.ID)
	return nil
}

// ExecuteEntityList prints the registered entities of the configured family.
func ExecuteEntityList(ctx context.Context, cfg *contract.Config, svcs *Services) error {
	if svcs.store == nil {
		return errStoreMissing
	}
	entities, err := svcs.store.ListEntities(ctx, cfg.Kind)
	if err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}
	return svcs.writer.WriteEntities(entities, cfg)
}
