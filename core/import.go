package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/flowpulse/core/algo"
	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/schema"
)

// ImportWorkItems saves items for the entity and invalidates its cached metrics.
// Items are assigned to the entity, and a missing cycle time is derived from the dates.
func (s *MetricsService) ImportWorkItems(ctx context.Context, store contract.WorkItemStore, entity contract.Entity, items []schema.WorkItem) (int, error) {
	prepared := make([]schema.WorkItem, len(items))
	for i, item := range items {
		item.EntityKind = s.kind
		item.EntityID = entity.GetID()
		if item.CycleTimeDays == 0 {
			item.CycleTimeDays = algo.CycleTimeDays(item.StartedDate, item.ClosedDate)
		}
		prepared[i] = item
	}

	saved, err := store.SaveWorkItems(ctx, prepared)
	if err != nil {
		return 0, fmt.Errorf("failed to import work items into %s %d: %w", s.kind, entity.GetID(), err)
	}
	s.recorder.AddImportedItems(string(s.kind), saved)
	s.InvalidateMetrics(entity)
	return saved, nil
}

// UpsertEntity validates and saves the entity, then invalidates its cached metrics.
func (s *MetricsService) UpsertEntity(ctx context.Context, store contract.WorkItemStore, entity schema.Entity) error {
	entity.Kind = s.kind
	if entity.HasBaseline() {
		if err := ValidateBaseline(entity.BaselineStart, entity.BaselineEnd, entity.DoneItemsCutoffDays, s.today()); err != nil {
			return fmt.Errorf("invalid baseline: %w", err)
		}
	}
	if err := store.UpsertEntity(ctx, entity); err != nil {
		return err
	}
	s.InvalidateMetrics(entity)
	return nil
}

// ResolveEntity loads an entity of the family. Unregistered ids get default settings.
func (s *MetricsService) ResolveEntity(ctx context.Context, store contract.WorkItemStore, id int) (schema.Entity, error) {
	entity, err := store.GetEntity(ctx, s.kind, id)
	if err == nil {
		return entity, nil
	}
	if errors.Is(err, contract.ErrEntityNotFound) {
		return schema.Entity{Kind: s.kind, ID: id}, nil
	}
	return schema.Entity{}, err
}
