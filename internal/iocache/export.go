package iocache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/parquet"
	"github.com/huangsam/flowpulse/schema"
)

// ExecuteStoreExport writes the work items of every registered entity to a Parquet file.
func ExecuteStoreExport(ctx context.Context, w io.Writer, store contract.WorkItemStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("work item store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalWorkItems == 0 {
		return errors.New("no work items found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	var items []schema.WorkItem
	for _, kind := range []schema.EntityKind{schema.TeamEntity, schema.ProjectEntity, schema.PortfolioEntity} {
		entities, err := store.ListEntities(ctx, kind)
		if err != nil {
			return fmt.Errorf("failed to list %s entities: %w", kind, err)
		}
		for _, entity := range entities {
			entityItems, err := store.ListWorkItems(ctx, kind, entity.ID)
			if err != nil {
				return fmt.Errorf("failed to list work items of %s %d: %w", kind, entity.ID, err)
			}
			items = append(items, entityItems...)
		}
	}

	if err := parquet.WriteFile(parquet.ConvertWorkItems(items), outputFile); err != nil {
		return fmt.Errorf("failed to write work items: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d work items to: %s\n", len(items), outputFile)
	return nil
}
