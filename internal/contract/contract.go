// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/flowpulse/schema"
)

// Entity is anything whose metrics are cached per id: a team, a project or a portfolio.
type Entity interface {
	GetID() int
	GetName() string
}

// WorkItemRepository supplies the work items metrics are computed from.
// This allows the metrics services to be tested without a real database.
type WorkItemRepository interface {
	// ListWorkItems returns every work item owned by the entity, in no particular order.
	ListWorkItems(ctx context.Context, kind schema.EntityKind, entityID int) ([]schema.WorkItem, error)
}

// WorkItemStore defines the persistence of entities and their work items.
type WorkItemStore interface {
	WorkItemRepository

	// SaveWorkItems inserts or replaces items keyed by entity and reference id.
	SaveWorkItems(ctx context.Context, items []schema.WorkItem) (int, error)

	// GetEntity returns the entity or ErrEntityNotFound.
	GetEntity(ctx context.Context, kind schema.EntityKind, id int) (schema.Entity, error)

	// ListEntities returns all entities of a family ordered by id.
	ListEntities(ctx context.Context, kind schema.EntityKind) ([]schema.Entity, error)

	// UpsertEntity creates or updates an entity and its settings.
	UpsertEntity(ctx context.Context, entity schema.Entity) error

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// MetricsCache defines the key/value cache that holds computed metrics.
type MetricsCache interface {
	Store(key string, value any, ttl time.Duration)
	Get(key string) (any, bool)
	Remove(key string)
	RemovePrefix(prefix string) int
	Keys() []string
}
