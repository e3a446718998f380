package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// WorkItemStoreImpl persists entities and work items in one of the SQL backends.
type WorkItemStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.WorkItemStore = &WorkItemStoreImpl{} // Compile-time check

// NewWorkItemStore opens the store and migrates it to the latest schema.
// The none backend yields a store that keeps nothing.
func NewWorkItemStore(backend schema.DatabaseBackend, connStr string) (*WorkItemStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &WorkItemStoreImpl{backend: backend}, nil
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	if err := ensureSchema(backend, connStr); err != nil {
		return nil, fmt.Errorf("failed to migrate work item store: %w", err)
	}

	db, _, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	return &WorkItemStoreImpl{db: db, backend: backend}, nil
}

// disabled reports whether the store keeps nothing.
func (s *WorkItemStoreImpl) disabled() bool {
	return s.backend == schema.NoneBackend || s.db == nil
}

// SaveWorkItems upserts items in a single transaction and returns how many were written.
func (s *WorkItemStoreImpl) SaveWorkItems(ctx context.Context, items []schema.WorkItem) (int, error) {
	if s.disabled() || len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertWorkItemQuery(s.backend))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare work item upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx,
			item.ReferenceID, item.Name, string(item.EntityKind), item.EntityID, string(item.State),
			formatTime(item.CreatedDate, s.backend),
			formatOptionalTime(item.StartedDate, s.backend),
			formatOptionalTime(item.ClosedDate, s.backend),
			item.CycleTimeDays, item.Size,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save work item %q: %w", item.ReferenceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit work items: %w", err)
	}
	return len(items), nil
}

// ListWorkItems returns the items owned by an entity ordered by id.
func (s *WorkItemStoreImpl) ListWorkItems(ctx context.Context, kind schema.EntityKind, entityID int) ([]schema.WorkItem, error) {
	if s.disabled() {
		return []schema.WorkItem{}, nil
	}

	query := fmt.Sprintf(`SELECT id, reference_id, name, entity_kind, entity_id, state, created_date, started_date, closed_date,
		cycle_time_days, size FROM %s WHERE entity_kind = %s AND entity_id = %s ORDER BY id`,
		quoteTableName(workItemsTable, s.backend), placeholder(s.backend, 1), placeholder(s.backend, 2))

	rows, err := s.db.QueryContext(ctx, query, string(kind), entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []schema.WorkItem{}
	for rows.Next() {
		var (
			item                     schema.WorkItem
			entityKind, state        string
			created, started, closed = timeColumn{backend: s.backend}, timeColumn{backend: s.backend}, timeColumn{backend: s.backend}
		)
		if err := rows.Scan(&item.ID, &item.ReferenceID, &item.Name, &entityKind, &item.EntityID, &state,
			created.target(), started.target(), closed.target(), &item.CycleTimeDays, &item.Size); err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		item.EntityKind = schema.EntityKind(entityKind)
		item.State = schema.StateCategory(state)

		createdDate, err := created.value()
		if err != nil {
			return nil, err
		}
		if createdDate != nil {
			item.CreatedDate = *createdDate
		}
		if item.StartedDate, err = started.value(); err != nil {
			return nil, err
		}
		if item.ClosedDate, err = closed.value(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work items: %w", err)
	}
	return items, nil
}

// UpsertEntity creates or updates an entity.
func (s *WorkItemStoreImpl) UpsertEntity(ctx context.Context, entity schema.Entity) error {
	if s.disabled() {
		return nil
	}
	_, err := s.db.ExecContext(ctx, upsertEntityQuery(s.backend),
		string(entity.Kind), entity.ID, entity.Name, entity.ThroughputHistoryDays,
		formatOptionalTime(entity.ThroughputStart, s.backend),
		formatOptionalTime(entity.ThroughputEnd, s.backend),
		formatOptionalTime(entity.BaselineStart, s.backend),
		formatOptionalTime(entity.BaselineEnd, s.backend),
		entity.DoneItemsCutoffDays,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s %d: %w", entity.Kind, entity.ID, err)
	}
	return nil
}

// entityColumns is the select list matching scanEntity.
const entityColumns = "kind, id, name, throughput_history_days, throughput_start, throughput_end, baseline_start, baseline_end, done_items_cutoff_days"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *WorkItemStoreImpl) scanEntity(row rowScanner) (schema.Entity, error) {
	var (
		entity schema.Entity
		kind   string
		cols   = [4]timeColumn{{backend: s.backend}, {backend: s.backend}, {backend: s.backend}, {backend: s.backend}}
	)
	if err := row.Scan(&kind, &entity.ID, &entity.Name, &entity.ThroughputHistoryDays,
		cols[0].target(), cols[1].target(), cols[2].target(), cols[3].target(), &entity.DoneItemsCutoffDays); err != nil {
		return entity, err
	}
	entity.Kind = schema.EntityKind(kind)

	dates := [4]**time.Time{&entity.ThroughputStart, &entity.ThroughputEnd, &entity.BaselineStart, &entity.BaselineEnd}
	for i, col := range cols {
		value, err := col.value()
		if err != nil {
			return entity, err
		}
		*dates[i] = value
	}
	return entity, nil
}

// GetEntity returns the entity or contract.ErrEntityNotFound.
func (s *WorkItemStoreImpl) GetEntity(ctx context.Context, kind schema.EntityKind, id int) (schema.Entity, error) {
	if s.disabled() {
		return schema.Entity{}, fmt.Errorf("%s %d: %w", kind, id, contract.ErrEntityNotFound)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE kind = %s AND id = %s", entityColumns,
		quoteTableName(entitiesTable, s.backend), placeholder(s.backend, 1), placeholder(s.backend, 2))

	entity, err := s.scanEntity(s.db.QueryRowContext(ctx, query, string(kind), id))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Entity{}, fmt.Errorf("%s %d: %w", kind, id, contract.ErrEntityNotFound)
	}
	if err != nil {
		return schema.Entity{}, fmt.Errorf("failed to get %s %d: %w", kind, id, err)
	}
	return entity, nil
}

// ListEntities returns every entity of a family ordered by id.
func (s *WorkItemStoreImpl) ListEntities(ctx context.Context, kind schema.EntityKind) ([]schema.Entity, error) {
	if s.disabled() {
		return []schema.Entity{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE kind = %s ORDER BY id", entityColumns,
		quoteTableName(entitiesTable, s.backend), placeholder(s.backend, 1))

	rows, err := s.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entities := []schema.Entity{}
	for rows.Next() {
		entity, err := s.scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}
	return entities, nil
}

// GetStatus returns status information about the work item store.
func (s *WorkItemStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.disabled() {
		return status, nil
	}

	for _, table := range storeTables {
		row := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend)))
		var count int64
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalEntities = int(status.TableSizes[entitiesTable])
	status.TotalWorkItems = int(status.TableSizes[workItemsTable])

	if status.TotalWorkItems > 0 {
		last := timeColumn{backend: s.backend}
		row := s.db.QueryRow(fmt.Sprintf("SELECT MAX(closed_date) FROM %s", quoteTableName(workItemsTable, s.backend)))
		if err := row.Scan(last.target()); err != nil {
			return status, fmt.Errorf("failed to get last closed date: %w", err)
		}
		lastClosed, err := last.value()
		if err != nil {
			return status, err
		}
		if lastClosed != nil {
			status.LastClosedDate = *lastClosed
		}
	}

	return status, nil
}

// Close closes the underlying connection.
func (s *WorkItemStoreImpl) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// placeholder returns the i-th bind parameter for the backend.
func placeholder(backend schema.DatabaseBackend, i int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}
