package iocache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *WorkItemStoreImpl {
	t.Helper()
	store, err := NewWorkItemStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptrTime(t time.Time) *time.Time { return &t }

func sampleItems() []schema.WorkItem {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return []schema.WorkItem{
		{
			ReferenceID: "FP-1", Name: "Login page", EntityKind: schema.TeamEntity, EntityID: 1,
			State: schema.DoneState, CreatedDate: created,
			StartedDate: ptrTime(created.Add(24 * time.Hour)), ClosedDate: ptrTime(created.Add(72 * time.Hour)),
			CycleTimeDays: 3,
		},
		{
			ReferenceID: "FP-2", Name: "Logout", EntityKind: schema.TeamEntity, EntityID: 1,
			State: schema.DoingState, CreatedDate: created, StartedDate: ptrTime(created.Add(48 * time.Hour)),
		},
		{
			ReferenceID: "EPIC-9", Name: "Auth revamp", EntityKind: schema.ProjectEntity, EntityID: 1,
			State: schema.ToDoState, CreatedDate: created, Size: 12,
		},
	}
}

func TestWorkItemStore_NoneBackend(t *testing.T) {
	store, err := NewWorkItemStore(schema.NoneBackend, "")
	require.NoError(t, err)
	ctx := context.Background()

	n, err := store.SaveWorkItems(ctx, sampleItems())
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	items, err := store.ListWorkItems(ctx, schema.TeamEntity, 1)
	assert.NoError(t, err)
	assert.Empty(t, items)

	_, err = store.GetEntity(ctx, schema.TeamEntity, 1)
	assert.ErrorIs(t, err, contract.ErrEntityNotFound)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestWorkItemStore_InvalidBackend(t *testing.T) {
	_, err := NewWorkItemStore("oracle", "")
	assert.Error(t, err)
}

func TestWorkItemStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.SaveWorkItems(ctx, sampleItems())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	items, err := store.ListWorkItems(ctx, schema.TeamEntity, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Positive(t, first.ID)
	assert.Equal(t, "FP-1", first.ReferenceID)
	assert.Equal(t, schema.DoneState, first.State)
	assert.Equal(t, 3, first.CycleTimeDays)
	require.NotNil(t, first.ClosedDate)
	assert.True(t, time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC).Equal(*first.ClosedDate))
	assert.Nil(t, items[1].ClosedDate)

	projectItems, err := store.ListWorkItems(ctx, schema.ProjectEntity, 1)
	require.NoError(t, err)
	require.Len(t, projectItems, 1)
	assert.Equal(t, 12, projectItems[0].Size)

	none, err := store.ListWorkItems(ctx, schema.PortfolioEntity, 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWorkItemStore_UpsertReplacesByReference(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveWorkItems(ctx, sampleItems())
	require.NoError(t, err)

	updated := sampleItems()[1]
	updated.State = schema.DoneState
	updated.ClosedDate = ptrTime(time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC))
	_, err = store.SaveWorkItems(ctx, []schema.WorkItem{updated})
	require.NoError(t, err)

	items, err := store.ListWorkItems(ctx, schema.TeamEntity, 1)
	require.NoError(t, err)
	require.Len(t, items, 2, "upsert must not duplicate rows")
	assert.Equal(t, schema.DoneState, items[1].State)
	require.NotNil(t, items[1].ClosedDate)
}

func TestWorkItemStore_Entities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	baselineStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	team := schema.Entity{
		Kind: schema.TeamEntity, ID: 1, Name: "Platform", ThroughputHistoryDays: 30,
		BaselineStart: &baselineStart, BaselineEnd: ptrTime(baselineStart.AddDate(0, 0, 20)),
	}
	require.NoError(t, store.UpsertEntity(ctx, team))
	require.NoError(t, store.UpsertEntity(ctx, schema.Entity{Kind: schema.TeamEntity, ID: 2, Name: "Mobile"}))

	got, err := store.GetEntity(ctx, schema.TeamEntity, 1)
	require.NoError(t, err)
	assert.Equal(t, "Platform", got.Name)
	assert.Equal(t, 30, got.ThroughputHistoryDays)
	require.NotNil(t, got.BaselineStart)
	assert.True(t, baselineStart.Equal(*got.BaselineStart))
	assert.Nil(t, got.ThroughputStart)

	team.Name = "Platform Core"
	require.NoError(t, store.UpsertEntity(ctx, team))
	got, err = store.GetEntity(ctx, schema.TeamEntity, 1)
	require.NoError(t, err)
	assert.Equal(t, "Platform Core", got.Name)

	_, err = store.GetEntity(ctx, schema.ProjectEntity, 1)
	assert.ErrorIs(t, err, contract.ErrEntityNotFound)

	teams, err := store.ListEntities(ctx, schema.TeamEntity)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 1, teams[0].ID)
	assert.Equal(t, 2, teams[1].ID)
}

func TestWorkItemStore_Status(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalWorkItems)

	_, err = store.SaveWorkItems(ctx, sampleItems())
	require.NoError(t, err)
	require.NoError(t, store.UpsertEntity(ctx, schema.Entity{Kind: schema.TeamEntity, ID: 1, Name: "Platform"}))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 3, status.TotalWorkItems)
	assert.Equal(t, 1, status.TotalEntities)
	assert.True(t, time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC).Equal(status.LastClosedDate))
	assert.Equal(t, int64(3), status.TableSizes[workItemsTable])
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`flowpulse_entities`", quoteTableName(entitiesTable, schema.MySQLBackend))
	assert.Equal(t, `"flowpulse_entities"`, quoteTableName(entitiesTable, schema.PostgreSQLBackend))
	assert.Equal(t, `"flowpulse_entities"`, quoteTableName(entitiesTable, schema.SQLiteBackend))
}

func TestValidateTableName(t *testing.T) {
	assert.NoError(t, validateTableName("flowpulse_work_items"))
	assert.Error(t, validateTableName(""))
	assert.Error(t, validateTableName("items; DROP TABLE x"))
	assert.Error(t, validateTableName("1items"))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 3))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "$2", placeholder(schema.PostgreSQLBackend, 2))
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("user:pass@tcp(localhost:3306)/flowpulse")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}
