package iocache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/flowpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals() {
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager.SetWorkItemStore(nil)
}

func TestInitStore(t *testing.T) {
	t.Run("sqlite setup", func(t *testing.T) {
		resetGlobals()
		dbPath := filepath.Join(t.TempDir(), "global.db")

		require.NoError(t, InitStore(schema.SQLiteBackend, dbPath))
		assert.NotNil(t, Manager.GetWorkItemStore())

		CloseStore()
		_, err := os.Stat(dbPath)
		assert.NoError(t, err, "database file should be created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals()
		dbPath := filepath.Join(t.TempDir(), "global.db")

		assert.NoError(t, InitStore(schema.SQLiteBackend, dbPath))
		assert.NoError(t, InitStore(schema.SQLiteBackend, dbPath))

		CloseStore()
		CloseStore()
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals()
		require.NoError(t, InitStore(schema.NoneBackend, ""))
		assert.NotNil(t, Manager.GetWorkItemStore())
		CloseStore()
	})
}

func TestClearStore(t *testing.T) {
	t.Run("sqlite removes the file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "clear.db")
		store, err := NewWorkItemStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("sqlite requires a path", func(t *testing.T) {
		assert.Error(t, ClearStore(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
	})

	t.Run("unknown backend", func(t *testing.T) {
		assert.Error(t, ClearStore("oracle", "", ""))
	})
}

func TestExecuteStoreExport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	var out bytes.Buffer

	err := ExecuteStoreExport(ctx, &out, store, filepath.Join(t.TempDir(), "empty.parquet"))
	assert.Error(t, err, "empty store has nothing to export")

	_, err = store.SaveWorkItems(ctx, sampleItems())
	require.NoError(t, err)
	require.NoError(t, store.UpsertEntity(ctx, schema.Entity{Kind: schema.TeamEntity, ID: 1, Name: "Platform"}))

	outputFile := filepath.Join(t.TempDir(), "items.parquet")
	require.NoError(t, ExecuteStoreExport(ctx, &out, store, outputFile))
	assert.Contains(t, out.String(), "Exported 2 work items")

	assert.Error(t, ExecuteStoreExport(ctx, &out, store, ""))
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	PrintStoreStatus(&out, schema.StoreStatus{
		Backend: "sqlite", Connected: true, TotalEntities: 1, TotalWorkItems: 3,
		LastClosedDate: time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC),
		TableSizes:     map[string]int64{workItemsTable: 3, entitiesTable: 1},
	})
	assert.Contains(t, out.String(), "Total Work Items: 3")
	assert.Contains(t, out.String(), "flowpulse_entities: 1 rows")

	out.Reset()
	PrintCacheStatus(&out, schema.CacheStatus{TotalEntries: 2, ExpiredEntries: 1})
	assert.Contains(t, out.String(), "Cached Metrics: 2")
}
