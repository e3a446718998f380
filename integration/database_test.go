//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/flowpulse/internal/iocache"
	"github.com/huangsam/flowpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startMySQL starts a MySQL container and returns its connection string.
func startMySQL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "flowpulse",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlC.Terminate(ctx) })

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	return fmt.Sprintf("root:secret123@tcp(%s:%s)/flowpulse?parseTime=true", host, port.Port())
}

// startPostgres starts a PostgreSQL container and returns its connection string.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
}

// exerciseStore runs the work item store contract against a live database.
func exerciseStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	t.Helper()
	ctx := context.Background()

	store, err := iocache.NewWorkItemStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	day := func(d int) *time.Time {
		v := time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	items := []schema.WorkItem{
		{ReferenceID: "FP-1", Name: "Login page", EntityKind: schema.TeamEntity, EntityID: 1,
			State: schema.DoneState, CreatedDate: *day(1), StartedDate: day(2), ClosedDate: day(4), CycleTimeDays: 3},
		{ReferenceID: "FP-2", Name: "Audit trail", EntityKind: schema.TeamEntity, EntityID: 1,
			State: schema.DoingState, CreatedDate: *day(3), StartedDate: day(5)},
		{ReferenceID: "FP-3", Name: "Other team", EntityKind: schema.TeamEntity, EntityID: 2,
			State: schema.ToDoState, CreatedDate: *day(3)},
	}
	saved, err := store.SaveWorkItems(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	// Saving the same reference again updates instead of duplicating.
	items[1].State = schema.DoneState
	items[1].ClosedDate = day(9)
	_, err = store.SaveWorkItems(ctx, items[1:2])
	require.NoError(t, err)

	listed, err := store.ListWorkItems(ctx, schema.TeamEntity, 1)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, item := range listed {
		assert.NotZero(t, item.ID)
		assert.Equal(t, schema.DoneState, item.State)
		require.NotNil(t, item.ClosedDate)
	}

	entity := schema.Entity{
		Kind: schema.ProjectEntity, ID: 7, Name: "Checkout", ThroughputHistoryDays: 60,
		BaselineStart: day(1), BaselineEnd: day(20),
	}
	require.NoError(t, store.UpsertEntity(ctx, entity))
	entity.Name = "Checkout v2"
	require.NoError(t, store.UpsertEntity(ctx, entity))

	got, err := store.GetEntity(ctx, schema.ProjectEntity, 7)
	require.NoError(t, err)
	assert.Equal(t, "Checkout v2", got.Name)
	assert.Equal(t, 60, got.ThroughputHistoryDays)
	require.NotNil(t, got.BaselineStart)
	assert.True(t, got.BaselineStart.Equal(*day(1)))

	entities, err := store.ListEntities(ctx, schema.ProjectEntity)
	require.NoError(t, err)
	assert.Len(t, entities, 1)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 3, status.TotalWorkItems)
	assert.Equal(t, 1, status.TotalEntities)
}

// exerciseCLI runs the CLI end to end against a live database.
func exerciseCLI(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	t.Helper()
	env := []string{
		"HOME=" + t.TempDir(),
		"FLOWPULSE_STORE_BACKEND=" + string(backend),
		"FLOWPULSE_STORE_DB_CONNECT=" + connStr,
		"FLOWPULSE_COLOR=no",
	}

	_, err := runFlowpulse(t, env, "store", "clear")
	require.NoError(t, err)

	_, err = runFlowpulse(t, env, "store", "migrate")
	require.NoError(t, err)

	out, err := runFlowpulse(t, env, "items", "import", writeWorkItems(t), "--kind", "team", "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 6 work items into team 1")

	out, err = runFlowpulse(t, env, "runchart", "--kind", "team", "--id", "1",
		"--start", "2024-03-01", "--end", "2024-03-12", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 4`)

	_, err = runFlowpulse(t, env, "percentiles", "--kind", "team", "--id", "1",
		"--start", "2024-03-01", "--end", "2024-03-12")
	require.NoError(t, err)

	out, err = runFlowpulse(t, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, string(backend))

	exportFile := t.TempDir() + "/work-items.parquet"
	_, err = runFlowpulse(t, env, "store", "export", "--output-file", exportFile)
	require.NoError(t, err)
	assert.FileExists(t, exportFile)
}

// TestFlowpulseWithMySQL tests the store and the CLI with a MySQL backend.
func TestFlowpulseWithMySQL(t *testing.T) {
	connStr := startMySQL(t)

	t.Run("store", func(t *testing.T) { exerciseStore(t, schema.MySQLBackend, connStr) })
	t.Run("cli", func(t *testing.T) { exerciseCLI(t, schema.MySQLBackend, connStr) })
}

// TestFlowpulseWithPostgres tests the store and the CLI with a PostgreSQL backend.
func TestFlowpulseWithPostgres(t *testing.T) {
	connStr := startPostgres(t)

	t.Run("store", func(t *testing.T) { exerciseStore(t, schema.PostgreSQLBackend, connStr) })
	t.Run("cli", func(t *testing.T) { exerciseCLI(t, schema.PostgreSQLBackend, connStr) })
}
