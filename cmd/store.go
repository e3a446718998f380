package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/iocache"
	"github.com/huangsam/flowpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeConfig reads the backend settings without the full shared setup.
func storeConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("store-backend")))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for store operations and opens the store.
func storeSetup() error {
	backend, connStr, err := storeConfig()
	if err != nil {
		return err
	}
	if err := iocache.InitStore(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup reads the backend settings without opening the store, so that
// migrations can run against a fresh or outdated database.
func storeMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeConfig()
	if err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeCmd focused on work item store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of the
// full sharedSetup, so that a broken date or output flag cannot block maintenance.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the work item store",
	Long: `Manage the database holding entities and work items.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show store statistics
  export  - Export every work item to Parquet
  clear   - Remove all entities and work items
  migrate - Run database schema migrations

Examples:
  # Check store status
  flowpulse store status

  # Use PostgreSQL via the environment
  FLOWPULSE_STORE_BACKEND=postgresql FLOWPULSE_STORE_DB_CONNECT="host=localhost dbname=flow" flowpulse store status`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, connection state, entity and work item counts, the most
recent closed date and the row count of every table.

Examples:
  flowpulse store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetWorkItemStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
		iocache.PrintCacheStatus(os.Stdout, iocache.Metrics.Status())
	},
}

// storeClearCmd removes the stored data.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entities and work items",
	Long: `Delete every stored entity and work item.

For SQLite the database file is removed; for MySQL and PostgreSQL the tables and the
migration history are dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  flowpulse store export --output-file backup.parquet
  flowpulse store clear`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearStore(cfg.StoreBackend, iocache.GetDBFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Work item store cleared successfully.")
	},
}

// storeExportCmd exports the work items to Parquet.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every work item to Parquet for BI tools and analytics",
	Long: `Export the work items of every registered entity to a single Parquet file.

Requires: --output-file parameter

Examples:
  flowpulse store export --output-file work-items.parquet
  duckdb -c "SELECT entity_kind, count(*) FROM read_parquet('work-items.parquet') GROUP BY 1"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetWorkItemStore()
		if err := iocache.ExecuteStoreExport(rootCtx, os.Stdout, store, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export work items", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the work item store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the work item store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  flowpulse store migrate

  # Migrate to specific version
  flowpulse store migrate --target-version 1

  # Rollback every migration
  flowpulse store migrate --target-version 0`,
	PreRunE: storeMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := iocache.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !result.Changed {
			fmt.Printf("Store schema already at version %d.\n", result.ToVersion)
			return
		}
		fmt.Printf("Migrated store schema from version %d to %d.\n", result.FromVersion, result.ToVersion)
	},
}
