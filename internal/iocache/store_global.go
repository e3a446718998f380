package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/schema"
)

// Global instances for main logic.
var (
	Manager = &StoreManager{}
	Metrics = NewMetricsCache()

	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for the work item store.
func GetDBFilePath() string {
	return contract.GetDBFilePath()
}

// InitStore initializes the global work item store exactly once.
func InitStore(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		store, err := NewWorkItemStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize work item store: %w", err)
			return
		}
		Manager.SetWorkItemStore(store)
	})

	return initErr
}

// CloseStore should be called on application shutdown.
func CloseStore() { // called by main on exit
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.store != nil {
			_ = Manager.store.Close()
		}
	})
}

// ClearStore removes all persisted entities and work items.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables and the migration history.
// For NoneBackend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, _, err := openDB(backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return dropTables(db, backend, append(slices.Clone(storeTables), migrationsTable))

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

// dropTables drops each table if it exists.
func dropTables(db *sql.DB, backend schema.DatabaseBackend, tables []string) error {
	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
