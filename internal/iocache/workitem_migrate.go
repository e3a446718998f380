package iocache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/flowpulse/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// LatestVersion asks MigrateStore to apply every pending migration.
const LatestVersion = -1

// MigrationResult reports what MigrateStore did.
type MigrationResult struct {
	FromVersion uint
	ToVersion   uint
	Changed     bool
}

// migrationsDir maps a backend onto its embedded migration directory.
func migrationsDir(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "migrations/sqlite", nil
	case schema.MySQLBackend:
		return "migrations/mysql", nil
	case schema.PostgreSQLBackend:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("migrations are not supported for %s backend", backend)
	}
}

// MigrateStore runs database migrations for the work item store on its own connection.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations (to initial state).
// - If targetVersion > 0, it migrates to the specified version.
func MigrateStore(backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationResult, error) {
	var result MigrationResult

	dir, err := migrationsDir(backend)
	if err != nil {
		return result, err
	}

	db, driverName, err := openDB(backend, connStr)
	if err != nil {
		return result, err
	}

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to create %s migrate driver: %w", driverName, err)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "flowpulse", driver)
	if err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }() // closes db as well

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}
	result.FromVersion = currentVersion

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return result, fmt.Errorf("failed to migrate to version %d: %w", targetVersion, err)
	}

	result.Changed = err == nil
	result.ToVersion = currentVersion
	if newVersion, _, verr := m.Version(); verr == nil {
		result.ToVersion = newVersion
	} else if errors.Is(verr, migrate.ErrNilVersion) {
		result.ToVersion = 0
	}
	return result, nil
}

// ensureSchema brings a freshly opened store up to the latest schema.
func ensureSchema(backend schema.DatabaseBackend, connStr string) error {
	_, err := MigrateStore(backend, connStr, LatestVersion)
	return err
}

// openDB opens and pings a connection for the backend. SQLite falls back to the default path.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	var (
		db         *sql.DB
		err        error
		driverName string
	)

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, driverName, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		driverName = "mysql"
		dsn, derr := mysqlDSN(connStr)
		if derr != nil {
			return nil, driverName, derr
		}
		db, err = sql.Open(driverName, dsn)
		if err != nil {
			return nil, driverName, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, driverName, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, "", fmt.Errorf("unsupported backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, driverName, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, driverName, nil
}
