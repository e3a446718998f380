package iocache

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/flowpulse/schema"
)

// Table names for the work item store.
const (
	entitiesTable  = "flowpulse_entities"
	workItemsTable = "flowpulse_work_items"

	// migrationsTable is maintained by golang-migrate.
	migrationsTable = "schema_migrations"
)

// storeTables lists the tables reported by status and dropped by clear.
var storeTables = []string{entitiesTable, workItemsTable}

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName validates that the table name is a safe SQL identifier.
func validateTableName(name string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("invalid table name: %q (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return fmt.Sprintf("`%s`", name)
	}
	return fmt.Sprintf("%q", name)
}

// placeholders returns n bind parameters for the backend, starting at 1.
func placeholders(backend schema.DatabaseBackend, n int) string {
	parts := make([]string, n)
	for i := range parts {
		if backend == schema.PostgreSQLBackend {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(connStr string) (string, error) {
	cfg, err := mysql.ParseDSN(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}

// sqliteTimeFormat is fixed width so that stored UTC times sort lexically.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(sqliteTimeFormat)
	}
	return t
}

// formatOptionalTime is formatTime for nullable columns.
func formatOptionalTime(t *time.Time, backend schema.DatabaseBackend) any {
	if t == nil {
		return nil
	}
	return formatTime(*t, backend)
}

// timeColumn scans a date column from any backend: SQLite stores RFC3339 text,
// MySQL and PostgreSQL native timestamps.
type timeColumn struct {
	backend schema.DatabaseBackend
	text    sql.NullString
	native  sql.NullTime
}

func (c *timeColumn) target() any {
	if c.backend == schema.SQLiteBackend {
		return &c.text
	}
	return &c.native
}

// value returns nil for SQL NULL.
func (c *timeColumn) value() (*time.Time, error) {
	if c.backend == schema.SQLiteBackend {
		if !c.text.Valid {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, c.text.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored time %q: %w", c.text.String, err)
		}
		return &t, nil
	}
	if !c.native.Valid {
		return nil, nil
	}
	t := c.native.Time
	return &t, nil
}

// upsertWorkItemQuery inserts or replaces a work item keyed by entity and reference id.
func upsertWorkItemQuery(backend schema.DatabaseBackend) string {
	table := quoteTableName(workItemsTable, backend)
	columns := "reference_id, name, entity_kind, entity_id, state, created_date, started_date, closed_date, cycle_time_days, size"
	values := placeholders(backend, 10)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE name = new.name, state = new.state, created_date = new.created_date,
			started_date = new.started_date, closed_date = new.closed_date, cycle_time_days = new.cycle_time_days, size = new.size`,
			table, columns, values)
	default: // SQLite and PostgreSQL share the ON CONFLICT syntax
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (entity_kind, entity_id, reference_id) DO UPDATE SET name = excluded.name, state = excluded.state,
			created_date = excluded.created_date, started_date = excluded.started_date, closed_date = excluded.closed_date,
			cycle_time_days = excluded.cycle_time_days, size = excluded.size`,
			table, columns, values)
	}
}

// upsertEntityQuery inserts or replaces an entity keyed by kind and id.
func upsertEntityQuery(backend schema.DatabaseBackend) string {
	table := quoteTableName(entitiesTable, backend)
	columns := "kind, id, name, throughput_history_days, throughput_start, throughput_end, baseline_start, baseline_end, done_items_cutoff_days"
	values := placeholders(backend, 9)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE name = new.name, throughput_history_days = new.throughput_history_days,
			throughput_start = new.throughput_start, throughput_end = new.throughput_end,
			baseline_start = new.baseline_start, baseline_end = new.baseline_end, done_items_cutoff_days = new.done_items_cutoff_days`,
			table, columns, values)
	default:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (kind, id) DO UPDATE SET name = excluded.name, throughput_history_days = excluded.throughput_history_days,
			throughput_start = excluded.throughput_start, throughput_end = excluded.throughput_end,
			baseline_start = excluded.baseline_start, baseline_end = excluded.baseline_end, done_items_cutoff_days = excluded.done_items_cutoff_days`,
			table, columns, values)
	}
}
