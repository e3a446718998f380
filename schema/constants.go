package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the work item store.
	DatabaseBackend string

	// EntityKind represents the family an entity belongs to.
	EntityKind string

	// StateCategory represents the normalized lifecycle state of a work item.
	StateCategory string

	// MetricName identifies a metric within the per-entity metrics cache.
	MetricName string

	// BaselineStatus represents whether a process behaviour chart could be built.
	BaselineStatus string

	// XAxisKind represents how the x values of a process behaviour chart are encoded.
	XAxisKind string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All entity families.
const (
	TeamEntity      EntityKind = "team"
	ProjectEntity   EntityKind = "project"
	PortfolioEntity EntityKind = "portfolio"
)

// All state categories.
const (
	ToDoState  StateCategory = "todo"
	DoingState StateCategory = "doing"
	DoneState  StateCategory = "done"
)

// Metric identifiers used as the second half of a cache key.
const (
	ThroughputMetric       MetricName = "Throughput"
	StartedMetric          MetricName = "Started"
	CreatedMetric          MetricName = "Created"
	WIPOverTimeMetric      MetricName = "WIPOverTime"
	TotalAgeOverTimeMetric MetricName = "TotalAgeOverTime"
	CycleTimeMetric        MetricName = "CycleTimePercentiles"
	SizeMetric             MetricName = "SizePercentiles"
	CurrentWIPMetric       MetricName = "WIP"
	CurrentThroughput      MetricName = "CurrentThroughput"
	TotalAgeMetric         MetricName = "TotalWorkItemAge"
	ThroughputPBCMetric    MetricName = "ThroughputPBC"
	WIPPBCMetric           MetricName = "WIPPBC"
	TotalAgePBCMetric      MetricName = "TotalAgePBC"
	CycleTimePBCMetric     MetricName = "CycleTimePBC"
	SizePBCMetric          MetricName = "SizePBC"
)

// All baseline statuses.
const (
	BaselineReady       BaselineStatus = "ready"
	BaselineInvalid     BaselineStatus = "baseline_invalid"
	BaselineNoData      BaselineStatus = "insufficient_data"
	BaselineUnavailable BaselineStatus = "unavailable"
)

// All x axis kinds.
const (
	DateAxis     XAxisKind = "date"
	DateTimeAxis XAxisKind = "datetime"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidEntityKinds lists all valid entity families.
var ValidEntityKinds = map[EntityKind]struct{}{
	TeamEntity:      {},
	ProjectEntity:   {},
	PortfolioEntity: {},
}

// ValidStateCategories lists all valid state categories.
var ValidStateCategories = map[StateCategory]struct{}{
	ToDoState:  {},
	DoingState: {},
	DoneState:  {},
}

// CanonicalPercentiles are the ranks reported for cycle time and size.
var CanonicalPercentiles = []float64{50, 70, 85, 95}

// RunChartMetrics maps CLI metric names onto run chart metrics.
var RunChartMetrics = map[string]MetricName{
	"throughput": ThroughputMetric,
	"started":    StartedMetric,
	"created":    CreatedMetric,
	"wip":        WIPOverTimeMetric,
	"total-age":  TotalAgeOverTimeMetric,
}

// PercentileMetrics maps CLI metric names onto percentile metrics.
var PercentileMetrics = map[string]MetricName{
	"cycle-time": CycleTimeMetric,
	"size":       SizeMetric,
}

// PBCMetrics maps CLI metric names onto process behaviour chart metrics.
var PBCMetrics = map[string]MetricName{
	"throughput": ThroughputPBCMetric,
	"wip":        WIPPBCMetric,
	"total-age":  TotalAgePBCMetric,
	"cycle-time": CycleTimePBCMetric,
	"size":       SizePBCMetric,
}
