package contract

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/flowpulse/schema"
)

// Default values for configuration.
const (
	DefaultLookbackDays          = 30
	DefaultPrecision             = 1
	DefaultTeamRefreshMinutes    = 30
	DefaultFeatureRefreshMinutes = 60
)

// Config holds the runtime configuration for metric queries.
// This struct remains the "final, validated" config.
type Config struct {
	StartTime  time.Time
	EndTime    time.Time
	Kind       schema.EntityKind
	EntityID   int
	Metric     string
	Ranks      []float64
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int  // Terminal width override (0 = auto-detect)
	UseColors  bool // Enable colored labels in table output

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	TeamRefresh    time.Duration
	FeatureRefresh time.Duration

	ClampLowerLimit bool
	LogLevel        slog.Level
	MetricsAddr     string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Start                 string `mapstructure:"start"`
	End                   string `mapstructure:"end"`
	Kind                  string `mapstructure:"kind"`
	ID                    int    `mapstructure:"id"`
	Precision             int    `mapstructure:"precision"`
	Output                string `mapstructure:"output"`
	OutputFile            string `mapstructure:"output-file"`
	Width                 int    `mapstructure:"width"`
	Color                 string `mapstructure:"color"`
	StoreBackend          string `mapstructure:"store-backend"`
	StoreDBConnect        string `mapstructure:"store-db-connect"`
	TeamRefreshMinutes    int    `mapstructure:"team-refresh-minutes"`
	FeatureRefreshMinutes int    `mapstructure:"feature-refresh-minutes"`
	LogLevel              string `mapstructure:"log-level"`

	// --- Fields from metric command flags ---
	Metric          string `mapstructure:"metric"`
	Percentiles     string `mapstructure:"percentiles"`
	ClampLowerLimit bool   `mapstructure:"clamp-lower-limit"`

	// --- Fields from mcpCmd.Flags() ---
	MetricsAddr string `mapstructure:"metrics-addr"`
}

// RefreshFor returns the cache lifetime of a family: teams use the team refresh,
// projects and portfolios the feature refresh.
func (c *Config) RefreshFor(kind schema.EntityKind) time.Duration {
	if kind == schema.TeamEntity {
		return c.TeamRefresh
	}
	return c.FeatureRefresh
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input, now); err != nil {
		return err
	}
	return processPercentiles(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfig validates the work item store backend.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateSimpleInputs processes and validates all non-date fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.EntityID = input.ID
	cfg.Metric = strings.ToLower(strings.TrimSpace(input.Metric))
	cfg.ClampLowerLimit = input.ClampLowerLimit
	cfg.MetricsAddr = input.MetricsAddr

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	cfg.Kind = schema.EntityKind(strings.ToLower(input.Kind))
	if _, ok := schema.ValidEntityKinds[cfg.Kind]; !ok {
		return fmt.Errorf("invalid kind '%s'. must be team, project, portfolio", input.Kind)
	}
	if input.ID < 0 {
		return fmt.Errorf("id must not be negative (received %d)", input.ID)
	}

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	if input.TeamRefreshMinutes <= 0 {
		return fmt.Errorf("team-refresh-minutes must be greater than 0 (received %d)", input.TeamRefreshMinutes)
	}
	if input.FeatureRefreshMinutes <= 0 {
		return fmt.Errorf("feature-refresh-minutes must be greater than 0 (received %d)", input.FeatureRefreshMinutes)
	}
	cfg.TeamRefresh = time.Duration(input.TeamRefreshMinutes) * time.Minute
	cfg.FeatureRefresh = time.Duration(input.FeatureRefreshMinutes) * time.Minute

	return nil
}

// processTimeRange handles date parsing and time range validation.
// The window defaults to the last DefaultLookbackDays days ending today.
func processTimeRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.EndTime = now
	cfg.StartTime = now.AddDate(0, 0, -DefaultLookbackDays)

	if input.Start != "" {
		t, err := ParseDateInput(input.Start, now)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		cfg.StartTime = t
	}
	if input.End != "" {
		t, err := ParseDateInput(input.End, now)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
		cfg.EndTime = t
	}

	return ValidateDateRange(cfg.StartTime, cfg.EndTime)
}

// processPercentiles parses a list like "50,85,95"; empty means the canonical ranks.
func processPercentiles(cfg *Config, input *ConfigRawInput) error {
	cfg.Ranks = nil
	if strings.TrimSpace(input.Percentiles) == "" {
		return nil
	}
	for part := range strings.SplitSeq(input.Percentiles, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return fmt.Errorf("invalid percentile '%s': %w", part, err)
		}
		if p <= 0 || p > 100 {
			return fmt.Errorf("percentile must be in (0, 100] (received %s)", part)
		}
		cfg.Ranks = append(cfg.Ranks, p)
	}
	return nil
}
