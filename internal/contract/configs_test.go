package contract

import (
	"log/slog"
	"testing"
	"time"

	"github.com/huangsam/flowpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Kind:                  "team",
		ID:                    1,
		Precision:             1,
		Output:                "text",
		Color:                 "yes",
		StoreBackend:          "sqlite",
		TeamRefreshMinutes:    DefaultTeamRefreshMinutes,
		FeatureRefreshMinutes: DefaultFeatureRefreshMinutes,
		LogLevel:              "warn",
		ClampLowerLimit:       true,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid kind", mutate: func(in *ConfigRawInput) { in.Kind = "squad" }, expectError: true},
		{name: "negative id", mutate: func(in *ConfigRawInput) { in.ID = -1 }, expectError: true},
		{name: "invalid precision", mutate: func(in *ConfigRawInput) { in.Precision = 3 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet needs a file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{name: "parquet with file", mutate: func(in *ConfigRawInput) { in.Output = "parquet"; in.OutputFile = "out.parquet" }},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "sometimes" }, expectError: true},
		{name: "invalid log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: true},
		{name: "zero team refresh", mutate: func(in *ConfigRawInput) { in.TeamRefreshMinutes = 0 }, expectError: true},
		{name: "zero feature refresh", mutate: func(in *ConfigRawInput) { in.FeatureRefreshMinutes = 0 }, expectError: true},
		{name: "invalid backend", mutate: func(in *ConfigRawInput) { in.StoreBackend = "oracle" }, expectError: true},
		{name: "mysql without dsn", mutate: func(in *ConfigRawInput) { in.StoreBackend = "mysql" }, expectError: true},
		{name: "bad start", mutate: func(in *ConfigRawInput) { in.Start = "whenever" }, expectError: true},
		{name: "bad percentile", mutate: func(in *ConfigRawInput) { in.Percentiles = "50,abc" }, expectError: true},
		{name: "percentile out of range", mutate: func(in *ConfigRawInput) { in.Percentiles = "0" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)

			cfg := &Config{}
			err := ProcessAndValidate(cfg, input, fixedNow)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	input := validInput()
	input.StoreBackend = ""
	input.Kind = "Portfolio"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input, fixedNow))

	assert.Equal(t, schema.SQLiteBackend, cfg.StoreBackend)
	assert.Equal(t, schema.PortfolioEntity, cfg.Kind)
	assert.Equal(t, fixedNow, cfg.EndTime)
	assert.Equal(t, fixedNow.AddDate(0, 0, -DefaultLookbackDays), cfg.StartTime)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.True(t, cfg.UseColors)
	assert.True(t, cfg.ClampLowerLimit)
	assert.Nil(t, cfg.Ranks)
	assert.Equal(t, 30*time.Minute, cfg.RefreshFor(schema.TeamEntity))
	assert.Equal(t, 60*time.Minute, cfg.RefreshFor(schema.ProjectEntity))
	assert.Equal(t, 60*time.Minute, cfg.RefreshFor(schema.PortfolioEntity))
}

func TestProcessAndValidateTimeRange(t *testing.T) {
	t.Run("explicit dates", func(t *testing.T) {
		input := validInput()
		input.Start = "2024-01-01"
		input.End = "2024-01-31"

		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input, fixedNow))
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartTime)
		assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), cfg.EndTime)
	})

	t.Run("reversed range", func(t *testing.T) {
		input := validInput()
		input.Start = "2024-02-01"
		input.End = "2024-01-01"

		err := ProcessAndValidate(&Config{}, input, fixedNow)
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})

	t.Run("relative start", func(t *testing.T) {
		input := validInput()
		input.Start = "2 weeks ago"

		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(cfg, input, fixedNow))
		assert.Equal(t, fixedNow.AddDate(0, 0, -14), cfg.StartTime)
	})
}

func TestProcessPercentiles(t *testing.T) {
	input := validInput()
	input.Percentiles = " 50, 85 ,95,"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input, fixedNow))
	assert.Equal(t, []float64{50, 85, 95}, cfg.Ranks)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite needs nothing", schema.SQLiteBackend, "", false},
		{"none needs nothing", schema.NoneBackend, "", false},
		{"valid mysql", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/flowpulse", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/flowpulse", true},
		{"mysql missing database", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"valid postgresql", schema.PostgreSQLBackend, "host=localhost port=5432 user=u password=p dbname=flowpulse", false},
		{"postgresql missing host", schema.PostgreSQLBackend, "dbname=flowpulse", true},
		{"postgresql missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgresql empty", schema.PostgreSQLBackend, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
