// Package cmd defines the command-line interface for flowpulse.
package cmd

import (
	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/iocache"
	"github.com/huangsam/flowpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runChartCmd)
	rootCmd.AddCommand(percentilesCmd)
	rootCmd.AddCommand(pbcCmd)
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(entityCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the current subcommands to the parent current command
	currentCmd.AddCommand(currentWIPCmd)
	currentCmd.AddCommand(currentThroughputCmd)

	// Add the items subcommands to the parent items command
	itemsCmd.AddCommand(itemsImportCmd)
	itemsCmd.AddCommand(itemsListCmd)

	// Add the entity subcommands to the parent entity command
	entityCmd.AddCommand(entityUpsertCmd)
	entityCmd.AddCommand(entityListCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("start", "", "Start date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("end", "", "End date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("kind", string(schema.TeamEntity), "Entity kind: team or project or portfolio")
	rootCmd.PersistentFlags().Int("id", 0, "Entity identifier")
	rootCmd.PersistentFlags().String("metric", "", "Metric name (depends on the command)")
	rootCmd.PersistentFlags().String("percentiles", "", "Comma-separated percentile ranks (e.g. 50,70,85,95)")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().Int("team-refresh-minutes", contract.DefaultTeamRefreshMinutes, "Cache lifetime of team metrics in minutes")
	rootCmd.PersistentFlags().Int("feature-refresh-minutes", contract.DefaultFeatureRefreshMinutes, "Cache lifetime of project, portfolio and feature metrics in minutes")
	rootCmd.PersistentFlags().Bool("clamp-lower-limit", true, "Clamp negative lower natural process limits to zero")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of entityUpsertCmd to Viper
	addEntityFlags(entityUpsertCmd.Flags())

	// Bind all flags of mcpCmd to Viper
	mcpCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	if err := viper.BindPFlags(mcpCmd.Flags()); err != nil {
		contract.LogFatal("Error binding mcp flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", iocache.LatestVersion, "Target schema version (-1 for latest)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding migrate flags", err)
	}
}
