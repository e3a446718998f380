package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/flowpulse/core"
	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/iocache"
	"github.com/huangsam/flowpulse/internal/metrics"
	"github.com/huangsam/flowpulse/schema"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// services answers metric queries once sharedSetup has run.
var services *core.Services

// registry collects the Prometheus metrics of the process.
var registry *prom.Registry

// logger is the structured logger configured by --log-level.
var logger = contract.DiscardLogger()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "flowpulse",
	Short: "Flow metrics for teams, projects and portfolios.",
	Long: `Flowpulse turns work item history into flow metrics: throughput, work in progress,
cycle time and size percentiles, and process behaviour charts that separate signal from noise.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// configureConfigFile points viper at an explicit file or at .flowpulse.yaml in . or $HOME.
func configureConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".flowpulse")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configureConfigFile()

	viper.SetEnvPrefix("FLOWPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("kind", string(schema.TeamEntity))
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", string(schema.TextOut))
	viper.SetDefault("store-backend", string(schema.SQLiteBackend))
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("team-refresh-minutes", contract.DefaultTeamRefreshMinutes)
	viper.SetDefault("feature-refresh-minutes", contract.DefaultFeatureRefreshMinutes)
	viper.SetDefault("clamp-lower-limit", true)
	viper.SetDefault("color", "yes")
	viper.SetDefault("log-level", "warn")
}

// sharedSetup unmarshals config, runs validation and wires the metrics services.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input, time.Now()); err != nil {
		return err
	}
	logger = contract.NewLogger(cfg.LogLevel, os.Stderr)

	// 4. Initialize persistence layer with validated config
	if err := iocache.InitStore(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	registry = prom.NewRegistry()
	services = core.NewServices(cfg, iocache.Metrics, iocache.Manager.GetWorkItemStore(), nil,
		core.WithLogger(logger),
		core.WithRecorder(metrics.NewPrometheusRecorder(registry)),
	)
	logger.Debug("configured", "backend", cfg.StoreBackend, "kind", cfg.Kind, "id", cfg.EntityID,
		"start", cfg.StartTime.Format(contract.DateFormat), "end", cfg.EndTime.Format(contract.DateFormat))
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile reads the config file if one exists.
func loadConfigFile() error {
	configureConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// runWith adapts an executor to cobra, exiting on failure.
func runWith(action string, exec core.ExecutorFunc) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		if err := exec(rootCtx, cfg, services); err != nil {
			contract.LogFatal(action, err)
		}
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
