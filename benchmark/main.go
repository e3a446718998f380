// Package main provides a performance benchmarking tool for the flowpulse CLI.
// It generates synthetic work item histories of increasing size, imports each one
// into an isolated SQLite store and times the metric commands against it, running
// each command multiple times and treating the first successful run as cold.
//
// Prerequisites:
// - flowpulse binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Scratch directory for generated datasets and stores
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset  string
	Command  string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir  string
	Timeout  time.Duration
	Runs     int
	Datasets map[string]int
	Order    []string
	Window   [2]string
	Commands map[string][]string
	Names    []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir: os.Args[1],
		Timeout: 2 * time.Minute,
		Runs:    4,
		Datasets: map[string]int{
			"small":  1_000,
			"medium": 10_000,
			"large":  50_000,
		},
		Order:  []string{"small", "medium", "large"},
		Window: [2]string{"2023-01-01", "2023-12-31"},
		Commands: map[string][]string{
			"runchart":    {"runchart", "--metric", "throughput"},
			"wip":         {"runchart", "--metric", "wip"},
			"percentiles": {"percentiles", "--metric", "cycle-time"},
			"pbc":         {"pbc", "--metric", "throughput"},
		},
		Names: []string{"runchart", "wip", "percentiles", "pbc"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the flowpulse binary and work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("flowpulse"); err != nil {
		return fmt.Errorf("flowpulse binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// generateDataset writes a CSV of n work items spread over a year.
// Roughly 80% of the items are closed, 15% in progress and the rest not started.
func generateDataset(path string, n int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"reference_id", "name", "created", "started", "closed"}); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(42, uint64(n)))
	origin := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		created := origin.AddDate(0, 0, rng.IntN(330))
		started := created.AddDate(0, 0, rng.IntN(5))
		closed := started.AddDate(0, 0, 1+rng.IntN(20))

		startedCol, closedCol := started.Format(time.DateOnly), closed.Format(time.DateOnly)
		switch roll := rng.IntN(100); {
		case roll >= 95:
			startedCol, closedCol = "", ""
		case roll >= 80:
			closedCol = ""
		}
		record := []string{
			"BENCH-" + strconv.Itoa(i+1),
			"Benchmark item " + strconv.Itoa(i+1),
			created.Format(time.DateOnly),
			startedCol,
			closedCol,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

// runBenchmarks imports each dataset and times every configured command against it
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d runs\n",
		len(config.Order), config.Timeout, config.Runs)

	for _, dataset := range config.Order {
		size := config.Datasets[dataset]
		fmt.Printf("Benchmarking %s (%d items)\n", dataset, size)

		home := filepath.Join(config.WorkDir, dataset)
		if err := os.MkdirAll(home, 0o755); err != nil {
			fmt.Printf("  Skipping: %v\n", err)
			continue
		}
		env := append(os.Environ(), "HOME="+home, "FLOWPULSE_STORE_BACKEND=sqlite", "FLOWPULSE_COLOR=no")

		csvPath := filepath.Join(home, "items.csv")
		if err := generateDataset(csvPath, size); err != nil {
			fmt.Printf("  Skipping: failed to generate dataset: %v\n", err)
			continue
		}

		// Clear the store so that each dataset starts from an empty database
		if output, err := runCommand(config, env, "store", "clear"); err != nil {
			fmt.Printf("  Warning: failed to clear store: %v\nOutput: %s\n", err, string(output))
		}

		importStart := time.Now()
		if output, err := runCommand(config, env, "items", "import", csvPath, "--kind", "team", "--id", "1"); err != nil {
			fmt.Printf("  Skipping: import failed: %v\nOutput: %s\n", err, string(output))
			continue
		}
		results = append(results, BenchmarkResult{
			Dataset:  dataset,
			Command:  "import",
			ColdTime: fmt.Sprintf("%.3fs", time.Since(importStart).Seconds()),
			WarmTime: "n/a",
		})

		for _, name := range config.Names {
			results = append(results, runBenchmarkSuite(config, env, dataset, name))
		}
	}

	return results
}

// runBenchmarkSuite times one command on one dataset
func runBenchmarkSuite(config BenchmarkConfig, env []string, dataset, name string) BenchmarkResult {
	args := append([]string{}, config.Commands[name]...)
	args = append(args, "--kind", "team", "--id", "1", "--start", config.Window[0], "--end", config.Window[1])

	fmt.Printf("  %s (%d runs)\n", name, config.Runs)
	var times []float64
	for range config.Runs {
		start := time.Now()
		if _, err := runCommand(config, env, args...); err == nil {
			times = append(times, time.Since(start).Seconds())
		}
	}

	result := BenchmarkResult{Dataset: dataset, Command: name, ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
	if len(times) > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}
	fmt.Printf("    Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
	return result
}

// runCommand executes flowpulse with a timeout and returns its combined output
func runCommand(config BenchmarkConfig, env []string, args ...string) ([]byte, error) {
	cmd := exec.Command("flowpulse", args...)
	cmd.Env = env

	done := make(chan struct{})
	var output []byte
	var cmdErr error

	go func() {
		output, cmdErr = cmd.CombinedOutput()
		close(done)
	}()

	select {
	case <-done:
		return output, cmdErr
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		<-done
		return output, fmt.Errorf("timed out after %v", config.Timeout)
	}
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/flowpulse_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, name := range append([]string{"import"}, config.Names...) {
		fmt.Printf("%s:\n", name)
		for _, result := range results {
			if result.Command == name {
				fmt.Printf("  %-8s: Cold: %s, Warm: %s\n", result.Dataset, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
