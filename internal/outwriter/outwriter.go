// Package outwriter renders flow metric results as text tables, CSV, JSON or Parquet.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/schema"
)

// OutWriter provides a unified interface for all output operations.
// Text tables go to its stdout; the other formats honor cfg.OutputFile.
type OutWriter struct {
	stdout io.Writer
}

// NewOutWriter creates an output writer whose tables go to os.Stdout.
func NewOutWriter() *OutWriter {
	return &OutWriter{stdout: os.Stdout}
}

// NewOutWriterTo creates an output writer whose tables and messages go to w.
func NewOutWriterTo(w io.Writer) *OutWriter {
	return &OutWriter{stdout: w}
}

// Printf writes a status message next to the tables.
func (ow *OutWriter) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(ow.stdout, format, args...)
}

// WriteRunChart prints a run chart using the configured output format.
func (ow *OutWriter) WriteRunChart(result schema.RunChartResult, cfg *contract.Config, duration time.Duration) error {
	return PrintRunChart(ow.stdout, result, cfg, duration)
}

// WritePercentiles prints a percentile list using the configured output format.
func (ow *OutWriter) WritePercentiles(result schema.PercentileResult, cfg *contract.Config, duration time.Duration) error {
	return PrintPercentiles(ow.stdout, result, cfg, duration)
}

// WriteChart prints a process behaviour chart using the configured output format.
func (ow *OutWriter) WriteChart(result schema.ChartResult, cfg *contract.Config, duration time.Duration) error {
	return PrintChart(ow.stdout, result, cfg, duration)
}

// WriteWorkItems prints work items using the configured output format.
func (ow *OutWriter) WriteWorkItems(items []schema.WorkItem, cfg *contract.Config) error {
	return PrintWorkItems(ow.stdout, items, cfg)
}

// WriteEntities prints registered entities using the configured output format.
func (ow *OutWriter) WriteEntities(entities []schema.Entity, cfg *contract.Config) error {
	return PrintEntities(ow.stdout, entities, cfg)
}
