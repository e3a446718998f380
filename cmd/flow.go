package cmd

import (
	"github.com/huangsam/flowpulse/core"
	"github.com/spf13/cobra"
)

// runChartCmd prints a daily run chart.
var runChartCmd = &cobra.Command{
	Use:   "runchart",
	Short: "Show a daily run chart of a flow metric.",
	Long: `Count work items per calendar day for one team, project or portfolio.

Metrics:
  throughput - items closed on each day (default)
  started    - items started on each day
  created    - items created on each day
  wip        - items in progress at the end of each day
  total-age  - summed age of the items in progress on each day

Each day lists the ids of the items that contributed to it.

Examples:
  # Throughput of team 3 over the last 30 days
  flowpulse runchart --kind team --id 3

  # WIP of project 7 during Q1
  flowpulse runchart --kind project --id 7 --metric wip --start 2024-01-01 --end 2024-03-31

  # Export to CSV
  flowpulse runchart --id 3 --output csv --output-file throughput.csv`,
	PreRunE: sharedSetupWrapper,
	Run:     runWith("Cannot build run chart", core.ExecuteRunChart),
}

// percentilesCmd prints cycle time or size percentiles.
var percentilesCmd = &cobra.Command{
	Use:   "percentiles",
	Short: "Show cycle time or feature size percentiles.",
	Long: `Compute nearest-rank percentiles over the items closed within the date range.

Metrics:
  cycle-time - days from start to close, counting both days (default)
  size       - child item count of closed features

Items with a zero value are ignored. The default ranks are 50, 70, 85 and 95.

Examples:
  # Cycle time percentiles of team 3
  flowpulse percentiles --id 3

  # Feature size for portfolio 2 at custom ranks
  flowpulse percentiles --kind portfolio --id 2 --metric size --percentiles 50,90`,
	PreRunE: sharedSetupWrapper,
	Run:     runWith("Cannot compute percentiles", core.ExecutePercentiles),
}

// pbcCmd prints a process behaviour chart.
var pbcCmd = &cobra.Command{
	Use:   "pbc",
	Short: "Show an XmR process behaviour chart.",
	Long: `Compute natural process limits from a baseline and classify every point of the
display window.

Signals, strongest first:
  LargeChange    - a point outside the natural process limits
  ModerateChange - two of three successive points beyond two sigma on the same side
  ModerateShift  - four of five successive points beyond one sigma on the same side
  SmallShift     - eight successive points on the same side of the average

The baseline comes from the entity settings (see 'flowpulse entity upsert'); when none
is configured, the display window is used. A baseline must cover at least 14 days and
must not end in the future.

Metrics: throughput (default), wip, total-age, cycle-time, size.

Examples:
  # Throughput chart of team 3
  flowpulse pbc --id 3 --start 2024-01-01 --end 2024-03-31

  # Cycle time chart without clamping the lower limit
  flowpulse pbc --id 3 --metric cycle-time --clamp-lower-limit=false`,
	PreRunE: sharedSetupWrapper,
	Run:     runWith("Cannot build process behaviour chart", core.ExecuteProcessBehaviourChart),
}

// currentCmd groups the date-free queries.
var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show today's work in progress and recent throughput",
}

// currentWIPCmd lists the items in progress today.
var currentWIPCmd = &cobra.Command{
	Use:   "wip",
	Short: "List the items in progress today, oldest first.",
	Long: `List the items in progress with their age in days, oldest first, followed by
their total work item age. Items without a start date age from their creation.

Examples:
  flowpulse current wip --kind team --id 3`,
	PreRunE: sharedSetupWrapper,
	Run:     runWith("Cannot list work in progress", core.ExecuteCurrentWIP),
}

// currentThroughputCmd prints throughput over the entity's history window.
var currentThroughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Show throughput over the entity's configured history window.",
	Long: `Show throughput over the fixed window configured for the entity, or over the
trailing history days ending today when no fixed window is set.

Examples:
  flowpulse current throughput --kind team --id 3`,
	PreRunE: sharedSetupWrapper,
	Run:     runWith("Cannot compute current throughput", core.ExecuteCurrentThroughput),
}
