package cmd

import (
	"github.com/huangsam/flowpulse/core"
	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/ingest"
	"github.com/spf13/cobra"
)

// itemsCmd groups the work item commands.
var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Import and list work items",
	Long: `Manage the work items metrics are computed from.

Subcommands:
  import - Load work items from a CSV export
  list   - Show the stored work items of an entity`,
}

// itemsImportCmd loads a CSV file into the store.
var itemsImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import work items from a CSV file",
	Long: `Import work items for one entity from a CSV file with a header row.

Columns (only reference_id is required):
  reference_id    - tracker key, unique per entity
  name            - title of the item
  state           - todo, doing or done (inferred from the dates when blank)
  created         - creation timestamp
  started         - timestamp the item left the backlog
  closed          - timestamp the item was finished
  cycle_time_days - precomputed cycle time (derived from the dates when blank)
  size            - child item count, used for features

Timestamps may be RFC3339, 2006-01-02T15:04:05 or a plain date.
Re-importing an item with the same reference_id replaces it. Cached metrics of the
entity are dropped after the import.

Examples:
  flowpulse items import --kind team --id 3 items.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		items, err := ingest.ReadWorkItemsFile(args[0], cfg.Kind, cfg.EntityID)
		if err != nil {
			contract.LogFatal("Cannot read work items", err)
		}
		if err := core.ExecuteItemsImport(rootCtx, cfg, services, items); err != nil {
			contract.LogFatal("Cannot import work items", err)
		}
	},
}

// itemsListCmd prints the stored work items of an entity.
var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored work items of an entity",
	Long: `List every stored work item of one entity.

The CSV output uses the same columns as the importer, so it can be edited and
imported again.

Examples:
  flowpulse items list --kind team --id 3
  flowpulse items list --id 3 --output parquet --output-file items.parquet`,
	PreRunE: sharedSetupWrapper,
	Run:     runWith("Cannot list work items", core.ExecuteItemsList),
}
