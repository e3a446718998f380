package cmd

import (
	"github.com/huangsam/flowpulse/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the flowpulse MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents query flow metrics and
import work items via standard tools.

Results are cached per entity for the configured refresh interval. With
--metrics-addr, cache and compute metrics are served for Prometheus at /metrics.

Examples:
  flowpulse mcp
  flowpulse mcp --metrics-addr :9090 --log-level info`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, services, registry, logger)
	},
}
