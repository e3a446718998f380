// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/huangsam/flowpulse/core"
	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	prom "github.com/prometheus/client_golang/prometheus"
)

var (
	kindArg = mcp.WithString("kind",
		mcp.Description("Entity family: team, project or portfolio."),
		mcp.Enum("team", "project", "portfolio"), mcp.Required())
	idArg    = mcp.WithNumber("id", mcp.Description("Entity id."), mcp.Required())
	startArg = mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD, RFC3339 or 'N days ago'). Defaults to the configured start."))
	endArg   = mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD, RFC3339 or 'N days ago'). Defaults to the configured end."))
)

// NewMCPServer initializes and configures the flowpulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, svcs *core.Services) *server.MCPServer {
	s := server.NewMCPServer(
		"Flowpulse Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg, svcs: svcs, now: time.Now}

	s.AddTool(mcp.NewTool("get_run_chart",
		mcp.WithDescription("Daily run chart of throughput, started, created, WIP or total work item age for an entity."),
		kindArg, idArg, startArg, endArg,
		mcp.WithString("metric", mcp.Description("Run chart metric. Defaults to 'throughput'."),
			mcp.Enum("throughput", "started", "created", "wip", "total-age")),
	), h.handleGetRunChart)

	s.AddTool(mcp.NewTool("get_percentiles",
		mcp.WithDescription("Nearest-rank percentiles of cycle time or feature size for items closed in a date range."),
		kindArg, idArg, startArg, endArg,
		mcp.WithString("metric", mcp.Description("Percentile metric. Defaults to 'cycle-time'."), mcp.Enum("cycle-time", "size")),
		mcp.WithString("percentiles", mcp.Description("Comma separated ranks such as '50,85,95'. Defaults to 50,70,85,95.")),
	), h.handleGetPercentiles)

	s.AddTool(mcp.NewTool("get_process_behaviour_chart",
		mcp.WithDescription("XmR process behaviour chart with natural process limits and special cause signals."),
		kindArg, idArg, startArg, endArg,
		mcp.WithString("metric", mcp.Description("Chart metric. Defaults to 'throughput'."),
			mcp.Enum("throughput", "wip", "total-age", "cycle-time", "size")),
	), h.handleGetProcessBehaviourChart)

	s.AddTool(mcp.NewTool("get_current_work_in_progress",
		mcp.WithDescription("Items in progress today with their age in days, oldest first."),
		kindArg, idArg,
	), h.handleGetCurrentWIP)

	s.AddTool(mcp.NewTool("import_work_items",
		mcp.WithDescription("Import work items from CSV text into an entity and drop its cached metrics."),
		kindArg, idArg,
		mcp.WithString("csv", mcp.Description("CSV with a header row; reference_id is required, "+
			"name, state, created, started, closed, cycle_time_days and size are optional."), mcp.Required()),
	), h.handleImportWorkItems)

	s.AddTool(mcp.NewTool("invalidate_metrics",
		mcp.WithDescription("Drop every cached metric of an entity so the next query recomputes it."),
		kindArg, idArg,
	), h.handleInvalidateMetrics)

	return s
}

// StartMCPServer serves the MCP tools over stdio. When metricsAddr is set, the
// Prometheus registry is exposed on it for the lifetime of the server.
func StartMCPServer(ctx context.Context, baseCfg *contract.Config, svcs *core.Services, reg *prom.Registry, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if baseCfg.MetricsAddr != "" && reg != nil {
		go func() {
			if err := metrics.Serve(ctx, baseCfg.MetricsAddr, reg, logger); err != nil {
				logger.Error("metrics endpoint stopped", "addr", baseCfg.MetricsAddr, "error", err)
			}
		}()
	}

	s := NewMCPServer(baseCfg, svcs)
	return server.ServeStdio(s)
}
