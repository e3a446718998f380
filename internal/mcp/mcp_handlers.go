package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/flowpulse/core"
	"github.com/huangsam/flowpulse/internal/contract"
	"github.com/huangsam/flowpulse/internal/ingest"
	"github.com/huangsam/flowpulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	svcs    *core.Services
	now     func() time.Time
}

// target is the entity and window a tool call refers to.
type target struct {
	svc    *core.MetricsService
	entity schema.Entity
	window schema.QueryWindow
}

// resolveTarget reads kind, id, start and end from the request. Missing dates fall back
// to the configured window.
func (h *toolHandler) resolveTarget(ctx context.Context, request mcp.CallToolRequest) (target, error) {
	kind := schema.EntityKind(strings.ToLower(request.GetString("kind", "")))
	svc := h.svcs.For(kind)
	if svc == nil {
		return target{}, fmt.Errorf("invalid kind '%s'. must be team, project, portfolio", kind)
	}
	id, err := request.RequireInt("id")
	if err != nil {
		return target{}, err
	}
	if id < 0 {
		return target{}, fmt.Errorf("id must not be negative (received %d)", id)
	}

	window := schema.QueryWindow{Kind: kind, EntityID: id, Start: h.baseCfg.StartTime, End: h.baseCfg.EndTime}
	now := h.now()
	if s := request.GetString("start", ""); s != "" {
		if window.Start, err = contract.ParseDateInput(s, now); err != nil {
			return target{}, fmt.Errorf("invalid start: %w", err)
		}
	}
	if s := request.GetString("end", ""); s != "" {
		if window.End, err = contract.ParseDateInput(s, now); err != nil {
			return target{}, fmt.Errorf("invalid end: %w", err)
		}
	}
	if err := contract.ValidateDateRange(window.Start, window.End); err != nil {
		return target{}, err
	}

	store := h.svcs.Store()
	if store == nil {
		return target{}, fmt.Errorf("work item store is not initialized")
	}
	entity, err := svc.ResolveEntity(ctx, store, id)
	if err != nil {
		return target{}, fmt.Errorf("failed to load %s %d: %w", kind, id, err)
	}
	return target{svc: svc, entity: entity, window: window}, nil
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetRunChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metric, err := core.ResolveMetric(schema.RunChartMetrics, request.GetString("metric", ""), "throughput")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := h.resolveTarget(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid run chart parameters: %v", err)), nil
	}

	chart, err := t.svc.RunChart(ctx, t.entity, metric, t.window.Start, t.window.End)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run chart failed: %v", err)), nil
	}
	t.window.Metric = metric
	return jsonResult(schema.NewRunChartResult(t.window, chart)), nil
}

func (h *toolHandler) handleGetPercentiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metric, err := core.ResolveMetric(schema.PercentileMetrics, request.GetString("metric", ""), "cycle-time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ranks, err := parseRanks(request.GetString("percentiles", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid percentiles: %v", err)), nil
	}
	t, err := h.resolveTarget(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid percentile parameters: %v", err)), nil
	}

	values, err := t.svc.Percentiles(ctx, t.entity, metric, t.window.Start, t.window.End, ranks...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("percentiles failed: %v", err)), nil
	}
	t.window.Metric = metric
	return jsonResult(schema.PercentileResult{QueryWindow: t.window, Values: values}), nil
}

func (h *toolHandler) handleGetProcessBehaviourChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metric, err := core.ResolveMetric(schema.PBCMetrics, request.GetString("metric", ""), "throughput")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := h.resolveTarget(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid chart parameters: %v", err)), nil
	}

	chart, err := t.svc.ProcessBehaviourChart(ctx, t.entity, metric, t.window.Start, t.window.End)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("process behaviour chart failed: %v", err)), nil
	}
	t.window.Metric = metric
	return jsonResult(schema.ChartResult{QueryWindow: t.window, ProcessBehaviourChart: chart}), nil
}

func (h *toolHandler) handleGetCurrentWIP(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := h.resolveTarget(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	wip, err := t.svc.CurrentWorkInProgress(ctx, t.entity)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("work in progress failed: %v", err)), nil
	}
	return jsonResult(wip), nil
}

func (h *toolHandler) handleImportWorkItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := h.resolveTarget(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid import parameters: %v", err)), nil
	}
	content, err := request.RequireString("csv")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := ingest.ReadWorkItems(strings.NewReader(content), t.window.Kind, t.window.EntityID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid CSV: %v", err)), nil
	}

	saved, err := t.svc.ImportWorkItems(ctx, h.svcs.Store(), t.entity, items)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Imported %d work items into %s %d", saved, t.window.Kind, t.window.EntityID)), nil
}

func (h *toolHandler) handleInvalidateMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := h.resolveTarget(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	removed := t.svc.InvalidateMetrics(t.entity)
	return mcp.NewToolResultText(fmt.Sprintf("Removed %d cached metrics of %s %d", removed, t.window.Kind, t.window.EntityID)), nil
}

// parseRanks parses "50,85,95"; blank means the canonical ranks.
func parseRanks(s string) ([]float64, error) {
	var ranks []float64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		if p <= 0 || p > 100 {
			return nil, fmt.Errorf("percentile must be in (0, 100] (received %s)", part)
		}
		ranks = append(ranks, p)
	}
	return ranks, nil
}
