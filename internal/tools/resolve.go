package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
	rulesync "github.com/mgalvez/rulekeeper/internal/sync"
)

// ResolveTool handles the rules_resolve MCP tool: decides pending sync
// conflicts, either one at a time or uniformly across the set.
type ResolveTool struct {
	engine *engine.Engine
}

// NewResolveTool creates a ResolveTool over the given engine.
func NewResolveTool(e *engine.Engine) *ResolveTool {
	return &ResolveTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *ResolveTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_resolve",
		mcp.WithDescription(
			"Resolve pending sync conflicts. Without rule_id, applies 'mode' "+
				"uniformly across the conflict set (local, remote, or manual "+
				"to leave everything pending). With rule_id and field, decides "+
				"one conflict: local, remote, merge (array fields union; "+
				"scalars are rejected), or skip (resurfaces next sync).",
		),
		mcp.WithString("mode",
			mcp.Description("Uniform resolution across all conflicts: local, remote, or manual."),
		),
		mcp.WithString("rule_id",
			mcp.Description("Rule of the single conflict to decide."),
		),
		mcp.WithString("field",
			mcp.Description("Field of the single conflict to decide."),
		),
		mcp.WithString("choice",
			mcp.Description("Per-conflict decision: local, remote, merge, or skip."),
		),
	)
}

// Handle processes the rules_resolve tool call.
func (t *ResolveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ruleID := req.GetString("rule_id", "")

	if ruleID != "" {
		field := req.GetString("field", "")
		choice := req.GetString("choice", "")
		if field == "" || choice == "" {
			return mcp.NewToolResultError("per-conflict resolution needs 'field' and 'choice'"), nil
		}
		if err := t.engine.ResolveConflict(ruleID, field, rulesync.Resolution(choice)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Resolved `%s`.%s with %s. %d conflict(s) still pending.",
			ruleID, field, choice, len(t.engine.PendingConflicts()))), nil
	}

	mode := req.GetString("mode", "")
	if mode == "" {
		pending := t.engine.PendingConflicts()
		if len(pending) == 0 {
			return mcp.NewToolResultText("No pending conflicts."), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Pending Conflicts (%d)\n\n", len(pending))
		for _, c := range pending {
			fmt.Fprintf(&b, "- `%s`.%s: local %v vs remote %v\n", c.RuleID, c.Field, c.LocalValue, c.RemoteValue)
		}
		return mcp.NewToolResultText(b.String()), nil
	}

	remaining, err := t.engine.ResolveConflicts(rulesync.Resolution(mode))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Applied %s resolution. %d conflict(s) remain pending.", mode, len(remaining))), nil
}
