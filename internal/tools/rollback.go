package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
)

// RollbackTool handles the rule_rollback MCP tool: restores a rule to a
// historical version while extending, never rewriting, its changelog.
type RollbackTool struct {
	engine *engine.Engine
}

// NewRollbackTool creates a RollbackTool over the given engine.
func NewRollbackTool(e *engine.Engine) *RollbackTool {
	return &RollbackTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *RollbackTool) Definition() mcp.Tool {
	return mcp.NewTool("rule_rollback",
		mcp.WithDescription(
			"Roll a rule back to the state it had at a target version. The "+
				"rollback becomes a new changelog entry with a new patch "+
				"version; intervening history is preserved.",
		),
		mcp.WithString("rule_id",
			mcp.Required(),
			mcp.Description("The rule to roll back."),
		),
		mcp.WithString("target_version",
			mcp.Required(),
			mcp.Description("Version to restore, e.g. 1.0.0."),
		),
		mcp.WithString("author",
			mcp.Description("Who is rolling back."),
		),
	)
}

// Handle processes the rule_rollback tool call.
func (t *RollbackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ruleID := req.GetString("rule_id", "")
	target := req.GetString("target_version", "")
	if ruleID == "" || target == "" {
		return mcp.NewToolResultError("'rule_id' and 'target_version' are required"), nil
	}

	rolled, err := t.engine.RollbackRule(ruleID, target, req.GetString("author", "unknown"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Rollback failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Rolled `%s` back to the state of %s. New version: %s.",
		ruleID, target, rolled.Metadata.Version)), nil
}
