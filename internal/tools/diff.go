package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
)

// DiffTool handles the rule_diff MCP tool: per-field comparison of two
// historical versions of a rule.
type DiffTool struct {
	engine *engine.Engine
}

// NewDiffTool creates a DiffTool over the given engine.
func NewDiffTool(e *engine.Engine) *DiffTool {
	return &DiffTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *DiffTool) Definition() mcp.Tool {
	return mcp.NewTool("rule_diff",
		mcp.WithDescription(
			"Compare two versions of a rule. Both states are reconstructed "+
				"from changelog snapshots and compared field by field; "+
				"multi-line fields include a unified diff.",
		),
		mcp.WithString("rule_id",
			mcp.Required(),
			mcp.Description("The rule to diff."),
		),
		mcp.WithString("from_version",
			mcp.Required(),
			mcp.Description("Older version, e.g. 1.0.0."),
		),
		mcp.WithString("to_version",
			mcp.Required(),
			mcp.Description("Newer version, e.g. 1.2.0."),
		),
	)
}

// Handle processes the rule_diff tool call.
func (t *DiffTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ruleID := req.GetString("rule_id", "")
	from := req.GetString("from_version", "")
	to := req.GetString("to_version", "")
	if ruleID == "" || from == "" || to == "" {
		return mcp.NewToolResultError("'rule_id', 'from_version', and 'to_version' are all required"), nil
	}

	changes, err := t.engine.DiffRule(ruleID, from, to)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Diff failed: %v", err)), nil
	}
	if len(changes) == 0 {
		return mcp.NewToolResultText(
			fmt.Sprintf("`%s` is identical between %s and %s.", ruleID, from, to)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Diff `%s` %s → %s\n\n", ruleID, from, to)
	for _, c := range changes {
		fmt.Fprintf(&b, "- **%s** (%s): %v → %v\n", c.Field, c.Type, c.From, c.To)
		if c.Text != "" {
			fmt.Fprintf(&b, "\n```diff\n%s```\n", c.Text)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
