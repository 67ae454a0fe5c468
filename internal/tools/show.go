package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
)

// ShowTool handles the rule_show MCP tool: the full record of one rule,
// optionally with its version history.
type ShowTool struct {
	engine *engine.Engine
}

// NewShowTool creates a ShowTool over the given engine.
func NewShowTool(e *engine.Engine) *ShowTool {
	return &ShowTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *ShowTool) Definition() mcp.Tool {
	return mcp.NewTool("rule_show",
		mcp.WithDescription(
			"Show one rule in full: description, dependencies, examples, and "+
				"optionally the version changelog.",
		),
		mcp.WithString("rule_id",
			mcp.Required(),
			mcp.Description("The rule to show."),
		),
		mcp.WithBoolean("history",
			mcp.Description("Include the version changelog."),
		),
	)
}

// Handle processes the rule_show tool call.
func (t *ShowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ruleID := req.GetString("rule_id", "")
	if ruleID == "" {
		return mcp.NewToolResultError("'rule_id' is required"), nil
	}

	r, err := t.engine.Rule(ruleID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(ruleDetail(r))

	if boolArg(req, "history", false) {
		history, err := t.engine.History(ruleID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(history) > 0 {
			b.WriteString("\n## Changelog\n")
			for _, entry := range history {
				fmt.Fprintf(&b, "- **%s** (%s, %s): %s\n", entry.Version, entry.Date, entry.Author, entry.Changes)
			}
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
