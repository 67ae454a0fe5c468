package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
)

// OrderTool handles the rules_order MCP tool: deterministic topological
// ordering of rules by their requires edges.
type OrderTool struct {
	engine *engine.Engine
}

// NewOrderTool creates an OrderTool over the given engine.
func NewOrderTool(e *engine.Engine) *OrderTool {
	return &OrderTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *OrderTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_order",
		mcp.WithDescription(
			"Return the rules in topological order over requires edges, so "+
				"every rule appears after the rules it requires. Ties break "+
				"lexicographically; a cycle fails the sort and names the cycle.",
		),
	)
}

// Handle processes the rules_order tool call.
func (t *OrderTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	order, err := t.engine.Order()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot order rules: %v", err)), nil
	}
	if len(order) == 0 {
		return mcp.NewToolResultText("No rules loaded."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Rule Order (%d)\n\n", len(order))
	for i, id := range order {
		fmt.Fprintf(&b, "%d. `%s`\n", i+1, id)
	}
	return mcp.NewToolResultText(b.String()), nil
}
