package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
	"github.com/mgalvez/rulekeeper/internal/graph"
)

// ValidateTool handles the rules_validate MCP tool: dependency validation
// over the loaded rule set.
type ValidateTool struct {
	engine *engine.Engine
}

// NewValidateTool creates a ValidateTool over the given engine.
func NewValidateTool(e *engine.Engine) *ValidateTool {
	return &ValidateTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_validate",
		mcp.WithDescription(
			"Validate the rule dependency graph: dangling requires/extends "+
				"references, requires/extends cycles, and conflict pairs "+
				"(explicit, mutual, and transitive with the path recorded).",
		),
	)
}

// Handle processes the rules_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := t.engine.ValidateDependencies()

	if result.Valid {
		return mcp.NewToolResultText("✅ Dependency graph is valid: no dangling references, cycles, or conflicts."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Dependency Validation: %d problem(s)\n\n", len(result.Errors))
	for _, msg := range result.Errors {
		fmt.Fprintf(&b, "- %s\n", msg)
	}

	if conflicts := t.engine.Conflicts(); len(conflicts) > 0 {
		b.WriteString("\n## Conflict Pairs\n")
		for _, c := range conflicts {
			line := fmt.Sprintf("- `%s` ↔ `%s` (%s)", c.RuleA, c.RuleB, c.Reason)
			if c.Reason == graph.ReasonTransitive && len(c.Path) > 0 {
				line += " via " + strings.Join(c.Path, " → ")
			}
			b.WriteString(line + "\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
