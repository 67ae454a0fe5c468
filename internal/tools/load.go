package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
)

// LoadTool handles the rules_load MCP tool: it runs the hierarchical
// loader and reports the merged rule set, sources, recovered per-file
// errors, and merge conflicts.
type LoadTool struct {
	engine *engine.Engine
}

// NewLoadTool creates a LoadTool over the given engine.
func NewLoadTool(e *engine.Engine) *LoadTool {
	return &LoadTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *LoadTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_load",
		mcp.WithDescription(
			"Load and merge coding rules from the scope hierarchy "+
				"(global → project → package). Malformed rule files are "+
				"reported, not fatal. Returns the effective rule set, the "+
				"directories consulted, load errors, and merge conflicts.",
		),
		mcp.WithString("target",
			mcp.Description("Package path relative to the project root. Omit for the project root itself."),
		),
	)
}

// Handle processes the rules_load tool call.
func (t *LoadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target := req.GetString("target", "")

	result, err := t.engine.Load(target)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Rules Loaded\n\n**Rules:** %d\n**Strategy:** %s / %s\n\n",
		len(result.Rules), result.Config.MergeStrategy, result.Config.ConflictResolution)

	b.WriteString("## Sources\n")
	for _, src := range result.Sources {
		fmt.Fprintf(&b, "- `%s`\n", src)
	}

	if len(result.Rules) > 0 {
		b.WriteString("\n## Rules\n")
		for _, r := range result.Rules {
			b.WriteString(ruleLine(r) + "\n")
		}
	}

	if len(result.Conflicts) > 0 {
		b.WriteString("\n## Merge Conflicts\n")
		for _, c := range result.Conflicts {
			if c.Winner != "" {
				fmt.Fprintf(&b, "- `%s`: resolved by %s, winner %s\n", c.RuleID, c.Resolution, c.Winner)
			} else {
				fmt.Fprintf(&b, "- `%s`: UNRESOLVED (%s) — rule withheld until decided\n", c.RuleID, c.Resolution)
			}
		}
	}

	if len(result.Errors) > 0 {
		b.WriteString("\n## Load Errors\n")
		for _, loadErr := range result.Errors {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", loadErr.Kind, loadErr.Path, loadErr.Message)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}
