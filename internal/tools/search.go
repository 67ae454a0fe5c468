package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
	"github.com/mgalvez/rulekeeper/internal/rule"
	"github.com/mgalvez/rulekeeper/internal/search"
)

// SearchTool handles the rules_search MCP tool: composite search over the
// loaded rule set with keyword scoring.
type SearchTool struct {
	engine *engine.Engine
}

// NewSearchTool creates a SearchTool over the given engine.
func NewSearchTool(e *engine.Engine) *SearchTool {
	return &SearchTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_search",
		mcp.WithDescription(
			"Search the loaded rules. Filters chain and only narrow: tags, "+
				"category prefix, severity, enabled-only, then keyword scoring "+
				"over id, name, tags, category, description, and examples.",
		),
		mcp.WithString("query",
			mcp.Description("Free-text keywords. Highest-scoring rules come first."),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags; a rule must carry all of them."),
		),
		mcp.WithString("category",
			mcp.Description("Category path prefix, e.g. 'code' matches 'code/errors'."),
		),
		mcp.WithString("severity",
			mcp.Description("Filter by severity: error, warning, or info."),
		),
		mcp.WithBoolean("enabled_only",
			mcp.Description("Only rules that are active and inside their date range."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 20)."),
		),
	)
}

// Handle processes the rules_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	severity := rule.Severity(req.GetString("severity", ""))
	if severity != "" {
		if err := rule.ValidateSeverity(severity); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	q := search.Query{
		Text:        req.GetString("query", ""),
		Tags:        csvArg(req, "tags"),
		Category:    req.GetString("category", ""),
		Severity:    severity,
		EnabledOnly: boolArg(req, "enabled_only", false),
		Limit:       int(floatArg(req, "limit", 20)),
	}

	results := t.engine.Search(q)
	if len(results) == 0 {
		return mcp.NewToolResultText("No rules matched."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Search Results (%d)\n\n", len(results))
	for _, res := range results {
		if q.Text != "" {
			fmt.Fprintf(&b, "%s (score %.1f)\n", ruleLine(res.Rule), res.Score)
		} else {
			b.WriteString(ruleLine(res.Rule) + "\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
