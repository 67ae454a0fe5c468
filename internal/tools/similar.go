package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
)

// SimilarTool handles the rules_similar MCP tool: duplicate detection via
// weighted name/description/tag/category similarity.
type SimilarTool struct {
	engine *engine.Engine
}

// NewSimilarTool creates a SimilarTool over the given engine.
func NewSimilarTool(e *engine.Engine) *SimilarTool {
	return &SimilarTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *SimilarTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_similar",
		mcp.WithDescription(
			"Find similar rules. With rule_id, scores every other rule "+
				"against it; without, audits the whole set and reports every "+
				"pair at or above the threshold. Scores combine name and "+
				"description bigram similarity, tag overlap, and category "+
				"prefix match. Use this before adding a rule to catch "+
				"duplicates.",
		),
		mcp.WithString("rule_id",
			mcp.Description("The rule to compare against. Omit to audit all pairs."),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum similarity score between 0 and 1 (default 0.5)."),
		),
	)
}

// Handle processes the rules_similar tool call.
func (t *SimilarTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threshold := floatArg(req, "threshold", 0.5)
	if threshold < 0 || threshold > 1 {
		return mcp.NewToolResultError("'threshold' must be between 0 and 1"), nil
	}

	ruleID := req.GetString("rule_id", "")
	if ruleID == "" {
		pairs := t.engine.DuplicateReport(threshold)
		if len(pairs) == 0 {
			return mcp.NewToolResultText(
				fmt.Sprintf("No rule pairs score at or above %.2f.", threshold)), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Possible Duplicates (%d)\n\n", len(pairs))
		for _, p := range pairs {
			fmt.Fprintf(&b, "- `%s` ~ `%s` (similarity %.2f)\n", p.A.ID, p.B.ID, p.Score)
		}
		return mcp.NewToolResultText(b.String()), nil
	}

	matches, err := t.engine.FindSimilar(ruleID, threshold)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText(
			fmt.Sprintf("No rules score at or above %.2f against `%s`.", threshold, ruleID)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Similar to `%s` (%d)\n\n", ruleID, len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "%s (similarity %.2f)\n", ruleLine(m.Rule), m.Score)
	}
	return mcp.NewToolResultText(b.String()), nil
}
