package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
)

// StatusTool handles the rules_status MCP tool: a summary of the engine's
// current state.
type StatusTool struct {
	engine *engine.Engine
}

// NewStatusTool creates a StatusTool over the given engine.
func NewStatusTool(e *engine.Engine) *StatusTool {
	return &StatusTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_status",
		mcp.WithDescription(
			"Show the engine status: rule count, categories and tags in use, "+
				"load errors, merge conflicts, and pending sync conflicts.",
		),
	)
}

// Handle processes the rules_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := t.engine.Status()

	var b strings.Builder
	b.WriteString("# Rule Engine Status\n\n")
	fmt.Fprintf(&b, "**Project:** `%s`\n", st.ProjectRoot)
	fmt.Fprintf(&b, "**Rules:** %d\n", st.Rules)
	fmt.Fprintf(&b, "**Persistent:** %v\n", st.Persistent)
	if len(st.Categories) > 0 {
		fmt.Fprintf(&b, "**Categories:** %s\n", strings.Join(st.Categories, ", "))
	}
	if len(st.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(st.Tags, ", "))
	}
	fmt.Fprintf(&b, "\n**Load errors:** %d\n**Merge conflicts:** %d\n**Pending sync conflicts:** %d\n",
		st.LoadErrors, st.MergeConflicts, st.PendingConflicts)

	if st.Rules == 0 {
		b.WriteString("\nNo rules loaded yet. Run rules_load first.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
