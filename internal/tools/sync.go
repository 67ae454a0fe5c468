package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
	rulesync "github.com/mgalvez/rulekeeper/internal/sync"
)

// SyncTool handles the rules_sync MCP tool: pull, push, or bidirectional
// synchronization with one platform's rule file.
type SyncTool struct {
	engine *engine.Engine
}

// NewSyncTool creates a SyncTool over the given engine.
func NewSyncTool(e *engine.Engine) *SyncTool {
	return &SyncTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *SyncTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_sync",
		mcp.WithDescription(
			"Synchronize rules with a platform file (claude, cursor). "+
				"Directions: pull imports, push exports, both runs "+
				"push-then-pull-then-merge and surfaces field-level conflicts. "+
				"Unresolved conflicts block further pushes until resolved with "+
				"rules_resolve.",
		),
		mcp.WithString("platform",
			mcp.Required(),
			mcp.Description("Target platform name."),
		),
		mcp.WithString("direction",
			mcp.Description("pull, push, or both (default both)."),
		),
	)
}

// Handle processes the rules_sync tool call.
func (t *SyncTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform := req.GetString("platform", "")
	if platform == "" {
		return mcp.NewToolResultError("'platform' is required"), nil
	}
	direction := rulesync.Direction(req.GetString("direction", string(rulesync.DirectionBoth)))

	result, err := t.engine.Sync(ctx, platform, direction)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Sync failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Sync %s (%s)\n\n**Rules:** %d\n", result.Platform, result.Direction, result.RulesCount)

	if result.Pull != nil {
		fmt.Fprintf(&b, "\n**Imported:** %d new, %d updated, %d unchanged\n",
			len(result.Pull.New), len(result.Pull.Updated), len(result.Pull.Unchanged))
		for _, id := range result.Pull.New {
			fmt.Fprintf(&b, "- new: `%s`\n", id)
		}
		for _, id := range result.Pull.Updated {
			fmt.Fprintf(&b, "- updated: `%s`\n", id)
		}
	}

	if len(result.Conflicts) > 0 {
		fmt.Fprintf(&b, "\n## Conflicts (%d)\n\n", len(result.Conflicts))
		b.WriteString("Local values are kept until resolved; pushes are blocked.\n\n")
		for _, c := range result.Conflicts {
			fmt.Fprintf(&b, "- `%s`.%s: local %v (v%s) vs remote %v (v%s)\n",
				c.RuleID, c.Field, c.LocalValue, c.LocalVersion, c.RemoteValue, c.RemoteVersion)
		}
		b.WriteString("\nResolve with rules_resolve (mode: local, remote, merge, skip).\n")
	} else {
		b.WriteString("\nNo conflicts.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
