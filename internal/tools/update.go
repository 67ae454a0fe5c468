package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
	"github.com/mgalvez/rulekeeper/internal/rule"
	"github.com/mgalvez/rulekeeper/internal/version"
)

// UpdateTool handles the rule_update MCP tool: a versioned edit that
// snapshots the rule's prior state into its changelog.
type UpdateTool struct {
	engine *engine.Engine
}

// NewUpdateTool creates an UpdateTool over the given engine.
func NewUpdateTool(e *engine.Engine) *UpdateTool {
	return &UpdateTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("rule_update",
		mcp.WithDescription(
			"Update a rule with version tracking. The prior state is "+
				"snapshotted into the changelog before the edit, a new semver "+
				"is assigned, and the given fields are applied. Omitted fields "+
				"are left untouched.",
		),
		mcp.WithString("rule_id",
			mcp.Required(),
			mcp.Description("The rule to update."),
		),
		mcp.WithString("changes",
			mcp.Required(),
			mcp.Description("Changelog message describing the edit."),
		),
		mcp.WithString("author",
			mcp.Description("Who is making the change."),
		),
		mcp.WithString("bump",
			mcp.Description("Version component to bump: major, minor, or patch (default patch)."),
		),
		mcp.WithString("name", mcp.Description("New rule name.")),
		mcp.WithString("description", mcp.Description("New description.")),
		mcp.WithString("category", mcp.Description("New category path.")),
		mcp.WithString("tags", mcp.Description("Comma-separated replacement tag list.")),
		mcp.WithString("severity", mcp.Description("New severity: error, warning, or info.")),
	)
}

// Handle processes the rule_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ruleID := req.GetString("rule_id", "")
	if ruleID == "" {
		return mcp.NewToolResultError("'rule_id' is required"), nil
	}
	changes := req.GetString("changes", "")
	if changes == "" {
		return mcp.NewToolResultError("'changes' is required: every version needs a changelog message"), nil
	}

	bump := version.Bump(req.GetString("bump", string(version.BumpPatch)))
	if err := version.ValidateBump(bump); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	update := engine.UpdateRequest{
		Changes: changes,
		Author:  req.GetString("author", "unknown"),
		Bump:    bump,
		Tags:    csvArg(req, "tags"),
	}
	if v := req.GetString("name", ""); v != "" {
		update.Name = &v
	}
	if v := req.GetString("description", ""); v != "" {
		update.Description = &v
	}
	if v := req.GetString("category", ""); v != "" {
		update.Category = &v
	}
	if v := req.GetString("severity", ""); v != "" {
		sev := rule.Severity(v)
		if err := rule.ValidateSeverity(sev); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		update.Severity = &sev
	}

	updated, err := t.engine.UpdateRule(ruleID, update)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Update failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Updated `%s` to version %s.\n\n%s", ruleID, updated.Metadata.Version, ruleDetail(updated))), nil
}
