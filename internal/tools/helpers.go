// Package tools implements the MCP tool handlers over the rule engine.
//
// Each tool receives its dependencies via its struct and exposes a
// Definition for registration plus a Handle compatible with mcp-go's
// CallToolRequest signature.
//
// Design principles:
// - SRP: each file = one tool
// - DIP: tools depend on the engine facade, never on its subsystems
// - user mistakes (bad ids, bad enum values) return tool errors; only
//   infrastructure failures propagate as Go errors
package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// csvArg splits a comma-separated string argument into trimmed values.
func csvArg(req mcp.CallToolRequest, key string) []string {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// floatArg extracts a numeric argument from a tool request.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// ruleLine renders one rule as a compact markdown list item.
func ruleLine(r *rule.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- **%s** `%s` [%s/%s]", r.Name, r.ID, r.Category, r.Severity)
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, " — %s", strings.Join(r.Tags, ", "))
	}
	return b.String()
}

// ruleDetail renders a rule's full record as markdown.
func ruleDetail(r *rule.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Name)
	fmt.Fprintf(&b, "**ID:** `%s`\n**Category:** %s\n**Severity:** %s\n**Scope:** %s\n**Version:** %s\n**Status:** %s\n",
		r.ID, r.Category, r.Severity, r.Scope, r.Metadata.Version, r.Metadata.Status)
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(r.Tags, ", "))
	}
	fmt.Fprintf(&b, "\n%s\n", r.Description)
	if !r.Deps.Empty() {
		b.WriteString("\n## Dependencies\n")
		if len(r.Deps.Requires) > 0 {
			fmt.Fprintf(&b, "- requires: %s\n", strings.Join(r.Deps.Requires, ", "))
		}
		if len(r.Deps.Conflicts) > 0 {
			fmt.Fprintf(&b, "- conflicts: %s\n", strings.Join(r.Deps.Conflicts, ", "))
		}
		if r.Deps.Extends != "" {
			fmt.Fprintf(&b, "- extends: %s\n", r.Deps.Extends)
		}
	}
	if r.Examples != nil {
		b.WriteString("\n## Examples\n")
		for _, good := range r.Examples.Good {
			fmt.Fprintf(&b, "✅\n```\n%s\n```\n", good)
		}
		for _, bad := range r.Examples.Bad {
			fmt.Fprintf(&b, "❌\n```\n%s\n```\n", bad)
		}
	}
	return b.String()
}
