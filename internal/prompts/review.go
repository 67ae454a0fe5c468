// Package prompts implements MCP prompt handlers for the rule engine.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the rules-review MCP prompt.
// It guides the AI to load the rule hierarchy and audit it.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("rules-review",
		mcp.WithPromptDescription(
			"Load the project's coding rules and audit them: merge conflicts, "+
				"dependency problems, and likely duplicates.",
		),
		mcp.WithArgument("target",
			mcp.ArgumentDescription("Package path to load rules for. Omit for the project root."),
		),
	)
}

// Handle processes the rules-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	target := ""
	if args := req.Params.Arguments; args != nil {
		if t, ok := args["target"]; ok {
			target = t
		}
	}

	loadStep := "1. Run `rules_load` to load the rule hierarchy"
	if target != "" {
		loadStep = fmt.Sprintf("1. Run `rules_load` with target='%s' to load the rule hierarchy for that package", target)
	}

	return &mcp.GetPromptResult{
		Description: "Review the project's coding rules",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want a review of this project's coding rules.\n\n"+
						"Please:\n"+
						"%s\n"+
						"2. Report any load errors and merge conflicts it surfaces\n"+
						"3. Run `rules_validate` and explain every dependency problem\n"+
						"4. For rules that look alike, run `rules_similar` and flag likely duplicates\n"+
						"5. Summarize the rule set by category and tell me what needs fixing first",
					loadStep,
				)),
			},
		},
	}, nil
}
