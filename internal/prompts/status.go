package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the rules-status MCP prompt.
// It instructs the AI to read and present the current engine state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("rules-status",
		mcp.WithPromptDescription(
			"Check the current state of the rule engine: loaded rules, "+
				"categories, load errors, and pending sync conflicts.",
		),
	)
}

// Handle processes the rules-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Rule Engine Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `rules_status` to check the rule engine.\n\n" +
						"Then:\n" +
						"1. Show me the current state in a clear, compact format\n" +
						"2. Highlight load errors and pending sync conflicts first\n" +
						"3. If conflicts are pending, list them via `rules_resolve` and propose resolutions\n" +
						"4. Tell me exactly what I should do next",
				),
			},
		},
	}, nil
}
