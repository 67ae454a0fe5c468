// Package resources implements MCP resource handlers for the rule engine.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (rules://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mgalvez/rulekeeper/internal/engine"
	"github.com/mgalvez/rulekeeper/internal/storage"
)

// Handler manages rule resource endpoints.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// StatusResource returns the MCP resource definition for engine status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"rules://status",
		"Rule Engine Status",
		mcp.WithResourceDescription("Rule count, categories and tags in use, load errors, and pending sync conflicts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current engine status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.engine.Status(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// IndexResource returns the MCP resource definition for the rule index.
func (h *Handler) IndexResource() mcp.Resource {
	return mcp.NewResource(
		"rules://index",
		"Rule Index",
		mcp.WithResourceDescription("Index of all loaded rules grouped by category and tag"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleIndex returns the rule index document as JSON.
func (h *Handler) HandleIndex(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc := storage.BuildIndexDocument(h.engine.Rules())
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling index: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// AllResource returns the MCP resource definition for the full rule set.
func (h *Handler) AllResource() mcp.Resource {
	return mcp.NewResource(
		"rules://all",
		"All Rules",
		mcp.WithResourceDescription("The complete loaded rule set, sorted by id"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleAll returns every loaded rule as JSON.
func (h *Handler) HandleAll(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.engine.Rules(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling rules: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

func jsonResource(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}
