// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mgalvez/rulekeeper/internal/adapters"
	"github.com/mgalvez/rulekeeper/internal/engine"
	"github.com/mgalvez/rulekeeper/internal/prompts"
	"github.com/mgalvez/rulekeeper/internal/resources"
	rulesync "github.com/mgalvez/rulekeeper/internal/sync"
	"github.com/mgalvez/rulekeeper/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the engine's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(opts engine.Options) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	claude, err := adapters.NewClaude(filepath.Join(opts.ProjectRoot, "CLAUDE.md"))
	if err != nil {
		return nil, noop, fmt.Errorf("creating claude adapter: %w", err)
	}
	cursor := adapters.NewCursor(filepath.Join(opts.ProjectRoot, ".cursorrules"))
	registry := rulesync.NewRegistry(claude, cursor)

	e, err := engine.New(opts, registry)
	if err != nil {
		return nil, noop, fmt.Errorf("creating engine: %w", err)
	}
	cleanup := func() { _ = e.Close() }

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"rulekeeper",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register rule set tools ---

	loadTool := tools.NewLoadTool(e)
	s.AddTool(loadTool.Definition(), loadTool.Handle)

	searchTool := tools.NewSearchTool(e)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	similarTool := tools.NewSimilarTool(e)
	s.AddTool(similarTool.Definition(), similarTool.Handle)

	validateTool := tools.NewValidateTool(e)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	orderTool := tools.NewOrderTool(e)
	s.AddTool(orderTool.Definition(), orderTool.Handle)

	statusTool := tools.NewStatusTool(e)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	showTool := tools.NewShowTool(e)
	s.AddTool(showTool.Definition(), showTool.Handle)

	// --- Register versioning tools ---

	updateTool := tools.NewUpdateTool(e)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	diffTool := tools.NewDiffTool(e)
	s.AddTool(diffTool.Definition(), diffTool.Handle)

	rollbackTool := tools.NewRollbackTool(e)
	s.AddTool(rollbackTool.Definition(), rollbackTool.Handle)

	// --- Register sync tools ---

	syncTool := tools.NewSyncTool(e)
	s.AddTool(syncTool.Definition(), syncTool.Handle)

	resolveTool := tools.NewResolveTool(e)
	s.AddTool(resolveTool.Definition(), resolveTool.Handle)

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(e)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)
	s.AddResource(resourceHandler.IndexResource(), resourceHandler.HandleIndex)
	s.AddResource(resourceHandler.AllResource(), resourceHandler.HandleAll)

	return s, cleanup, nil
}

// noop is the default cleanup when construction fails before the engine
// exists.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use rulekeeper effectively.
func serverInstructions() string {
	return `You have access to rulekeeper, a coding-rule management MCP server.

## What rulekeeper does
rulekeeper loads coding guidelines ("rules") from a scope hierarchy
(global → project → package), validates their dependencies, tracks every
edit with semantic versions, and keeps platform rule files (CLAUDE.md,
.cursorrules) in sync with the canonical set.

## Typical workflow
1. Run rules_load at the start of a session to load the effective rule
   set for the code you are working on. Pass target='<package path>' when
   working inside a subpackage — deeper scopes override shallower ones.
2. Before writing code, run rules_search with tags or a category to find
   the rules that apply to the change at hand.
3. Before adding a new rule, run rules_similar against a draft to catch
   duplicates.
4. After editing rules, run rules_validate — dangling requires, cycles,
   and conflict pairs (including transitive ones) must be fixed before
   the set is usable.
5. Use rules_order when applying rules in sequence: it returns a
   topological order where every rule follows its prerequisites.

## Editing rules
- rule_update is the ONLY way to edit a rule. Always pass a real
  'changes' message — it becomes the changelog entry. Pick the bump by
  impact: major for meaning changes, minor for additions, patch for
  wording.
- rule_diff compares any two historical versions; rule_rollback restores
  an old state as a NEW version (history is never rewritten).
- rule_show with history=true shows the full changelog.

## Syncing with platforms
- rules_sync platform='claude' or 'cursor'. Direction 'pull' imports,
  'push' exports, 'both' (default) runs push, then pull, then merge.
- Field-level conflicts keep the LOCAL value until resolved and block
  further pushes. List them with rules_resolve (no arguments), then
  decide each with rule_id/field/choice, or apply mode='local'/'remote'
  uniformly. 'merge' unions array fields like tags; 'skip' defers.
- Never resolve conflicts silently — show the user both values and ask.

## Important rules
- Run rules_load before anything else; the other tools operate on the
  loaded set.
- Treat severity 'error' rules as hard requirements, 'warning' as strong
  recommendations, 'info' as advisory.
- Merge conflicts reported by rules_load with an unresolved strategy
  withhold the affected rule — surface them to the user.
- rules_status is cheap; use it whenever you are unsure of the current
  state.`
}
