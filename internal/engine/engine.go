// Package engine composes the rule subsystems behind one facade: the
// loader, dependency graph, versioning, search index, sync manager, and
// persistence boundary. One Engine instance owns the rule store for one
// base path; operations are serialized by a single mutex so tool handlers
// can call in from concurrent MCP requests without coordinating.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	stdsync "sync"

	"github.com/mgalvez/rulekeeper/internal/graph"
	"github.com/mgalvez/rulekeeper/internal/loader"
	"github.com/mgalvez/rulekeeper/internal/rule"
	"github.com/mgalvez/rulekeeper/internal/search"
	"github.com/mgalvez/rulekeeper/internal/storage"
	rulesync "github.com/mgalvez/rulekeeper/internal/sync"
	"github.com/mgalvez/rulekeeper/internal/version"
)

// Options configures an Engine.
type Options struct {
	// ProjectRoot is the base path whose rule hierarchy this engine owns.
	ProjectRoot string
	// GlobalDir is the global rules directory; empty skips the global layer.
	GlobalDir string
	// DBPath enables SQLite persistence when non-empty.
	DBPath string
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// Engine is the composition of all rule subsystems over one store.
type Engine struct {
	mu     stdsync.Mutex
	opts   Options
	logger *slog.Logger

	store    *rule.Store
	index    *search.Index
	loader   *loader.Loader
	sync     *rulesync.Manager
	db       *storage.Store // nil when persistence is disabled
	lastLoad *loader.LoadResult
}

// New creates an Engine. When DBPath is set, previously persisted rules
// hydrate the store so queries work before the first load.
func New(opts Options, registry *rulesync.Registry) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		opts:   opts,
		logger: logger,
		store:  rule.NewStore(),
		loader: loader.New(opts.GlobalDir, logger),
	}
	e.sync = rulesync.NewManager(e.store, registry)

	if opts.DBPath != "" {
		db, err := storage.Open(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening rule database: %w", err)
		}
		e.db = db

		persisted, err := db.ListRules()
		if err != nil {
			return nil, fmt.Errorf("hydrating rule store: %w", err)
		}
		e.store.Replace(persisted)
		e.index = search.BuildIndex(persisted)
		logger.Info("hydrated rule store", "rules", len(persisted), "db", opts.DBPath)
	} else {
		e.index = search.BuildIndex(nil)
	}
	return e, nil
}

// Close releases the persistence handle, if any.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// refresh rebuilds the index and persists the store. Callers hold e.mu.
func (e *Engine) refresh() error {
	rules := e.store.All()
	e.index = search.BuildIndex(rules)
	if e.db == nil {
		return nil
	}
	if err := e.db.SaveRules(rules); err != nil {
		return err
	}
	return e.db.SaveIndex(storage.BuildIndexDocument(rules))
}

// --- Loading ---

// Load runs the hierarchical loader for targetPath (relative to the
// project root; empty means the root) and replaces the store with the
// merged result. Per-file errors and merge conflicts are reported in the
// result, not raised.
func (e *Engine) Load(targetPath string) (*loader.LoadResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.loader.LoadForPath(e.opts.ProjectRoot, targetPath)
	if err != nil {
		return nil, err
	}
	e.store.Replace(result.Rules)
	e.lastLoad = result
	if err := e.refresh(); err != nil {
		return nil, err
	}
	e.logger.Info("loaded rules",
		"target", targetPath,
		"rules", len(result.Rules),
		"errors", len(result.Errors),
		"conflicts", len(result.Conflicts))
	return result, nil
}

// LastLoad returns the most recent load result, or nil before any load.
func (e *Engine) LastLoad() *loader.LoadResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastLoad
}

// Rules returns the current rule set sorted by id.
func (e *Engine) Rules() []*rule.Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.All()
}

// Rule returns one rule by id.
func (e *Engine) Rule(id string) (*rule.Rule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.store.Get(id)
	if r == nil {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	return r, nil
}

// --- Search ---

// Search runs the composite search pipeline over the current rule set.
func (e *Engine) Search(q search.Query) []search.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return search.Search(e.store.All(), q)
}

// FindSimilar returns rules scoring at or above threshold against the
// given rule, most similar first. It backs duplicate detection.
func (e *Engine) FindSimilar(id string, threshold float64) ([]search.Similar, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	query := e.store.Get(id)
	if query == nil {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	return search.FindSimilar(e.store.All(), query, threshold), nil
}

// SimilarPair is two distinct rules scoring at or above a threshold.
type SimilarPair struct {
	A     *rule.Rule
	B     *rule.Rule
	Score float64
}

// DuplicateReport scans every rule pair and returns the ones scoring at
// or above threshold, most similar first. It backs the whole-set
// duplicate audit.
func (e *Engine) DuplicateReport(threshold float64) []SimilarPair {
	e.mu.Lock()
	defer e.mu.Unlock()
	rules := e.store.All()
	var pairs []SimilarPair
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if score := search.Similarity(rules[i], rules[j]); score >= threshold {
				pairs = append(pairs, SimilarPair{A: rules[i], B: rules[j], Score: score})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	return pairs
}

// TagsInUse returns the indexed tags, sorted.
func (e *Engine) TagsInUse() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Tags()
}

// --- Dependencies ---

// ValidateDependencies checks the current rule set for dangling
// references, cycles, and conflict pairs.
func (e *Engine) ValidateDependencies() graph.ValidationResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return graph.Build(e.store.All()).Validate()
}

// Order returns a deterministic topological order over requires edges, or
// the offending cycle when one exists.
func (e *Engine) Order() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return graph.Build(e.store.All()).TopoSort()
}

// Conflicts returns the explicit, mutual, and transitive conflict pairs.
func (e *Engine) Conflicts() []graph.ConflictDetail {
	e.mu.Lock()
	defer e.mu.Unlock()
	return graph.Build(e.store.All()).ConflictPairs()
}

// --- Versioning ---

// UpdateRequest is a partial rule edit. Nil pointers leave the field
// untouched.
type UpdateRequest struct {
	Name        *string
	Description *string
	Category    *string
	Tags        []string
	Severity    *rule.Severity
	Changes     string
	Author      string
	Bump        version.Bump
}

// UpdateRule applies a versioned edit: the rule's prior state is
// snapshotted into the changelog, the new version assigned, and the edits
// applied on top.
func (e *Engine) UpdateRule(id string, req UpdateRequest) (*rule.Rule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.store.Get(id)
	if r == nil {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	// Validate the whole request before version.Create mutates the live
	// rule; a rejected edit must leave version and changelog untouched.
	if req.Severity != nil {
		if err := rule.ValidateSeverity(*req.Severity); err != nil {
			return nil, err
		}
	}
	bump := req.Bump
	if bump == "" {
		bump = version.BumpPatch
	}
	if _, err := version.Create(r, req.Changes, req.Author, bump); err != nil {
		return nil, err
	}

	if req.Name != nil {
		r.Name = *req.Name
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.Category != nil {
		r.Category = *req.Category
	}
	if req.Tags != nil {
		r.Tags = append([]string(nil), req.Tags...)
	}
	if req.Severity != nil {
		r.Severity = *req.Severity
	}
	e.store.Put(r)
	if err := e.refresh(); err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// DiffRule reconstructs two historical states of a rule and returns the
// per-field changes between them.
func (e *Engine) DiffRule(id, fromVersion, toVersion string) ([]version.DiffChange, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.store.Get(id)
	if r == nil {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	return version.Diff(r, fromVersion, toVersion)
}

// RollbackRule restores a rule to the state it had at targetVersion. The
// rollback itself becomes a new changelog entry; history is only extended.
func (e *Engine) RollbackRule(id, targetVersion, author string) (*rule.Rule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.store.Get(id)
	if r == nil {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	if err := version.Rollback(r, targetVersion, author); err != nil {
		return nil, err
	}
	e.store.Put(r)
	if err := e.refresh(); err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// History returns a rule's changelog, oldest first.
func (e *Engine) History(id string) ([]rule.ChangelogEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.store.Get(id)
	if r == nil {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	return append([]rule.ChangelogEntry(nil), r.Metadata.Changelog...), nil
}

// --- Sync ---

// Sync runs a synchronization against one platform and refreshes the
// index and persistence afterwards.
func (e *Engine) Sync(ctx context.Context, platform string, direction rulesync.Direction) (*rulesync.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	result, err := e.sync.Sync(ctx, platform, direction)
	if err != nil {
		return nil, err
	}
	if err := e.refresh(); err != nil {
		return nil, err
	}
	return result, nil
}

// SyncDiff compares the store against one platform without mutating
// either side.
func (e *Engine) SyncDiff(ctx context.Context, platform string) (*rulesync.DiffResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.Diff(ctx, platform)
}

// PendingConflicts returns unresolved sync conflicts.
func (e *Engine) PendingConflicts() []rulesync.Conflict {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync.Pending()
}

// ResolveConflicts applies one resolution mode across the pending set.
func (e *Engine) ResolveConflicts(mode rulesync.Resolution) ([]rulesync.Conflict, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	remaining, err := e.sync.ResolveAll(mode)
	if err != nil {
		return nil, err
	}
	if err := e.refresh(); err != nil {
		return nil, err
	}
	return remaining, nil
}

// ResolveConflict decides a single pending conflict.
func (e *Engine) ResolveConflict(ruleID, field string, choice rulesync.Resolution) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.sync.Resolve(ruleID, field, choice); err != nil {
		return err
	}
	return e.refresh()
}

// --- Status ---

// Status is a summary of the engine's current state.
type Status struct {
	ProjectRoot      string   `json:"projectRoot"`
	Rules            int      `json:"rules"`
	Categories       []string `json:"categories"`
	Tags             []string `json:"tags"`
	LoadErrors       int      `json:"loadErrors"`
	MergeConflicts   int      `json:"mergeConflicts"`
	PendingConflicts int      `json:"pendingConflicts"`
	Persistent       bool     `json:"persistent"`
}

// Status reports the rule count, known categories and tags, and
// outstanding error and conflict counts.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	categories := make(map[string]bool)
	for _, r := range e.store.All() {
		if r.Category != "" {
			categories[r.Category] = true
		}
	}
	st := Status{
		ProjectRoot:      e.opts.ProjectRoot,
		Rules:            e.store.Len(),
		Tags:             e.index.Tags(),
		PendingConflicts: len(e.sync.Pending()),
		Persistent:       e.db != nil,
	}
	for c := range categories {
		st.Categories = append(st.Categories, c)
	}
	sort.Strings(st.Categories)
	if e.lastLoad != nil {
		st.LoadErrors = len(e.lastLoad.Errors)
		st.MergeConflicts = len(e.lastLoad.Conflicts)
	}
	return st
}
