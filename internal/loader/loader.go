// Package loader reads rule documents from the layered scope hierarchy
// (global → project → package) and merges them into one effective rule set.
//
// Each scope directory holds YAML rule documents (one rule per file, or a
// file carrying a list of rules) plus an optional scope.yaml declaring the
// merge strategy and conflict resolution policy. Malformed or
// schema-invalid documents are collected as per-file load errors and never
// abort the batch: loading continues with the remaining files and the
// result enumerates both rules and errors.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

const (
	// RulesDirName is the per-project and per-package rules directory.
	RulesDirName = ".rules"
	// ScopeConfigFile is the optional per-directory config document.
	ScopeConfigFile = "scope.yaml"
)

// ErrorKind classifies a per-file load failure.
type ErrorKind string

const (
	ErrorParse      ErrorKind = "parse"      // malformed YAML
	ErrorValidation ErrorKind = "validation" // schema-invalid rule
)

// LoadError is one recovered per-file failure.
type LoadError struct {
	Path    string    `json:"path"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %s error: %s", e.Path, e.Kind, e.Message)
}

// ScopeConfig is the per-directory scope.yaml document.
type ScopeConfig struct {
	MergeStrategy      MergeStrategy      `yaml:"mergeStrategy"`
	ConflictResolution ConflictResolution `yaml:"conflictResolution"`
}

// DefaultScopeConfig returns the policy used when no scope.yaml is present.
func DefaultScopeConfig() ScopeConfig {
	return ScopeConfig{
		MergeStrategy:      StrategyOverride,
		ConflictResolution: ResolveLocalWins,
	}
}

// Layer is one scope directory's contribution to the merge.
type Layer struct {
	Scope rule.Scope
	Dir   string
	Rules []*rule.Rule
}

// LoadResult enumerates everything a load produced: the merged rules, the
// scope directories consulted, recovered per-file errors, and merge
// conflicts (resolved and manual alike).
type LoadResult struct {
	Rules     []*rule.Rule
	Sources   []string
	Errors    []LoadError
	Conflicts []MergeConflict
	Config    ScopeConfig
}

// Loader reads the scope hierarchy rooted at a project directory. GlobalDir
// may be empty to skip the global layer.
type Loader struct {
	GlobalDir string
	logger    *slog.Logger
}

// New creates a Loader. A nil logger falls back to slog.Default.
func New(globalDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{GlobalDir: globalDir, logger: logger}
}

// LoadForPath loads and merges rules applicable to targetPath (a path
// relative to projectRoot; empty means the project root itself).
//
// Scope directories, in priority order:
//
//	global  — <GlobalDir>
//	project — <projectRoot>/.rules
//	package — <projectRoot>/<targetPath>/.rules
//
// The result is deterministic for identical directory contents and config.
func (l *Loader) LoadForPath(projectRoot, targetPath string) (*LoadResult, error) {
	if projectRoot == "" {
		return nil, fmt.Errorf("project root is required")
	}

	dirs := []struct {
		scope rule.Scope
		dir   string
	}{
		{rule.ScopeGlobal, l.GlobalDir},
		{rule.ScopeProject, filepath.Join(projectRoot, RulesDirName)},
	}
	if targetPath != "" && targetPath != "." {
		dirs = append(dirs, struct {
			scope rule.Scope
			dir   string
		}{rule.ScopePackage, filepath.Join(projectRoot, targetPath, RulesDirName)})
	}

	result := &LoadResult{Config: DefaultScopeConfig()}
	var layers []Layer

	for _, d := range dirs {
		if d.dir == "" {
			continue
		}
		layer, errs, ok := l.loadLayer(d.scope, d.dir)
		result.Errors = append(result.Errors, errs...)
		if !ok {
			continue
		}
		result.Sources = append(result.Sources, d.dir)
		layers = append(layers, layer)

		// The most specific scope carrying a config drives the merge.
		if cfg, found := l.loadScopeConfig(d.dir); found {
			result.Config = cfg
		}
	}

	merged := Merge(layers, result.Config.MergeStrategy, result.Config.ConflictResolution)
	result.Rules = merged.Rules
	result.Conflicts = merged.Conflicts
	return result, nil
}

// loadLayer reads every rule document in one scope directory. The third
// return value is false when the directory does not exist.
func (l *Loader) loadLayer(scope rule.Scope, dir string) (Layer, []LoadError, bool) {
	layer := Layer{Scope: scope, Dir: dir}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("skipping unreadable scope directory",
				slog.String("dir", dir), slog.String("error", err.Error()))
		}
		return layer, nil, false
	}

	var loadErrs []LoadError
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == ScopeConfigFile {
			continue
		}
		if ext := filepath.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		rules, errs := loadRuleFile(path, scope)
		layer.Rules = append(layer.Rules, rules...)
		loadErrs = append(loadErrs, errs...)
	}
	return layer, loadErrs, true
}

// loadRuleFile parses one document. A document may hold a single rule
// mapping or a sequence of rules.
func loadRuleFile(path string, scope rule.Scope) ([]*rule.Rule, []LoadError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []LoadError{{Path: path, Kind: ErrorParse, Message: err.Error()}}
	}

	var docs []*rule.Rule
	if isSequence(data) {
		if err := yaml.Unmarshal(data, &docs); err != nil {
			return nil, []LoadError{{Path: path, Kind: ErrorParse, Message: err.Error()}}
		}
	} else {
		var r rule.Rule
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, []LoadError{{Path: path, Kind: ErrorParse, Message: err.Error()}}
		}
		docs = []*rule.Rule{&r}
	}

	var rules []*rule.Rule
	var errs []LoadError
	for _, r := range docs {
		if r == nil {
			continue
		}
		applyDefaults(r, scope)
		if err := r.Validate(); err != nil {
			errs = append(errs, LoadError{Path: path, Kind: ErrorValidation, Message: err.Error()})
			continue
		}
		rules = append(rules, r)
	}
	return rules, errs
}

// isSequence sniffs whether the YAML document's root is a sequence.
func isSequence(data []byte) bool {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return false
	}
	return len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode
}

// applyDefaults fills the fields a rule document may legitimately omit.
// The defining layer always determines the scope.
func applyDefaults(r *rule.Rule, scope rule.Scope) {
	r.Scope = scope
	if r.Metadata.Status == "" {
		r.Metadata.Status = rule.StatusActive
	}
	if r.Metadata.Version == "" {
		r.Metadata.Version = "1.0.0"
	}
	if r.Created == "" {
		r.Created = time.Now().UTC().Format(time.RFC3339)
	}
	r.Category = strings.Trim(r.Category, "/")
}

// loadScopeConfig reads scope.yaml from dir. The second return value is
// false when no config exists or it cannot be parsed.
func (l *Loader) loadScopeConfig(dir string) (ScopeConfig, bool) {
	path := filepath.Join(dir, ScopeConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return ScopeConfig{}, false
	}
	cfg := DefaultScopeConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		l.logger.Warn("ignoring malformed scope config",
			slog.String("path", path), slog.String("error", err.Error()))
		return ScopeConfig{}, false
	}
	if err := ValidateStrategy(cfg.MergeStrategy); err != nil {
		l.logger.Warn("ignoring scope config", slog.String("path", path), slog.String("error", err.Error()))
		return ScopeConfig{}, false
	}
	if err := ValidateResolution(cfg.ConflictResolution); err != nil {
		l.logger.Warn("ignoring scope config", slog.String("path", path), slog.String("error", err.Error()))
		return ScopeConfig{}, false
	}
	return cfg, true
}
