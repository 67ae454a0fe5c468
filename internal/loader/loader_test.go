package loader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// --- Fixture helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const ruleDoc = `id: naming-001
name: Use camelCase
description: Local variables use camelCase.
category: code/naming
severity: warning
tags: [naming]
`

func TestLoadForPathSingleScope(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, RulesDirName), "naming.yaml", ruleDoc)

	result, err := New("", nil).LoadForPath(root, "")
	if err != nil {
		t.Fatalf("LoadForPath() = %v", err)
	}
	if len(result.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(result.Rules))
	}
	r := result.Rules[0]
	if r.ID != "naming-001" || r.Scope != rule.ScopeProject {
		t.Errorf("rule = %s/%s, want naming-001 in project scope", r.ID, r.Scope)
	}
	// Defaults filled.
	if r.Metadata.Status != rule.StatusActive || r.Metadata.Version != "1.0.0" {
		t.Errorf("defaults not applied: %+v", r.Metadata)
	}
	if len(result.Sources) != 1 {
		t.Errorf("sources = %v, want the project rules dir", result.Sources)
	}
}

func TestLoadForPathLayersGlobalAndPackage(t *testing.T) {
	global := t.TempDir()
	root := t.TempDir()
	writeFile(t, global, "naming.yaml", ruleDoc)
	writeFile(t, filepath.Join(root, "pkg/api", RulesDirName), "naming.yaml",
		`id: naming-001
name: Use camelCase
description: Stricter in the API package.
category: code/naming
severity: error
`)

	result, err := New(global, nil).LoadForPath(root, "pkg/api")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(result.Rules))
	}
	if result.Rules[0].Severity != rule.SeverityError {
		t.Errorf("severity = %s, want error (package scope overrides global)", result.Rules[0].Severity)
	}
	if result.Rules[0].Scope != rule.ScopePackage {
		t.Errorf("scope = %s, want package", result.Rules[0].Scope)
	}
}

func TestLoadCollectsPerFileErrors(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, RulesDirName)
	writeFile(t, dir, "good.yaml", ruleDoc)
	writeFile(t, dir, "broken.yaml", "id: [unclosed")
	writeFile(t, dir, "invalid.yaml", "id: x\nname: X\n") // missing description etc.

	result, err := New("", nil).LoadForPath(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rules) != 1 {
		t.Errorf("got %d rules, want 1 (bad files must not abort the batch)", len(result.Rules))
	}
	if len(result.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(result.Errors), result.Errors)
	}
	kinds := map[ErrorKind]int{}
	for _, e := range result.Errors {
		kinds[e.Kind]++
	}
	if kinds[ErrorParse] != 1 || kinds[ErrorValidation] != 1 {
		t.Errorf("error kinds = %v, want one parse and one validation", kinds)
	}
}

func TestLoadRuleListDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, RulesDirName), "all.yaml",
		`- id: a
  name: A
  description: First.
  category: code
  severity: info
- id: b
  name: B
  description: Second.
  category: code
  severity: info
`)
	result, err := New("", nil).LoadForPath(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := rule.SortedIDs(result.Rules); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("ids = %v, want [a b]", got)
	}
}

func TestScopeConfigDrivesMerge(t *testing.T) {
	global := t.TempDir()
	root := t.TempDir()
	writeFile(t, global, "naming.yaml", ruleDoc)
	dir := filepath.Join(root, RulesDirName)
	writeFile(t, dir, "naming.yaml", ruleDoc)
	writeFile(t, dir, ScopeConfigFile, "mergeStrategy: override\nconflictResolution: manual\n")

	result, err := New(global, nil).LoadForPath(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Config.ConflictResolution != ResolveManual {
		t.Fatalf("config = %+v, want manual conflict resolution", result.Config)
	}
	if len(result.Rules) != 0 || len(result.Conflicts) != 1 {
		t.Errorf("got %d rules / %d conflicts, want 0 / 1 under manual policy",
			len(result.Rules), len(result.Conflicts))
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, RulesDirName)
	writeFile(t, dir, "b.yaml", "id: b\nname: B\ndescription: D.\ncategory: c\nseverity: info\n")
	writeFile(t, dir, "a.yaml", "id: a\nname: A\ndescription: D.\ncategory: c\nseverity: info\n")

	l := New("", nil)
	first, err := l.LoadForPath(root, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.LoadForPath(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rule.SortedIDs(first.Rules), rule.SortedIDs(second.Rules)) {
		t.Error("two loads over identical contents must agree")
	}
	if first.Rules[0].ID != "a" {
		t.Errorf("first rule = %s, want a (sorted output)", first.Rules[0].ID)
	}
}
