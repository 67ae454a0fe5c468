package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgalvez/rulekeeper/internal/rule"
	"github.com/mgalvez/rulekeeper/internal/sync"
)

func adapterRule(id string) *rule.Rule {
	return &rule.Rule{
		ID:          id,
		Name:        "Rule " + id,
		Description: "Description of " + id + ".",
		Category:    "code/style",
		Tags:        []string{"go", "style"},
		Severity:    rule.SeverityWarning,
		Metadata:    rule.Metadata{Status: rule.StatusActive, Version: "1.0.0"},
	}
}

// --- Interface compliance ---

var (
	_ sync.Adapter = (*Claude)(nil)
	_ sync.Adapter = (*Cursor)(nil)
)

// --- Format / Parse round trip ---

func TestClaudeFormatParseRoundTrip(t *testing.T) {
	c, err := NewClaude(filepath.Join(t.TempDir(), "CLAUDE.md"))
	if err != nil {
		t.Fatal(err)
	}

	text, err := c.Format([]*rule.Rule{adapterRule("no-panics"), adapterRule("wrap-errors")})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	partials, err := c.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(partials) != 2 {
		t.Fatalf("parsed %d rules, want 2", len(partials))
	}

	p := partials[0]
	if p.ID != "no-panics" || p.Name != "Rule no-panics" {
		t.Errorf("identity = %s / %s", p.ID, p.Name)
	}
	if p.Description != "Description of no-panics." {
		t.Errorf("description = %q", p.Description)
	}
	if p.Category != "code/style" || p.Severity != rule.SeverityWarning {
		t.Errorf("category/severity = %s / %s", p.Category, p.Severity)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "go" {
		t.Errorf("tags = %v", p.Tags)
	}
}

func TestClaudeParseIgnoresProseOutsideMarkers(t *testing.T) {
	c, err := NewClaude(filepath.Join(t.TempDir(), "CLAUDE.md"))
	if err != nil {
		t.Fatal(err)
	}
	text := "# My project\n\n### Not a rule heading\n\n" +
		"<!-- rulekeeper:begin -->\n" +
		"### Real rule\n" +
		"<!-- rule id=\"real\" severity=\"error\" -->\n" +
		"The only rule.\n" +
		"<!-- rulekeeper:end -->\n"

	partials, err := c.Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(partials) != 1 || partials[0].ID != "real" {
		t.Fatalf("partials = %+v, want just the managed rule", partials)
	}
	if partials[0].Severity != rule.SeverityError {
		t.Errorf("severity = %s", partials[0].Severity)
	}
}

func TestClaudeParseSkipsInvalidSeverity(t *testing.T) {
	c, err := NewClaude(filepath.Join(t.TempDir(), "CLAUDE.md"))
	if err != nil {
		t.Fatal(err)
	}
	partials, err := c.Parse("### R\n<!-- rule id=\"r\" severity=\"shout\" -->\nText.\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(partials) != 1 || partials[0].Severity != "" {
		t.Errorf("invalid severity must stay undeclared, got %+v", partials)
	}
}

// --- Write ---

func TestClaudeWritePreservesUserContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLAUDE.md")
	userText := "# My project\n\nHand-written notes.\n\n" +
		"<!-- rulekeeper:begin -->\nold managed content\n<!-- rulekeeper:end -->\n\nTrailing notes.\n"
	if err := os.WriteFile(path, []byte(userText), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewClaude(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Write(context.Background(), "new managed content\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{"Hand-written notes.", "Trailing notes.", "new managed content"} {
		if !strings.Contains(got, want) {
			t.Errorf("file missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "old managed content") {
		t.Error("stale managed content not replaced")
	}
}

func TestClaudeWriteCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "CLAUDE.md")
	c, err := NewClaude(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Write(context.Background(), "content\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<!-- rulekeeper:begin -->") {
		t.Error("created file must carry the managed markers")
	}
}

// --- Read ---

func TestClaudeReadMissingFileIsEmpty(t *testing.T) {
	c, err := NewClaude(filepath.Join(t.TempDir(), "CLAUDE.md"))
	if err != nil {
		t.Fatal(err)
	}
	text, err := c.Read(context.Background())
	if err != nil || text != "" {
		t.Errorf("Read on missing file = (%q, %v), want empty and nil", text, err)
	}
}
