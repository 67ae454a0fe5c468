package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mgalvez/rulekeeper/internal/rule"
	"github.com/mgalvez/rulekeeper/internal/sync"
)

const cursorHeader = "# Managed by rulekeeper. One YAML document per rule.\n"

// cursorRule is the .cursorrules document schema. It carries more fields
// than the Claude format but still drops examples, dependencies, and
// version history.
type cursorRule struct {
	ID          string   `yaml:"id,omitempty"`
	Name        string   `yaml:"name,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Severity    string   `yaml:"severity,omitempty"`
}

func (d cursorRule) isEmpty() bool {
	return d.ID == "" && d.Name == "" && d.Description == "" &&
		d.Category == "" && d.Severity == "" && len(d.Tags) == 0
}

// Cursor syncs rules with a .cursorrules file holding a YAML document
// stream, one document per rule.
type Cursor struct {
	path string
}

// NewCursor creates a Cursor adapter over the given .cursorrules path.
func NewCursor(path string) *Cursor {
	return &Cursor{path: path}
}

func (c *Cursor) Name() string { return "cursor" }

// Read returns the file's content; a missing file reads as empty.
func (c *Cursor) Read(context.Context) (string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", c.path, err)
	}
	return string(data), nil
}

// Parse decodes the YAML document stream into partial rules. Empty
// documents are skipped; a malformed document fails the whole parse, since
// a broken .cursorrules should be fixed rather than half-imported.
func (c *Cursor) Parse(text string) ([]sync.PartialRule, error) {
	var partials []sync.PartialRule
	dec := yaml.NewDecoder(strings.NewReader(text))
	for {
		var doc cursorRule
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing cursor rules: %w", err)
		}
		if doc.isEmpty() {
			continue
		}
		p := sync.PartialRule{
			ID:          doc.ID,
			Name:        doc.Name,
			Description: doc.Description,
			Category:    doc.Category,
			Tags:        doc.Tags,
		}
		if rule.ValidateSeverity(rule.Severity(doc.Severity)) == nil {
			p.Severity = rule.Severity(doc.Severity)
		}
		partials = append(partials, p)
	}
	return partials, nil
}

// Format renders the full rule set as a YAML document stream.
func (c *Cursor) Format(rules []*rule.Rule) (string, error) {
	var b strings.Builder
	b.WriteString(cursorHeader)
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	for _, r := range rules {
		doc := cursorRule{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Category:    r.Category,
			Tags:        r.Tags,
			Severity:    string(r.Severity),
		}
		if err := enc.Encode(doc); err != nil {
			return "", fmt.Errorf("encoding rule %q for cursor: %w", r.ID, err)
		}
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding cursor rules: %w", err)
	}
	return b.String(), nil
}

// Write replaces the file wholesale. Unlike CLAUDE.md, .cursorrules is
// fully owned by the rule set.
func (c *Cursor) Write(_ context.Context, text string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", c.path, err)
	}
	if err := os.WriteFile(c.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	return nil
}
