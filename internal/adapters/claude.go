// Package adapters implements sync.Adapter for the supported AI coding
// assistants. Each adapter owns one platform file format: Claude renders a
// managed markdown section inside CLAUDE.md, Cursor renders a YAML document
// stream in .cursorrules. Formats are lossy on purpose; whatever a format
// cannot express is filled back in by the sync manager's completion step.
package adapters

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/mgalvez/rulekeeper/internal/rule"
	"github.com/mgalvez/rulekeeper/internal/sync"
)

//go:embed templates/claude.md.tmpl
var claudeTemplate string

// Markers delimit the managed section inside CLAUDE.md. Content outside
// the markers belongs to the user and is preserved on write.
const (
	claudeBeginMarker = "<!-- rulekeeper:begin -->"
	claudeEndMarker   = "<!-- rulekeeper:end -->"
)

var (
	ruleCommentRe = regexp.MustCompile(`<!--\s*rule\s+(.*?)\s*-->`)
	ruleAttrRe    = regexp.MustCompile(`(\w+)="([^"]*)"`)
)

// Claude syncs rules with a CLAUDE.md instruction file. Each rule is a
// "###" heading followed by an attribute comment and the description; the
// attribute comment carries the fields markdown prose cannot.
type Claude struct {
	path string
	tmpl *template.Template
}

// NewClaude creates a Claude adapter over the given CLAUDE.md path.
func NewClaude(path string) (*Claude, error) {
	tmpl, err := template.New("claude").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(claudeTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing claude template: %w", err)
	}
	return &Claude{path: path, tmpl: tmpl}, nil
}

func (c *Claude) Name() string { return "claude" }

// Read returns the file's content. A missing file reads as empty: the
// first sync against a fresh checkout is not an error.
func (c *Claude) Read(context.Context) (string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", c.path, err)
	}
	return string(data), nil
}

// Parse extracts partial rules from the managed section. Text outside the
// markers is ignored; if no markers exist the whole text is scanned, so a
// hand-written CLAUDE.md in the rule layout still imports.
func (c *Claude) Parse(text string) ([]sync.PartialRule, error) {
	section := text
	if inner, ok := managedSection(text); ok {
		section = inner
	}

	var (
		partials []sync.PartialRule
		current  *sync.PartialRule
		desc     []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(strings.Join(desc, "\n"))
		partials = append(partials, *current)
		current, desc = nil, nil
	}

	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "### "):
			flush()
			current = &sync.PartialRule{Name: strings.TrimSpace(strings.TrimPrefix(line, "### "))}
		case current != nil && ruleCommentRe.MatchString(line):
			applyClaudeAttrs(current, ruleCommentRe.FindStringSubmatch(line)[1])
		case current != nil:
			desc = append(desc, line)
		}
	}
	flush()
	return partials, nil
}

// Format renders the managed section for the full rule set.
func (c *Claude) Format(rules []*rule.Rule) (string, error) {
	var b strings.Builder
	err := c.tmpl.Execute(&b, struct{ Rules []*rule.Rule }{Rules: rules})
	if err != nil {
		return "", fmt.Errorf("rendering claude rules: %w", err)
	}
	return b.String(), nil
}

// Write splices the formatted section into the file between the markers,
// leaving the user's own content untouched. A file without markers gets
// the section appended; a missing file is created.
func (c *Claude) Write(_ context.Context, text string) error {
	existing, err := os.ReadFile(c.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", c.path, err)
	}

	block := claudeBeginMarker + "\n" + strings.TrimRight(text, "\n") + "\n" + claudeEndMarker
	content := string(existing)
	begin := strings.Index(content, claudeBeginMarker)
	end := strings.Index(content, claudeEndMarker)
	switch {
	case begin >= 0 && end > begin:
		content = content[:begin] + block + content[end+len(claudeEndMarker):]
	case content == "":
		content = block + "\n"
	default:
		content = strings.TrimRight(content, "\n") + "\n\n" + block + "\n"
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", c.path, err)
	}
	if err := os.WriteFile(c.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	return nil
}

// managedSection returns the text between the markers.
func managedSection(text string) (string, bool) {
	begin := strings.Index(text, claudeBeginMarker)
	end := strings.Index(text, claudeEndMarker)
	if begin < 0 || end <= begin {
		return "", false
	}
	return text[begin+len(claudeBeginMarker) : end], true
}

// applyClaudeAttrs fills a partial from the rule attribute comment.
// Unknown attributes and invalid severities are skipped, not errors: a
// hand-edited comment should not abort the whole import.
func applyClaudeAttrs(p *sync.PartialRule, attrs string) {
	for _, m := range ruleAttrRe.FindAllStringSubmatch(attrs, -1) {
		key, value := m[1], m[2]
		switch key {
		case "id":
			p.ID = value
		case "category":
			p.Category = value
		case "severity":
			if rule.ValidateSeverity(rule.Severity(value)) == nil {
				p.Severity = rule.Severity(value)
			}
		case "tags":
			for _, tag := range strings.Split(value, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					p.Tags = append(p.Tags, tag)
				}
			}
		}
	}
}
