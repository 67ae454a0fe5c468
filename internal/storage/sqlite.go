// Package storage persists the canonical rule set and its index document
// in SQLite. Rules are stored as JSON documents keyed by id with a few
// extracted columns for listing; the index document is a singleton row
// rebuilt from the full rule set on save.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound reports a missing rule or index document.
var ErrNotFound = errors.New("storage: not found")

// ─── Index document ──────────────────────────────────────────────────────────

// RuleRef is the lightweight per-rule entry in the index document.
type RuleRef struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Severity rule.Severity `json:"severity"`
}

// IndexMetadata describes when and over what the index was built.
type IndexMetadata struct {
	GeneratedAt string `json:"generatedAt"`
	RuleCount   int    `json:"ruleCount"`
}

// IndexDocument is the persisted summary of the rule set: categories, tags,
// and per-rule refs. It lets a consumer browse the set without loading
// every rule document.
type IndexDocument struct {
	Metadata   IndexMetadata `json:"metadata"`
	Categories []string      `json:"categories"`
	Tags       []string      `json:"tags"`
	Rules      []RuleRef     `json:"rules"`
}

// BuildIndexDocument derives an index document from the full rule set.
func BuildIndexDocument(rules []*rule.Rule) *IndexDocument {
	doc := &IndexDocument{
		Metadata: IndexMetadata{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			RuleCount:   len(rules),
		},
	}
	categories := make(map[string]bool)
	tags := make(map[string]bool)
	for _, r := range rules {
		doc.Rules = append(doc.Rules, RuleRef{ID: r.ID, Name: r.Name, Category: r.Category, Severity: r.Severity})
		if r.Category != "" {
			categories[r.Category] = true
		}
		for _, t := range r.Tags {
			tags[t] = true
		}
	}
	doc.Categories = sortedKeys(categories)
	doc.Tags = sortedKeys(tags)
	return doc
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed persistence boundary for rules and the index
// document.
type Store struct {
	db *sql.DB
}

// Open creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("storage: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("storage: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rules (
			id         TEXT PRIMARY KEY,
			category   TEXT NOT NULL,
			severity   TEXT NOT NULL,
			doc        TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_rules_category ON rules(category);
		CREATE INDEX IF NOT EXISTS idx_rules_severity ON rules(severity);

		CREATE TABLE IF NOT EXISTS index_document (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			doc          TEXT NOT NULL,
			generated_at TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Rules ───────────────────────────────────────────────────────────────────

// SaveRule upserts a rule document.
func (s *Store) SaveRule(r *rule.Rule) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("storage: marshal rule %q: %w", r.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO rules (id, category, severity, doc, updated_at)
		 VALUES (?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(id) DO UPDATE SET
		   category = excluded.category,
		   severity = excluded.severity,
		   doc = excluded.doc,
		   updated_at = datetime('now')`,
		r.ID, r.Category, string(r.Severity), string(doc),
	)
	if err != nil {
		return fmt.Errorf("storage: save rule %q: %w", r.ID, err)
	}
	return nil
}

// SaveRules upserts a batch of rules in one transaction.
func (s *Store) SaveRules(rules []*rule.Rule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range rules {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("storage: marshal rule %q: %w", r.ID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO rules (id, category, severity, doc, updated_at)
			 VALUES (?, ?, ?, ?, datetime('now'))
			 ON CONFLICT(id) DO UPDATE SET
			   category = excluded.category,
			   severity = excluded.severity,
			   doc = excluded.doc,
			   updated_at = datetime('now')`,
			r.ID, r.Category, string(r.Severity), string(doc),
		); err != nil {
			return fmt.Errorf("storage: save rule %q: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

// LoadRule retrieves one rule document by id.
func (s *Store) LoadRule(id string) (*rule.Rule, error) {
	var doc string
	err := s.db.QueryRow(`SELECT doc FROM rules WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load rule %q: %w", id, err)
	}
	var r rule.Rule
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("storage: unmarshal rule %q: %w", id, err)
	}
	return &r, nil
}

// DeleteRule removes a rule document. Deleting a missing rule is not an
// error.
func (s *Store) DeleteRule(id string) error {
	if _, err := s.db.Exec(`DELETE FROM rules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("storage: delete rule %q: %w", id, err)
	}
	return nil
}

// ListRules returns all rule documents ordered by id.
func (s *Store) ListRules() ([]*rule.Rule, error) {
	rows, err := s.db.Query(`SELECT doc FROM rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list rules: %w", err)
	}
	defer rows.Close()

	var rules []*rule.Rule
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var r rule.Rule
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("storage: unmarshal rule: %w", err)
		}
		rules = append(rules, &r)
	}
	return rules, rows.Err()
}

// ─── Index document ──────────────────────────────────────────────────────────

// SaveIndex replaces the singleton index document.
func (s *Store) SaveIndex(doc *IndexDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("storage: marshal index: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO index_document (id, doc, generated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, generated_at = excluded.generated_at`,
		string(data), doc.Metadata.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: save index: %w", err)
	}
	return nil
}

// LoadIndex retrieves the index document.
func (s *Store) LoadIndex() (*IndexDocument, error) {
	var data string
	err := s.db.QueryRow(`SELECT doc FROM index_document WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index document: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load index: %w", err)
	}
	var doc IndexDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("storage: unmarshal index: %w", err)
	}
	return &doc, nil
}
