package version

import (
	"fmt"
	"time"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Create assigns the next version to a rule and appends a changelog entry
// snapshotting the state immediately prior. Call it with the rule still in
// its pre-change state, then apply the field changes: the snapshot must be
// taken before any mutation.
//
// The rule's version only moves forward; history is append-only.
func Create(r *rule.Rule, changes, author string, bump Bump) (string, error) {
	current := r.Metadata.Version
	next, err := Increment(current, bump)
	if err != nil {
		return "", fmt.Errorf("rule %q: %w", r.ID, err)
	}

	snapshot := r.Clone()
	snapshot.Metadata.Changelog = nil // snapshots capture state, not history

	now := timeNow().UTC().Format(time.RFC3339)
	r.Metadata.Changelog = append(r.Metadata.Changelog, rule.ChangelogEntry{
		Version:  next,
		Date:     now,
		Author:   author,
		Changes:  changes,
		Snapshot: snapshot,
	})
	r.Metadata.Version = next
	r.Updated = now
	return next, nil
}

// SnapshotAt reconstructs the rule's state at the given version from its
// changelog. The current version resolves to the live rule. Every other
// version resolves through the stored snapshots, whose own version field
// identifies the state they capture.
func SnapshotAt(r *rule.Rule, version string) (*rule.Rule, error) {
	if _, _, _, err := Parse(version); err != nil {
		return nil, err
	}
	if version == r.Metadata.Version {
		return r.Clone(), nil
	}
	// Later entries supersede earlier ones for the same version (a rollback
	// may revisit state); scan newest first.
	for i := len(r.Metadata.Changelog) - 1; i >= 0; i-- {
		e := r.Metadata.Changelog[i]
		if e.Snapshot != nil && e.Snapshot.Metadata.Version == version {
			return e.Snapshot.Clone(), nil
		}
	}
	return nil, fmt.Errorf("rule %q has no recorded state for version %s", r.ID, version)
}

// Rollback restores the rule's content to its state at targetVersion and
// records the rollback as a new changelog entry. Intervening history is
// kept: rollback extends the changelog, it never deletes from it.
func Rollback(r *rule.Rule, targetVersion, author string) error {
	target, err := SnapshotAt(r, targetVersion)
	if err != nil {
		return err
	}

	next, err := Increment(r.Metadata.Version, BumpPatch)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.ID, err)
	}
	snapshot := r.Clone()
	snapshot.Metadata.Changelog = nil

	now := timeNow().UTC().Format(time.RFC3339)
	restoreContent(r, target)
	r.Metadata.Changelog = append(r.Metadata.Changelog, rule.ChangelogEntry{
		Version:  next,
		Date:     now,
		Author:   author,
		Changes:  fmt.Sprintf("rollback to version %s", targetVersion),
		Snapshot: snapshot,
	})
	r.Metadata.Version = next
	r.Updated = now
	return nil
}

// restoreContent copies every content field from src onto dst, leaving
// identity (id, created) and history (version, changelog) untouched.
func restoreContent(dst, src *rule.Rule) {
	clone := src.Clone()
	dst.Name = clone.Name
	dst.Description = clone.Description
	dst.Category = clone.Category
	dst.Tags = clone.Tags
	dst.Severity = clone.Severity
	dst.Examples = clone.Examples
	dst.Exceptions = clone.Exceptions
	dst.Related = clone.Related
	dst.Scope = clone.Scope
	dst.Deps = clone.Deps
	dst.Conditions = clone.Conditions
	dst.Metadata.Status = clone.Metadata.Status
}
