package loader

import (
	"fmt"
	"sort"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// --- Merge strategy enum ---

// MergeStrategy is the policy for combining same-id rules across scopes.
type MergeStrategy string

const (
	StrategyOverride MergeStrategy = "override" // highest-priority definition wins
	StrategyMerge    MergeStrategy = "merge"    // field-wise combine
	StrategyAppend   MergeStrategy = "append"   // independent unless ids collide
)

var validStrategies = map[MergeStrategy]bool{
	StrategyOverride: true,
	StrategyMerge:    true,
	StrategyAppend:   true,
}

// ValidateStrategy returns an error if the strategy is not recognized.
func ValidateStrategy(s MergeStrategy) error {
	if !validStrategies[s] {
		return fmt.Errorf("invalid merge strategy %q: must be one of: override, merge, append", s)
	}
	return nil
}

// --- Conflict resolution enum ---

// ConflictResolution decides the winner when a strategy cannot.
type ConflictResolution string

const (
	ResolveLocalWins  ConflictResolution = "local-wins"  // most specific scope wins
	ResolveParentWins ConflictResolution = "parent-wins" // broadest scope wins
	ResolveManual     ConflictResolution = "manual"      // surface, decide externally
)

var validResolutions = map[ConflictResolution]bool{
	ResolveLocalWins:  true,
	ResolveParentWins: true,
	ResolveManual:     true,
}

// ValidateResolution returns an error if the policy is not recognized.
func ValidateResolution(r ConflictResolution) error {
	if !validResolutions[r] {
		return fmt.Errorf("invalid conflict resolution %q: must be one of: local-wins, parent-wins, manual", r)
	}
	return nil
}

// --- Merge ---

// MergeConflict records one same-id collision across scope layers.
// Resolution "auto" carries the winning scope; "manual" carries no winner
// and the rule is withheld from the merged list until decided externally.
type MergeConflict struct {
	RuleID     string   `json:"ruleId"`
	Sources    []string `json:"sources"` // contributing scopes, priority ascending
	Resolution string   `json:"resolution"`
	Winner     string   `json:"winner,omitempty"`
}

// MergeResult is the outcome of combining the scope layers.
type MergeResult struct {
	Rules     []*rule.Rule
	Conflicts []MergeConflict
}

// Merge combines the layers under the given strategy and policy. Layers
// must be ordered priority ascending (global first). Output ordering is
// deterministic: rules sorted by id.
//
// A "manual" policy blocks every colliding rule: the conflict is surfaced
// with no winner and the rule is excluded from the result, rather than
// guessing a default.
func Merge(layers []Layer, strategy MergeStrategy, policy ConflictResolution) MergeResult {
	type contribution struct {
		layer int
		r     *rule.Rule
	}
	byID := make(map[string][]contribution)
	var order []string
	for i, layer := range layers {
		for _, r := range layer.Rules {
			if _, seen := byID[r.ID]; !seen {
				order = append(order, r.ID)
			}
			byID[r.ID] = append(byID[r.ID], contribution{layer: i, r: r})
		}
	}
	sort.Strings(order)

	var result MergeResult
	for _, id := range order {
		contribs := byID[id]
		if len(contribs) == 1 {
			result.Rules = append(result.Rules, contribs[0].r.Clone())
			continue
		}

		sources := make([]string, len(contribs))
		for i, c := range contribs {
			sources[i] = string(layers[c.layer].Scope)
		}

		if policy == ResolveManual {
			result.Conflicts = append(result.Conflicts, MergeConflict{
				RuleID:     id,
				Sources:    sources,
				Resolution: "manual",
			})
			continue
		}

		var winner *rule.Rule
		var winnerScope rule.Scope
		switch strategy {
		case StrategyMerge:
			higher := make([]*rule.Rule, 0, len(contribs)-1)
			for _, c := range contribs[1:] {
				higher = append(higher, c.r)
			}
			winner = mergeFieldwise(contribs[0].r, higher)
			winnerScope = layers[contribs[len(contribs)-1].layer].Scope
		case StrategyAppend:
			// Same-id rules literally collide; fall back to the policy.
			if policy == ResolveParentWins {
				winner = contribs[0].r.Clone()
				winnerScope = layers[contribs[0].layer].Scope
			} else {
				winner = contribs[len(contribs)-1].r.Clone()
				winnerScope = layers[contribs[len(contribs)-1].layer].Scope
			}
		default: // StrategyOverride
			winner = contribs[len(contribs)-1].r.Clone()
			winnerScope = layers[contribs[len(contribs)-1].layer].Scope
		}

		result.Rules = append(result.Rules, winner)
		result.Conflicts = append(result.Conflicts, MergeConflict{
			RuleID:     id,
			Sources:    sources,
			Resolution: "auto",
			Winner:     string(winnerScope),
		})
	}
	return result
}

// mergeFieldwise combines same-id rules priority ascending: array fields
// concatenate and dedupe, scalar fields take the highest-priority non-empty
// value.
func mergeFieldwise(base *rule.Rule, higher []*rule.Rule) *rule.Rule {
	merged := base.Clone()
	for _, h := range higher {
		overlayScalars(merged, h)
		merged.Tags = rule.MergeStringSets(merged.Tags, h.Tags)
		merged.Related = rule.MergeStringSets(merged.Related, h.Related)
		merged.Deps.Requires = rule.MergeStringSets(merged.Deps.Requires, h.Deps.Requires)
		merged.Deps.Conflicts = rule.MergeStringSets(merged.Deps.Conflicts, h.Deps.Conflicts)
		mergeExamples(merged, h)
		mergeConditions(merged, h)
	}
	return merged
}

func overlayScalars(dst, src *rule.Rule) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Category != "" {
		dst.Category = src.Category
	}
	if src.Severity != "" {
		dst.Severity = src.Severity
	}
	if src.Exceptions != "" {
		dst.Exceptions = src.Exceptions
	}
	if src.Deps.Extends != "" {
		dst.Deps.Extends = src.Deps.Extends
	}
	if src.Deps.ReplacedBy != "" {
		dst.Deps.ReplacedBy = src.Deps.ReplacedBy
	}
	if src.Metadata.Status != "" {
		dst.Metadata.Status = src.Metadata.Status
	}
	if src.Metadata.Version != "" {
		dst.Metadata.Version = src.Metadata.Version
	}
	dst.Scope = src.Scope
}

func mergeExamples(dst, src *rule.Rule) {
	if src.Examples == nil {
		return
	}
	if dst.Examples == nil {
		dst.Examples = &rule.Examples{}
	}
	dst.Examples.Good = rule.MergeStringSets(dst.Examples.Good, src.Examples.Good)
	dst.Examples.Bad = rule.MergeStringSets(dst.Examples.Bad, src.Examples.Bad)
}

func mergeConditions(dst, src *rule.Rule) {
	if src.Conditions == nil {
		return
	}
	if dst.Conditions == nil {
		dst.Conditions = &rule.Conditions{}
	}
	dst.Conditions.FilePatterns = rule.MergeStringSets(dst.Conditions.FilePatterns, src.Conditions.FilePatterns)
	dst.Conditions.Branches = rule.MergeStringSets(dst.Conditions.Branches, src.Conditions.Branches)
	dst.Conditions.Environments = rule.MergeStringSets(dst.Conditions.Environments, src.Conditions.Environments)
	if src.Conditions.ActiveFrom != "" {
		dst.Conditions.ActiveFrom = src.Conditions.ActiveFrom
	}
	if src.Conditions.ActiveUntil != "" {
		dst.Conditions.ActiveUntil = src.Conditions.ActiveUntil
	}
}
