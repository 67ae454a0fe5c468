package search

import (
	"sort"
	"strings"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// Similarity component weights; they sum to 1.0.
const (
	simWeightName        = 0.3
	simWeightDescription = 0.3
	simWeightTags        = 0.2
	simWeightCategory    = 0.1
	simWeightExamples    = 0.1
)

// Bigrams returns the set of character bigrams of the case-folded text.
func Bigrams(text string) map[string]bool {
	runes := []rune(strings.ToLower(text))
	set := make(map[string]bool, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = true
	}
	return set
}

// Jaccard computes |A∩B| / |A∪B|. Two empty sets count as identical; a
// non-empty set against an empty one scores zero.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Similarity scores how alike two rules are, in [0, 1]: bigram Jaccard on
// name and description, tag-set Jaccard, category segment-prefix ratio,
// and bigram Jaccard over example text.
func Similarity(a, b *rule.Rule) float64 {
	score := simWeightName * Jaccard(Bigrams(a.Name), Bigrams(b.Name))
	score += simWeightDescription * Jaccard(Bigrams(a.Description), Bigrams(b.Description))
	score += simWeightTags * Jaccard(tagSet(a), tagSet(b))
	score += simWeightCategory * categoryPrefixRatio(a.Category, b.Category)
	score += simWeightExamples * Jaccard(Bigrams(exampleText(a)), Bigrams(exampleText(b)))
	return score
}

// Similar pairs a rule with its similarity to the query rule.
type Similar struct {
	Rule  *rule.Rule
	Score float64
}

// FindSimilar returns every rule scoring at or above threshold against the
// query rule, sorted descending, excluding the query rule itself. It backs
// duplicate-rule detection.
func FindSimilar(rules []*rule.Rule, query *rule.Rule, threshold float64) []Similar {
	var out []Similar
	for _, r := range rules {
		if r.ID == query.ID {
			continue
		}
		if score := Similarity(query, r); score >= threshold {
			out = append(out, Similar{Rule: r, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func tagSet(r *rule.Rule) map[string]bool {
	set := make(map[string]bool, len(r.Tags))
	for _, t := range r.Tags {
		set[strings.ToLower(t)] = true
	}
	return set
}

// categoryPrefixRatio counts matching leading path segments against the
// longer path: "code/naming" vs "code/naming" is 1, "code/naming" vs
// "code/style" is 0.5, disjoint roots are 0.
func categoryPrefixRatio(a, b string) float64 {
	as := splitCategory(a)
	bs := splitCategory(b)
	if len(as) == 0 && len(bs) == 0 {
		return 1
	}
	longest := len(as)
	if len(bs) > longest {
		longest = len(bs)
	}
	if longest == 0 {
		return 0
	}
	matched := 0
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			break
		}
		matched++
	}
	return float64(matched) / float64(longest)
}

func splitCategory(c string) []string {
	c = strings.Trim(strings.ToLower(c), "/")
	if c == "" {
		return nil
	}
	return strings.Split(c, "/")
}
