// Package search provides the tag/keyword inverted indices, weighted
// keyword search, composite filtered search, and the bigram-Jaccard
// similarity scoring that backs near-duplicate detection.
//
// The Index is a derived view over the store: it is rebuilt wholesale on
// every load or mutation and never updated incrementally. Rebuilding is
// cheap at rule-set scale and keeps the index trivially consistent.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// Index maps tags and keywords to the rule ids carrying them. Tags match
// exactly (case-insensitive); keywords are tokenized from name and
// description.
type Index struct {
	tags     map[string][]string
	keywords map[string][]string
}

// BuildIndex constructs both inverted indices from the given rules.
// Posting lists are sorted for deterministic results.
func BuildIndex(rules []*rule.Rule) *Index {
	idx := &Index{
		tags:     make(map[string][]string),
		keywords: make(map[string][]string),
	}
	for _, r := range rules {
		for _, tag := range r.Tags {
			key := strings.ToLower(tag)
			idx.tags[key] = append(idx.tags[key], r.ID)
		}
		for _, token := range Tokenize(r.Name + " " + r.Description) {
			idx.keywords[token] = appendUnique(idx.keywords[token], r.ID)
		}
	}
	for _, m := range []map[string][]string{idx.tags, idx.keywords} {
		for k := range m {
			sort.Strings(m[k])
		}
	}
	return idx
}

// ByTag returns the ids carrying the tag (case-insensitive), sorted.
func (idx *Index) ByTag(tag string) []string {
	return idx.tags[strings.ToLower(tag)]
}

// ByKeyword returns the ids whose name or description contains the token.
func (idx *Index) ByKeyword(token string) []string {
	return idx.keywords[strings.ToLower(token)]
}

// Tags returns every indexed tag, sorted.
func (idx *Index) Tags() []string {
	out := make([]string, 0, len(idx.tags))
	for t := range idx.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tokenize case-folds the text, strips non-alphanumeric characters, and
// discards tokens of length one or less.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	runes := 0 // length in runes, not bytes
	flush := func() {
		if runes > 1 {
			tokens = append(tokens, b.String())
		}
		b.Reset()
		runes = 0
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			runes++
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}
