package parser

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// HeaderEntry is one header line found while scanning
type HeaderEntry struct {
	Path    string // Source file path
	Line    int    // 1-based line number
	Text    string // Display text from ParseHeader
	Preview string // Up to PreviewLength runes of the following lines
	Depth   int    // Header level
}

// KeywordTarget is where a keyword alias links to
type KeywordTarget struct {
	Path string
	Line int
	Text string
}

// KeywordIndex maps keyword aliases to their declaring header
type KeywordIndex map[string]KeywordTarget

// Index holds the result of scanning one or more roots.
// An Index is never mutated after it is returned; Merge builds a new one.
type Index struct {
	Keywords KeywordIndex
	Headers  []HeaderEntry
	Files    []string
	Roots    []string
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		Keywords: make(KeywordIndex),
		Headers:  make([]HeaderEntry, 0),
		Files:    make([]string, 0),
	}
}

// Merge returns a new index where override's keywords replace the receiver's
// for the same alias. Headers, files and roots are concatenated in order.
func (idx *Index) Merge(override *Index) *Index {
	merged := NewIndex()
	for _, src := range []*Index{idx, override} {
		if src == nil {
			continue
		}
		for kw, target := range src.Keywords {
			merged.Keywords[kw] = target
		}
		merged.Headers = append(merged.Headers, src.Headers...)
		merged.Files = append(merged.Files, src.Files...)
		merged.Roots = append(merged.Roots, src.Roots...)
	}
	return merged
}

// add registers a keyword unless an earlier header already claimed it
func (k KeywordIndex) add(keyword string, target KeywordTarget) bool {
	if _, exists := k[keyword]; exists {
		return false
	}
	k[keyword] = target
	return true
}

// SortedKeys returns the aliases longest first so longer keywords win over
// their substrings. Equal lengths are ordered lexicographically.
func (k KeywordIndex) SortedKeys() []string {
	keys := make([]string, 0, len(k))
	for kw := range k {
		keys = append(keys, kw)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(keys[i]), utf8.RuneCountInString(keys[j])
		if li != lj {
			return li > lj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Resolve looks up the target for a clicked keyword. When the exact key is
// missing and caseSensitive is false, keys are compared case-folded in
// SortedKeys order.
func (k KeywordIndex) Resolve(word string, caseSensitive bool) (KeywordTarget, bool) {
	if target, ok := k[word]; ok {
		return target, true
	}
	if caseSensitive {
		return KeywordTarget{}, false
	}
	for _, kw := range k.SortedKeys() {
		if strings.EqualFold(kw, word) {
			return k[kw], true
		}
	}
	return KeywordTarget{}, false
}
