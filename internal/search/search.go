// Package search ranks headers against a free-text query. Exact matches come
// first, then partial (substring) matches, each tier in registry order.
package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/gubarz/wikimd/internal/parser"
)

const (
	// MaxPartial caps the partial tier before it is appended to the exact tier
	MaxPartial = 10
	// MaxShown is how many results get a numeric shortcut
	MaxShown = 9
)

// Results is the ranked result list of one query
type Results struct {
	Query string
	All   []parser.HeaderEntry
}

// Top returns the results offered for display
func (r Results) Top() []parser.HeaderEntry {
	if len(r.All) > MaxShown {
		return r.All[:MaxShown]
	}
	return r.All
}

// Len returns the number of results before display truncation
func (r Results) Len() int {
	return len(r.All)
}

// Pick returns the n-th result (1-based) from the full list
func (r Results) Pick(n int) (parser.HeaderEntry, bool) {
	if n < 1 || n > len(r.All) {
		return parser.HeaderEntry{}, false
	}
	return r.All[n-1], true
}

// Search classifies each header as an exact or partial match of query.
// A blank query yields no results.
func Search(query string, headers []parser.HeaderEntry, caseSensitive bool) Results {
	query = strings.TrimSpace(query)
	if query == "" {
		return Results{}
	}

	fold := func(s string) string { return s }
	if !caseSensitive {
		folder := cases.Fold()
		fold = folder.String
	}
	needle := fold(query)

	var exact, partial []parser.HeaderEntry
	for _, h := range headers {
		text := fold(h.Text)
		switch {
		case text == needle:
			exact = append(exact, h)
		case strings.Contains(text, needle):
			partial = append(partial, h)
		}
	}
	if len(partial) > MaxPartial {
		partial = partial[:MaxPartial]
	}

	all := make([]parser.HeaderEntry, 0, len(exact)+len(partial))
	all = append(all, exact...)
	all = append(all, partial...)
	return Results{Query: query, All: all}
}
