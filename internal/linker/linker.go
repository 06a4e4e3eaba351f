// Package linker finds keyword occurrences in a body line and splits the line
// into plain and linked segments. Matching is longest-keyword-first, never
// overlaps, and only accepts matches on word boundaries.
package linker

import (
	"sort"
	"unicode"

	"github.com/gubarz/wikimd/internal/parser"
)

// Span is an accepted match in rune offsets [Start, End)
type Span struct {
	Start   int
	End     int
	Keyword string
}

// Segment is a piece of an annotated line. Keyword is empty for plain text,
// otherwise it is the index key to resolve and Text is the literal match.
type Segment struct {
	Text    string
	Keyword string
}

// IsLink reports whether the segment links to a keyword
func (s Segment) IsLink() bool {
	return s.Keyword != ""
}

// Linker annotates lines against a fixed keyword index
type Linker struct {
	index         parser.KeywordIndex
	keywords      []string
	caseSensitive bool
}

// New creates a linker for the index. The keyword priority order is computed once.
func New(index parser.KeywordIndex, caseSensitive bool) *Linker {
	return &Linker{
		index:         index,
		keywords:      index.SortedKeys(),
		caseSensitive: caseSensitive,
	}
}

// CaseSensitive reports the matching mode
func (l *Linker) CaseSensitive() bool {
	return l.caseSensitive
}

// Annotate splits a body line into segments
func (l *Linker) Annotate(line string) []Segment {
	return Segments(line, Spans(line, l.keywords, l.caseSensitive))
}

// Resolve finds the target of a linked segment
func (l *Linker) Resolve(keyword string) (parser.KeywordTarget, bool) {
	return l.index.Resolve(keyword, l.caseSensitive)
}

// Annotate splits a line using keywords in the given priority order. Callers
// holding an index should pass index.SortedKeys() or use a Linker.
func Annotate(line string, keywords []string, caseSensitive bool) []Segment {
	return Segments(line, Spans(line, keywords, caseSensitive))
}

// Spans returns the accepted, disjoint matches of keywords in line sorted by start.
// Keywords are tried in the order given; earlier keywords claim text first.
func Spans(line string, keywords []string, caseSensitive bool) []Span {
	text := []rune(line)
	if len(text) == 0 || len(keywords) == 0 {
		return nil
	}

	haystack := text
	if !caseSensitive {
		haystack = foldRunes(text)
	}

	occupied := make([]bool, len(text))
	var spans []Span

	for _, kw := range keywords {
		needle := []rune(kw)
		if len(needle) == 0 {
			continue
		}
		if !caseSensitive {
			needle = foldRunes(needle)
		}

		for from := 0; ; {
			start := indexRunes(haystack, needle, from)
			if start < 0 {
				break
			}
			end := start + len(needle)
			if boundaryBefore(text, start) && boundaryAfter(text, end) && free(occupied, start, end) {
				for i := start; i < end; i++ {
					occupied[i] = true
				}
				spans = append(spans, Span{Start: start, End: end, Keyword: kw})
			}
			from = end
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
	return spans
}

// Segments cuts line at the given sorted, disjoint spans
func Segments(line string, spans []Span) []Segment {
	if len(spans) == 0 {
		if line == "" {
			return nil
		}
		return []Segment{{Text: line}}
	}

	text := []rune(line)
	segments := make([]Segment, 0, len(spans)*2+1)
	last := 0
	for _, span := range spans {
		if span.Start > last {
			segments = append(segments, Segment{Text: string(text[last:span.Start])})
		}
		segments = append(segments, Segment{
			Text:    string(text[span.Start:span.End]),
			Keyword: span.Keyword,
		})
		last = span.End
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: string(text[last:])})
	}
	return segments
}

func boundaryBefore(text []rune, start int) bool {
	return start == 0 || !parser.IsWordChar(text[start-1])
}

func boundaryAfter(text []rune, end int) bool {
	return end == len(text) || !parser.IsWordChar(text[end])
}

func free(occupied []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if occupied[i] {
			return false
		}
	}
	return true
}

// foldRunes lower-cases rune by rune so offsets stay aligned with the input
func foldRunes(rs []rune) []rune {
	folded := make([]rune, len(rs))
	for i, r := range rs {
		folded[i] = unicode.ToLower(r)
	}
	return folded
}

// indexRunes returns the first index >= from where needle occurs in haystack, or -1
func indexRunes(haystack, needle []rune, from int) int {
	last := len(haystack) - len(needle)
outer:
	for i := from; i <= last; i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
