package parser

import (
	"regexp"
	"strings"
	"unicode"
)

// Header is the parsed form of a single header line
type Header struct {
	Text     string   // Visible display text
	Keywords []string // Keyword aliases declared by the header
	Depth    int      // Number of leading '#' characters
}

var (
	bangRegex     = regexp.MustCompile(`!([\p{L}\p{N}_\p{Z}\s]+)`)
	asteriskRegex = regexp.MustCompile(`\*([^*]+)\*`)
)

// headerState is threaded through the header stages in order
type headerState struct {
	text     string
	keywords []string
	symbol   bool // a bang, asterisk or plural rule fired
}

// headerStage is a single rewrite rule of the header grammar
type headerStage func(headerState) headerState

// headerStages run in a fixed order, each one sees the text the previous one produced
var headerStages = []headerStage{
	bangStage,
	asteriskStage,
	pluralStage,
	slashStage,
}

// IsHeader reports whether the line is a header line
func IsHeader(line string) bool {
	return strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "#")
}

// HeaderDepth returns the number of leading '#' characters after indentation
func HeaderDepth(line string) int {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	return len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
}

// ParseHeader returns the display text and keyword aliases of a header line.
//
// Markers are applied as bang, asterisk, plural and then slash:
//
//	# The Tavern !Inn      -> "The Tavern"  [Inn, The Tavern]
//	# The *Red Dragon* Inn -> "The Red Dragon Inn" [Red Dragon, The Red Dragon Inn]
//	# Goblin/s             -> "Goblin"      [Goblin Goblins]
//	# Sword/Blade/Saber    -> "Sword"       [Sword Blade Saber]
//
// Unbalanced '*' and a '!' without following word characters stay literal.
func ParseHeader(line string) Header {
	trimmed := strings.TrimSpace(line)
	depth := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))

	state := headerState{text: strings.TrimSpace(trimmed[depth:])}
	for _, stage := range headerStages {
		state = stage(state)
	}

	return Header{
		Text:     strings.TrimSpace(state.text),
		Keywords: dedupeKeywords(state.keywords),
		Depth:    depth,
	}
}

// bangStage extracts "!keyword" runs and removes them from the visible text
func bangStage(s headerState) headerState {
	for _, m := range bangRegex.FindAllStringSubmatch(s.text, -1) {
		if kw := strings.TrimSpace(m[1]); kw != "" {
			s.keywords = append(s.keywords, kw)
			s.symbol = true
		}
	}
	s.text = strings.TrimSpace(bangRegex.ReplaceAllString(s.text, ""))
	return s
}

// asteriskStage extracts "*phrase*" spans, keeping the phrase visible
func asteriskStage(s headerState) headerState {
	for _, m := range asteriskRegex.FindAllStringSubmatch(s.text, -1) {
		if kw := strings.TrimSpace(m[1]); kw != "" {
			s.keywords = append(s.keywords, kw)
			s.symbol = true
		}
	}
	s.text = asteriskRegex.ReplaceAllString(s.text, "$1")
	return s
}

// pluralStage expands "word/s" into word and words, collapsing the text to word.
// The base starts on a word boundary and the /s must end a word, so "Blade/Saber"
// is left to the slash stage. Boundaries are checked on runes because RE2's \b
// only knows ASCII letters.
func pluralStage(s headerState) headerState {
	text := []rune(s.text)
	n := len(text)

	var b strings.Builder
	last := 0
	for pos := 0; pos < n; {
		slash := indexRune(text, '/', pos)
		if slash < 0 {
			break
		}
		if slash+1 < n && unicode.ToLower(text[slash+1]) == 's' && (slash+2 == n || !IsWordChar(text[slash+2])) {
			if start := firstBoundary(text, pos, slash); start >= 0 {
				base := string(text[start:slash])
				s.keywords = append(s.keywords, base, base+"s")
				b.WriteString(string(text[last:start]))
				b.WriteString(base)
				last = slash + 2
				s.symbol = true
				pos = last
				continue
			}
		}
		pos = slash + 1
	}
	if last == 0 {
		return s
	}
	b.WriteString(string(text[last:]))
	s.text = b.String()
	return s
}

// IsWordChar reports whether r is a word-constituent character
func IsWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// firstBoundary returns the first word boundary in text[from:to], or -1
func firstBoundary(text []rune, from, to int) int {
	for i := from; i < to; i++ {
		before := i > 0 && IsWordChar(text[i-1])
		if before != IsWordChar(text[i]) {
			return i
		}
	}
	return -1
}

func indexRune(text []rune, r rune, from int) int {
	for i := from; i < len(text); i++ {
		if text[i] == r {
			return i
		}
	}
	return -1
}

// slashStage handles "a/b/c" synonyms; without a slash a symbol-bearing
// header registers its own display text
func slashStage(s headerState) headerState {
	if !strings.Contains(s.text, "/") {
		if s.symbol && strings.TrimSpace(s.text) != "" {
			s.keywords = append(s.keywords, strings.TrimSpace(s.text))
		}
		return s
	}

	parts := strings.Split(s.text, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	s.text = parts[0]
	for _, part := range parts {
		if part != "" {
			s.keywords = append(s.keywords, part)
		}
	}
	return s
}

// dedupeKeywords drops empty and repeated keywords, keeping first occurrence order
func dedupeKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(keywords))
	result := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		result = append(result, kw)
	}
	return result
}
