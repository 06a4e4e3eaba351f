// Package render turns a markdown document into linked lines. Header lines
// show their display text only and are never annotated; body lines are split
// by the linker. Output is available as styled terminal text, plain text, or HTML.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/gubarz/wikimd/internal/linker"
	"github.com/gubarz/wikimd/internal/parser"
)

// Line is one source line of a rendered document
type Line struct {
	Number   int // 1-based source line
	Depth    int // header depth, 0 for body lines
	Text     string
	Segments []linker.Segment
}

// IsHeader reports whether the line is a header
func (l Line) IsHeader() bool {
	return l.Depth > 0
}

// Link is a linked segment in document order
type Link struct {
	Keyword string
	Text    string
	Line    int // 1-based source line
}

// Document is a file prepared for display
type Document struct {
	Path  string
	Lines []Line
	Links []Link
}

// Build prepares lines for display using the linker for body text.
// A nil linker leaves body lines as plain text.
func Build(path string, lines []string, l *linker.Linker) Document {
	doc := Document{Path: path, Lines: make([]Line, 0, len(lines))}
	for i, raw := range lines {
		line := Line{Number: i + 1}
		if parser.IsHeader(raw) {
			header := parser.ParseHeader(raw)
			line.Depth = max(header.Depth, 1)
			line.Text = header.Text
		} else {
			line.Text = raw
			if l != nil {
				line.Segments = l.Annotate(raw)
			} else {
				line.Segments = linker.Segments(raw, nil)
			}
			for _, seg := range line.Segments {
				if seg.IsLink() {
					doc.Links = append(doc.Links, Link{Keyword: seg.Keyword, Text: seg.Text, Line: line.Number})
				}
			}
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc
}

// Load reads and builds a document from disk
func Load(path string, l *linker.Linker) (Document, error) {
	lines, err := parser.ReadLines(path)
	if err != nil {
		return Document{}, fmt.Errorf("error reading %s: %w", path, err)
	}
	return Build(path, lines, l), nil
}

// Output is a styled rendering and where each source line starts in it
type Output struct {
	Content string
	Rows    []int // Rows[n-1] is the first rendered row of source line n
}

// Terminal renders the document with styles, wrapping body lines at width.
// focus is the index into doc.Links to highlight, or -1.
func Terminal(doc Document, s *StyleManager, width, focus int) Output {
	out := Output{Rows: make([]int, len(doc.Lines))}
	b := getBuilder()
	defer putBuilder(b)

	row := 0
	link := 0
	for i, line := range doc.Lines {
		out.Rows[i] = row

		var rendered string
		if line.IsHeader() {
			rendered = s.Header(line.Depth).Render(line.Text)
		} else {
			lb := getBuilder()
			for _, seg := range line.Segments {
				switch {
				case !seg.IsLink():
					lb.WriteString(seg.Text)
				case link == focus:
					lb.WriteString(s.LinkFocus.Render(seg.Text))
					link++
				default:
					lb.WriteString(s.Link.Render(seg.Text))
					link++
				}
			}
			rendered = lb.String()
			putBuilder(lb)
			if width > 0 {
				rendered = wordwrap.String(rendered, width)
			}
		}

		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(rendered)
		row += strings.Count(rendered, "\n") + 1
	}

	out.Content = b.String()
	return out
}

// Plain renders the document as text, links written as [text](path#Lline)
func Plain(doc Document, l *linker.Linker) string {
	b := getBuilder()
	defer putBuilder(b)

	for i, line := range doc.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if line.IsHeader() {
			b.WriteString(strings.Repeat("#", line.Depth))
			b.WriteString(" ")
			b.WriteString(line.Text)
			continue
		}
		for _, seg := range line.Segments {
			if !seg.IsLink() || l == nil {
				b.WriteString(seg.Text)
				continue
			}
			if target, ok := l.Resolve(seg.Keyword); ok {
				fmt.Fprintf(b, "[%s](%s#L%d)", seg.Text, target.Path, target.Line)
			} else {
				b.WriteString(seg.Text)
			}
		}
	}
	return b.String()
}

// headerSizes are font sizes in px by depth, deeper headers use headerFloor
var headerSizes = map[int]int{1: 24, 2: 18, 3: 16, 4: 14}

const headerFloor = 12

// HTML renders the document as a preformatted HTML fragment. Links point at
// the keyword and each line carries an "ln<N>" anchor for scrolling.
func HTML(doc Document) string {
	b := getBuilder()
	defer putBuilder(b)

	b.WriteString(`<pre style="white-space: pre-wrap; font-family: monospace; font-size:12px">`)
	for i, line := range doc.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, `<a name="ln%d"></a>`, line.Number)
		if line.IsHeader() {
			size, ok := headerSizes[line.Depth]
			if !ok {
				size = headerFloor
			}
			fmt.Fprintf(b, `<span style="font-size:%dpx; font-weight:bold">%s</span>`, size, html.EscapeString(line.Text))
			continue
		}
		for _, seg := range line.Segments {
			if seg.IsLink() {
				fmt.Fprintf(b, `<a href="%s">%s</a>`, html.EscapeString(seg.Keyword), html.EscapeString(seg.Text))
			} else {
				b.WriteString(html.EscapeString(seg.Text))
			}
		}
	}
	b.WriteString("</pre>")
	return b.String()
}
