// Package wiki owns the scanned state of a set of roots: the merged index,
// the linker built from it, and the case mode. A rescan builds a fresh index
// and swaps it in; returned indexes are never mutated afterwards.
package wiki

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gubarz/wikimd/internal/linker"
	"github.com/gubarz/wikimd/internal/logger"
	"github.com/gubarz/wikimd/internal/parser"
	"github.com/gubarz/wikimd/internal/render"
	"github.com/gubarz/wikimd/internal/search"
)

// ErrNoRoots is returned when no root directory is configured
var ErrNoRoots = errors.New("no root directories configured")

// Wiki is the orchestrator the CLI and TUI call into
type Wiki struct {
	roots         []string
	file          string // set when the wiki covers a single file
	parser        *parser.Parser
	caseSensitive bool

	index  *parser.Index
	linker *linker.Linker
}

// New creates a wiki over roots in precedence order and scans it
func New(p *parser.Parser, roots []string, caseSensitive bool) (*Wiki, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	w := &Wiki{
		roots:         append([]string(nil), roots...),
		parser:        p,
		caseSensitive: caseSensitive,
	}
	w.Rescan()
	return w, nil
}

// NewFile creates a wiki over one file, its folder standing in as the root.
// Only the file's own headers declare keywords.
func NewFile(p *parser.Parser, path string, caseSensitive bool) (*Wiki, error) {
	index, err := p.ParseSingleFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	w := &Wiki{
		roots:         []string{filepath.Dir(path)},
		file:          path,
		parser:        p,
		caseSensitive: caseSensitive,
	}
	w.swap(index)
	return w, nil
}

// Rescan rebuilds the index from scratch
func (w *Wiki) Rescan() {
	if w.file == "" {
		w.swap(w.parser.ParseRoots(w.roots...))
		return
	}
	index, err := w.parser.ParseSingleFile(w.file)
	if err != nil {
		logger.WithComponent("wiki").Warn("rescan failed", "path", w.file, "error", err)
		index = parser.NewIndex()
	}
	w.swap(index)
}

func (w *Wiki) swap(index *parser.Index) {
	w.index = index
	w.linker = linker.New(index.Keywords, w.caseSensitive)
}

// Roots returns the scanned roots in precedence order
func (w *Wiki) Roots() []string {
	return w.roots
}

// Index returns the current index
func (w *Wiki) Index() *parser.Index {
	return w.index
}

// Linker returns the linker for the current index and case mode
func (w *Wiki) Linker() *linker.Linker {
	return w.linker
}

// CaseSensitive reports the current case mode
func (w *Wiki) CaseSensitive() bool {
	return w.caseSensitive
}

// SetCaseSensitive switches the case mode; the index is reused
func (w *Wiki) SetCaseSensitive(on bool) {
	if on == w.caseSensitive {
		return
	}
	w.caseSensitive = on
	w.linker = linker.New(w.index.Keywords, on)
}

// Search ranks the headers of the current index
func (w *Wiki) Search(query string) search.Results {
	return search.Search(query, w.index.Headers, w.caseSensitive)
}

// Resolve finds where a clicked keyword points
func (w *Wiki) Resolve(keyword string) (parser.KeywordTarget, bool) {
	return w.linker.Resolve(keyword)
}

// Document loads and annotates a file
func (w *Wiki) Document(path string) (render.Document, error) {
	return render.Load(path, w.linker)
}

// HeadersIn returns the headers declared in path, in line order
func (w *Wiki) HeadersIn(path string) []parser.HeaderEntry {
	var headers []parser.HeaderEntry
	for _, h := range w.index.Headers {
		if h.Path == path {
			headers = append(headers, h)
		}
	}
	return headers
}

// RootOf returns the root a path belongs to and the path relative to it.
// Later roots are checked first so nested roots report the innermost match.
func (w *Wiki) RootOf(path string) (string, string) {
	for i := len(w.roots) - 1; i >= 0; i-- {
		root := w.roots[i]
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return root, rel
	}
	return "", path
}
