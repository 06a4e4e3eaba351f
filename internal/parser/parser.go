package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/gubarz/wikimd/internal/logger"
)

const (
	// PreviewLines is how many non-empty lines after a header feed its preview
	PreviewLines = 3
	// PreviewLength caps the preview in runes
	PreviewLength = 120

	maxLineSize = 1024 * 1024
)

// DefaultExtensions are the file extensions indexed when none are configured
var DefaultExtensions = []string{".md", ".markdown"}

// ErrRoot is returned when a root directory cannot be scanned at all
var ErrRoot = errors.New("cannot scan root")

// Parser scans markdown trees into an Index
type Parser struct {
	extensions []string
	log        *slog.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithExtensions overrides the indexed file extensions (case-insensitive)
func WithExtensions(exts ...string) Option {
	return func(p *Parser) {
		if len(exts) == 0 {
			return
		}
		p.extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			p.extensions = append(p.extensions, ext)
		}
	}
}

// WithLogger sets the logger used for skipped files
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		p.log = l
	}
}

// NewParser creates a new parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// logger returns the configured logger, or the current default one
func (p *Parser) logger() *slog.Logger {
	if p.log != nil {
		return p.log
	}
	return logger.WithComponent("parser")
}

// ParseRoots scans each root in precedence order and merges them, so a later
// root's keyword replaces an earlier root's. Roots that fail are logged and skipped.
func (p *Parser) ParseRoots(roots ...string) *Index {
	index := NewIndex()
	for _, root := range roots {
		scanned, err := p.ParseDirectory(root)
		if err != nil {
			p.logger().Warn("skipping root", "root", root, "error", err)
			continue
		}
		index = index.Merge(scanned)
	}
	return index
}

// ParseDirectory recursively scans all eligible files under dir into a fresh
// index. Within one directory the first header declaring a keyword wins.
func (p *Parser) ParseDirectory(dir string) (*Index, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrRoot, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w %s: not a directory", ErrRoot, dir)
	}

	index := NewIndex()
	index.Roots = []string{dir}

	// WalkDir visits entries in lexical order, which keeps first-writer-wins reproducible
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			p.logger().Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !p.Eligible(d.Name()) {
			return nil
		}
		if err := p.parseFile(index, path); err != nil {
			p.logger().Warn("skipping file", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrRoot, dir, err)
	}

	p.logger().Debug("scanned root", "root", dir,
		"files", len(index.Files), "headers", len(index.Headers), "keywords", len(index.Keywords))
	return index, nil
}

// ParseSingleFile indexes a single file
func (p *Parser) ParseSingleFile(path string) (*Index, error) {
	index := NewIndex()
	if err := p.parseFile(index, path); err != nil {
		return nil, err
	}
	return index, nil
}

// Eligible reports whether a file name is indexed: a configured extension and
// no leading underscore, which marks private notes
func (p *Parser) Eligible(name string) bool {
	if strings.HasPrefix(name, "_") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range p.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (p *Parser) parseFile(index *Index, path string) error {
	lines, err := ReadLines(path)
	if err != nil {
		return err
	}
	index.Files = append(index.Files, path)
	p.parseLines(index, path, lines)
	return nil
}

func (p *Parser) parseLines(index *Index, path string, lines []string) {
	for i, line := range lines {
		if !IsHeader(line) {
			continue
		}
		header := ParseHeader(line)
		lineNum := i + 1

		for _, kw := range header.Keywords {
			target := KeywordTarget{Path: path, Line: lineNum, Text: header.Text}
			if !index.Keywords.add(kw, target) {
				p.logger().Debug("duplicate keyword ignored", "keyword", kw, "path", path, "line", lineNum)
			}
		}

		index.Headers = append(index.Headers, HeaderEntry{
			Path:    path,
			Line:    lineNum,
			Text:    header.Text,
			Preview: buildPreview(lines[i+1:]),
			Depth:   header.Depth,
		})
	}
}

// buildPreview joins the first PreviewLines non-empty lines with single spaces
func buildPreview(following []string) string {
	parts := make([]string, 0, PreviewLines)
	for _, line := range following {
		if len(parts) == PreviewLines {
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return truncateRunes(strings.Join(parts, " "), PreviewLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ReadLines reads a UTF-8 file into lines. A byte order mark is dropped and
// invalid sequences become U+FFFD instead of failing the read.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readLines(file)
}

func readLines(r io.Reader) ([]string, error) {
	decoded := transform.NewReader(r, unicode.UTF8BOM.NewDecoder())

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
