package ui

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gubarz/wikimd/internal/executor"
	"github.com/gubarz/wikimd/internal/parser"
	"github.com/gubarz/wikimd/internal/wiki"
)

type fakeClipboard struct{ text string }

func (c *fakeClipboard) Copy(text string) error {
	c.text = text
	return nil
}

func newTestModel(t *testing.T) (mainModel, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"folk.md":  "# *Elf*\nElves live long.\n# *Dwarf*\nStout.\n",
		"party.md": "# Party\nThe Elf and the Dwarf travel.\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	p := parser.NewParser(parser.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	w, err := wiki.New(p, []string{dir}, false)
	if err != nil {
		t.Fatal(err)
	}
	exec := executor.NewExecutor().WithEditor("").WithClipboard(&fakeClipboard{})

	m := newMainModel(w, exec)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(mainModel), dir
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m mainModel, keys ...string) mainModel {
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		m = updated.(mainModel)
	}
	return m
}

func TestBrowseFilter(t *testing.T) {
	m, _ := newTestModel(t)
	if len(m.files) != 2 {
		t.Fatalf("files = %+v", m.files)
	}

	m.textInput.SetValue("party")
	m.filterFiles()
	if len(m.filtered) != 1 || m.filtered[0].name != "party" {
		t.Errorf("filtered = %+v", m.filtered)
	}
}

func TestFollowLinkAndBack(t *testing.T) {
	m, dir := newTestModel(t)
	party := filepath.Join(dir, "party.md")
	folk := filepath.Join(dir, "folk.md")

	m.openLocation(location{path: party, line: 1}, true)
	if m.phase != phaseView || len(m.doc.Links) != 2 {
		t.Fatalf("phase = %v, links = %+v", m.phase, m.doc.Links)
	}

	// Second link is Dwarf
	m = press(m, "tab", "tab", "enter")
	if m.doc.Path != folk {
		t.Fatalf("followed to %s, want %s", m.doc.Path, folk)
	}
	if m.nav.current == nil || m.nav.current.line != 3 {
		t.Errorf("current = %+v, want line 3", m.nav.current)
	}

	m = press(m, "b")
	if m.doc.Path != party {
		t.Errorf("back went to %s", m.doc.Path)
	}
	m = press(m, "f")
	if m.doc.Path != folk {
		t.Errorf("forward went to %s", m.doc.Path)
	}
}

func TestSearchPick(t *testing.T) {
	m, dir := newTestModel(t)

	m.enterSearch()
	if m.phase != phaseSearch || !m.textInput.Focused() {
		t.Fatalf("enterSearch() phase = %v", m.phase)
	}
	m.textInput.SetValue("dwarf")
	m = press(m, "enter") // run search, focus the list
	if m.results.Len() != 1 {
		t.Fatalf("results = %+v", m.results)
	}
	m = press(m, "1")
	if m.phase != phaseView || m.doc.Path != filepath.Join(dir, "folk.md") {
		t.Errorf("phase = %v, doc = %s", m.phase, m.doc.Path)
	}
}

func TestCopyReference(t *testing.T) {
	m, dir := newTestModel(t)
	clip := &fakeClipboard{}
	m.executor.WithClipboard(clip)

	m.openLocation(location{path: filepath.Join(dir, "folk.md"), line: 1}, true)
	m = press(m, "y")
	if want := filepath.Join(dir, "folk.md") + ":1"; clip.text != want {
		t.Errorf("clipboard = %q, want %q", clip.text, want)
	}
}

func TestHelpers(t *testing.T) {
	if got := clamp(5, 0, 3); got != 3 {
		t.Errorf("clamp() = %d", got)
	}
	if got := countLines("a\nb"); got != 2 {
		t.Errorf("countLines() = %d", got)
	}
	if got := truncateString("héllo world", 8); got != "héllo..." {
		t.Errorf("truncateString() = %q", got)
	}

	offset := 0
	start, end := scrollWindow(12, 20, 5, &offset)
	if start != 8 || end != 13 {
		t.Errorf("scrollWindow() = %d, %d", start, end)
	}
}
