package wiki

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gubarz/wikimd/internal/parser"
)

func newTestWiki(t *testing.T) (*Wiki, string, string) {
	t.Helper()
	world := t.TempDir()
	campaign := t.TempDir()
	write := func(dir, name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(world, "folk.md", "# *Elf*\nPointy ears.\n# *Dwarf*\nBeards.\n")
	write(campaign, "party.md", "# *Elf*\nOur elf is Lira.\n# Session One\nThe dwarf and the elf argued.\n")

	p := parser.NewParser(parser.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	w, err := New(p, []string{world, campaign}, false)
	if err != nil {
		t.Fatal(err)
	}
	return w, world, campaign
}

func TestNewRequiresRoots(t *testing.T) {
	if _, err := New(parser.NewParser(), nil, false); !errors.Is(err, ErrNoRoots) {
		t.Errorf("New() error = %v, want ErrNoRoots", err)
	}
}

func TestOverrideAndResolve(t *testing.T) {
	w, world, campaign := newTestWiki(t)

	elf, ok := w.Resolve("elf")
	if !ok || elf.Path != filepath.Join(campaign, "party.md") {
		t.Errorf("Resolve(elf) = %+v, %v; want campaign", elf, ok)
	}
	dwarf, ok := w.Resolve("Dwarf")
	if !ok || dwarf.Path != filepath.Join(world, "folk.md") || dwarf.Line != 3 {
		t.Errorf("Resolve(Dwarf) = %+v, %v", dwarf, ok)
	}
}

func TestDocumentLinks(t *testing.T) {
	w, _, campaign := newTestWiki(t)

	doc, err := w.Document(filepath.Join(campaign, "party.md"))
	if err != nil {
		t.Fatal(err)
	}
	// "elf" on line 2, "dwarf" and "elf" on line 4
	if len(doc.Links) != 3 {
		t.Fatalf("Links = %+v", doc.Links)
	}

	w.SetCaseSensitive(true)
	doc, err = w.Document(filepath.Join(campaign, "party.md"))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Links) != 0 {
		t.Errorf("case-sensitive Links = %+v, want none", doc.Links)
	}
	if !w.CaseSensitive() || !w.Linker().CaseSensitive() {
		t.Error("case mode not applied to the linker")
	}
}

func TestSearchAndHeaders(t *testing.T) {
	w, world, _ := newTestWiki(t)

	r := w.Search("elf")
	if r.Len() != 2 {
		t.Errorf("Search(elf).Len() = %d, want 2", r.Len())
	}

	headers := w.HeadersIn(filepath.Join(world, "folk.md"))
	if len(headers) != 2 || headers[0].Text != "Elf" || headers[1].Text != "Dwarf" {
		t.Errorf("HeadersIn() = %+v", headers)
	}
}

func TestRescan(t *testing.T) {
	w, world, _ := newTestWiki(t)

	if _, ok := w.Resolve("Orc"); ok {
		t.Fatal("Orc should not exist yet")
	}
	if err := os.WriteFile(filepath.Join(world, "orc.md"), []byte("# *Orc*\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := w.Index()
	w.Rescan()

	if _, ok := w.Resolve("Orc"); !ok {
		t.Error("Rescan() did not pick up the new file")
	}
	if _, ok := old.Keywords["Orc"]; ok {
		t.Error("Rescan() mutated the previous index")
	}
}

func TestRootOf(t *testing.T) {
	w, world, campaign := newTestWiki(t)

	root, rel := w.RootOf(filepath.Join(campaign, "party.md"))
	if root != campaign || rel != "party.md" {
		t.Errorf("RootOf() = %s, %s", root, rel)
	}
	root, rel = w.RootOf(filepath.Join(world, "sub", "x.md"))
	if root != world || rel != filepath.Join("sub", "x.md") {
		t.Errorf("RootOf() = %s, %s", root, rel)
	}
	if root, _ := w.RootOf("/elsewhere/y.md"); root != "" {
		t.Errorf("RootOf(outside) root = %q, want empty", root)
	}
}

func TestNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_solo.md")
	if err := os.WriteFile(path, []byte("# *Elf*\nAn elf.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A neighbor file must not contribute keywords
	if err := os.WriteFile(filepath.Join(dir, "other.md"), []byte("# *Dwarf*\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := parser.NewParser(parser.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	w, err := NewFile(p, path, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := w.Resolve("Dwarf"); ok {
		t.Error("single-file wiki indexed a neighbor file")
	}
	doc, err := w.Document(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Links) != 1 || doc.Links[0].Keyword != "Elf" {
		t.Errorf("Links = %+v", doc.Links)
	}
	if root, rel := w.RootOf(path); root != dir || rel != "_solo.md" {
		t.Errorf("RootOf() = %s, %s", root, rel)
	}

	if err := os.WriteFile(path, []byte("# *Orc*\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.Rescan()
	if _, ok := w.Resolve("Orc"); !ok {
		t.Error("Rescan() of a single-file wiki missed the new keyword")
	}

	if _, err := NewFile(p, filepath.Join(dir, "missing.md"), false); err == nil {
		t.Error("NewFile() of a missing file should fail")
	}
}
