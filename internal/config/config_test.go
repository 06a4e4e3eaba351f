package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetDefaults()
	t.Cleanup(viper.Reset)
}

func TestDefaults(t *testing.T) {
	resetViper(t)

	if GetCaseSensitive() {
		t.Error("case_sensitive should default to false")
	}
	if got := GetExtensions(); !reflect.DeepEqual(got, []string{".md", ".markdown"}) {
		t.Errorf("GetExtensions() = %v", got)
	}
	if GetWrap() != 100 {
		t.Errorf("GetWrap() = %d, want 100", GetWrap())
	}
	if GetLogLevel() != "warn" || GetLogFormat() != "text" {
		t.Errorf("log = %s/%s", GetLogLevel(), GetLogFormat())
	}
	if len(GetRoots()) != 0 {
		t.Errorf("GetRoots() = %v, want none", GetRoots())
	}
}

func TestGetRootsOrder(t *testing.T) {
	resetViper(t)

	viper.Set("roots", []string{"/a", "/b", "/a"})
	viper.Set("world", "/world")
	viper.Set("campaign", "/campaign")

	want := []string{"/a", "/b", "/world", "/campaign"}
	if got := GetRoots(); !reflect.DeepEqual(got, want) {
		t.Errorf("GetRoots() = %v, want %v", got, want)
	}
}

func TestAddRoot(t *testing.T) {
	resetViper(t)

	if !AddRoot("/a") {
		t.Error("AddRoot(/a) = false on first add")
	}
	if AddRoot("/a") {
		t.Error("AddRoot(/a) = true on second add")
	}
	AddRoot("/b")
	if got := GetRoots(); !reflect.DeepEqual(got, []string{"/a", "/b"}) {
		t.Errorf("GetRoots() = %v", got)
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandTilde("~/notes"); got != filepath.Join(home, "notes") {
		t.Errorf("expandTilde() = %q", got)
	}
	if got := expandTilde("/abs"); got != "/abs" {
		t.Errorf("expandTilde() = %q", got)
	}
}

func TestSave(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "conf", "wikimd.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("wrap: 80\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	SetFile(path)
	if Path() != path {
		t.Fatalf("Path() = %s, want %s", Path(), path)
	}

	SetRoots([]string{"/world", "/campaign"})
	SetCaseSensitive(true)
	if err := Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	saved := viper.New()
	saved.SetConfigFile(path)
	if err := saved.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	if got := saved.GetStringSlice("roots"); !reflect.DeepEqual(got, []string{"/world", "/campaign"}) {
		t.Errorf("saved roots = %v", got)
	}
	if !saved.GetBool("case_sensitive") {
		t.Error("saved case_sensitive = false")
	}
	if saved.GetInt("wrap") != 80 {
		t.Errorf("hand-written key lost, wrap = %d", saved.GetInt("wrap"))
	}
}
