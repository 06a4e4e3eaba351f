package executor

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/gubarz/wikimd/internal/config"
)

// ============================================================================
// Command Runner Interface
// ============================================================================

// Runner starts external processes
type Runner interface {
	Start(name string, args ...string) error
}

// systemRunner starts real processes without waiting for them
type systemRunner struct{}

func (systemRunner) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// ============================================================================
// Clipboard Interface
// ============================================================================

// Clipboard defines the interface for clipboard operations
type Clipboard interface {
	Copy(text string) error
}

// systemClipboard implements Clipboard using system commands
type systemClipboard struct{}

// Copy copies text to the system clipboard
func (c *systemClipboard) Copy(text string) error {
	cmd := c.findClipboardCommand()
	if cmd == nil {
		return fmt.Errorf("no clipboard tool found")
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// findClipboardCommand returns the appropriate clipboard command for the system
func (c *systemClipboard) findClipboardCommand() *exec.Cmd {
	switch {
	case commandExists("wl-copy"):
		return exec.Command("wl-copy")
	case commandExists("xclip"):
		return exec.Command("xclip", "-selection", "clipboard")
	case commandExists("xsel"):
		return exec.Command("xsel", "--clipboard", "--input")
	case commandExists("pbcopy"):
		return exec.Command("pbcopy")
	default:
		return nil
	}
}

// commandExists checks if a command is available in PATH
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ============================================================================
// Executor
// ============================================================================

// Executor opens documents in external programs
type Executor struct {
	editor    string
	goos      string
	runner    Runner
	clipboard Clipboard
}

// NewExecutor creates an executor using the configured editor
func NewExecutor() *Executor {
	return &Executor{
		editor:    config.GetEditor(),
		goos:      runtime.GOOS,
		runner:    systemRunner{},
		clipboard: &systemClipboard{},
	}
}

// WithClipboard sets a custom clipboard implementation (useful for testing)
func (e *Executor) WithClipboard(c Clipboard) *Executor {
	e.clipboard = c
	return e
}

// WithRunner sets a custom process runner (useful for testing)
func (e *Executor) WithRunner(r Runner) *Executor {
	e.runner = r
	return e
}

// WithEditor overrides the configured editor
func (e *Executor) WithEditor(editor string) *Executor {
	e.editor = editor
	return e
}

// OpenCommand returns the program and arguments used to open path at line.
// Editors get the common "+line" argument, the system opener only gets the path.
func (e *Executor) OpenCommand(path string, line int) (string, []string) {
	if fields := strings.Fields(e.editor); len(fields) > 0 {
		args := append([]string{}, fields[1:]...)
		if line > 0 {
			args = append(args, "+"+strconv.Itoa(line))
		}
		return fields[0], append(args, path)
	}

	switch e.goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	default: // linux, freebsd, etc.
		return "xdg-open", []string{path}
	}
}

// HasEditor reports whether an editor is configured. Terminal editors need
// the terminal, so callers hand Command to the UI instead of calling Open.
func (e *Executor) HasEditor() bool {
	return strings.TrimSpace(e.editor) != ""
}

// Command builds the open command without starting it
func (e *Executor) Command(path string, line int) *exec.Cmd {
	name, args := e.OpenCommand(path, line)
	return exec.Command(name, args...)
}

// Open opens path at line in the editor or the system default viewer
func (e *Executor) Open(path string, line int) error {
	name, args := e.OpenCommand(path, line)
	if err := e.runner.Start(name, args...); err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	return nil
}

// Reference formats a path:line reference
func Reference(path string, line int) string {
	return fmt.Sprintf("%s:%d", path, line)
}

// CopyReference copies a path:line reference to the clipboard
func (e *Executor) CopyReference(path string, line int) error {
	return e.clipboard.Copy(Reference(path, line))
}
