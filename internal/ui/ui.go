package ui

import (
	"errors"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/wikimd/internal/executor"
	"github.com/gubarz/wikimd/internal/logger"
	"github.com/gubarz/wikimd/internal/render"
	"github.com/gubarz/wikimd/internal/wiki"
)

// ErrNoFiles is returned when the roots contain nothing to browse
var ErrNoFiles = errors.New("no markdown files found")

// styles is the global style manager instance
var styles = render.DefaultStyles()

// RefreshStyles reloads styles from config (call after config is loaded)
func RefreshStyles() {
	styles.LoadFromConfig()
}

// Options controls where the TUI starts
type Options struct {
	// Query opens the search screen with results for this query
	Query string
	// Path opens this file directly
	Path string
}

// getTTY returns TTY file handles for input/output.
// When stdout is captured, it opens /dev/tty directly.
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()

	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		out, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			out = os.Stderr // Last resort fallback
		} else {
			closers = append(closers, func() { out.Close() })
		}

		in, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			in = os.Stdin
		} else {
			closers = append(closers, func() { in.Close() })
		}

		// Tell lipgloss to use the TTY for color detection
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

		return in, out, func() {
			for _, c := range closers {
				c()
			}
		}
	}

	return os.Stdin, os.Stdout, func() {}
}

// Run launches the Bubble Tea interface over w
func Run(w *wiki.Wiki, exec *executor.Executor, opts Options) error {
	if len(w.Index().Files) == 0 {
		return ErrNoFiles
	}

	m := newMainModel(w, exec)
	if opts.Path != "" {
		m.openLocation(location{path: opts.Path, line: 1}, true)
	}
	if opts.Query != "" {
		m.enterSearch()
		m.textInput.SetValue(opts.Query)
		m.runSearch()
	}

	ttyIn, ttyOut, cleanup := getTTY()
	RefreshStyles() // Refresh after getTTY sets up the renderer

	// Log lines on stderr would tear the alt screen
	restore := logger.Discard()
	defer restore()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))
	_, err := p.Run()
	cleanup()
	return err
}

// ============================================================================
// Helpers
// ============================================================================

// clamp restricts v to the range [minV, maxV]
func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// countLines counts the number of lines in a string
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// scrollWindow calculates the visible range for a scrollable list
func scrollWindow(cursor, total, height int, offset *int) (start, end int) {
	if cursor < *offset {
		*offset = cursor
	}
	if cursor >= *offset+height {
		*offset = cursor - height + 1
	}
	maxOffset := max(0, total-height)
	*offset = clamp(*offset, 0, maxOffset)

	start = *offset
	end = min(start+height, total)
	return
}

// truncateString truncates a string to maxLen runes with ellipsis
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
