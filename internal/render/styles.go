package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gubarz/wikimd/internal/config"
)

// StyleManager encapsulates all TUI styles and provides methods for style operations
type StyleManager struct {
	// Document styles, Headers is indexed by depth-1 and the last entry is the floor
	Headers   []lipgloss.Style
	Link      lipgloss.Style
	LinkFocus lipgloss.Style
	Body      lipgloss.Style

	// List view styles
	Path     lipgloss.Style
	Preview  lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Dim      lipgloss.Style
	Badge    lipgloss.Style

	// Chrome styles
	Border  lipgloss.Style
	Divider lipgloss.Style

	// Colors for direct access
	SelectedBg lipgloss.Color
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	s := &StyleManager{}
	s.apply(palette{
		header:   lipgloss.Color("6"),
		link:     lipgloss.Color("4"),
		dim:      lipgloss.Color("241"),
		border:   lipgloss.Color("240"),
		cursor:   lipgloss.Color("212"),
		selected: lipgloss.Color("236"),
	})
	return s
}

type palette struct {
	header, link, dim, border, cursor, selected lipgloss.Color
}

// LoadFromConfig updates styles based on configuration
func (s *StyleManager) LoadFromConfig() {
	s.apply(palette{
		header:   parseANSIColor(config.GetColorHeader()),
		link:     parseANSIColor(config.GetColorLink()),
		dim:      lipgloss.Color(config.GetColorDim()),
		border:   lipgloss.Color(config.GetColorBorder()),
		cursor:   lipgloss.Color(config.GetColorCursor()),
		selected: lipgloss.Color(config.GetColorSelected()),
	})
}

func (s *StyleManager) apply(p palette) {
	// Depth 1 is the loudest, depth 5 and deeper share the floor style
	s.Headers = []lipgloss.Style{
		lipgloss.NewStyle().Bold(true).Underline(true).Foreground(p.header),
		lipgloss.NewStyle().Bold(true).Foreground(p.header),
		lipgloss.NewStyle().Bold(true),
		lipgloss.NewStyle().Foreground(p.header),
		lipgloss.NewStyle().Italic(true),
	}
	s.Link = lipgloss.NewStyle().Underline(true).Foreground(p.link)
	s.LinkFocus = lipgloss.NewStyle().Underline(true).Bold(true).Foreground(p.cursor).Background(p.selected)
	s.Body = lipgloss.NewStyle()

	s.Path = lipgloss.NewStyle().Foreground(p.dim)
	s.Preview = lipgloss.NewStyle().Foreground(p.dim)
	s.Selected = lipgloss.NewStyle().Background(p.selected)
	s.Cursor = lipgloss.NewStyle().Foreground(p.cursor)
	s.Dim = lipgloss.NewStyle().Foreground(p.dim)
	s.Badge = lipgloss.NewStyle().Foreground(p.header).Background(p.selected).Padding(0, 1)

	s.Border = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border)
	s.Divider = lipgloss.NewStyle().Foreground(p.border)
	s.SelectedBg = p.selected
}

// Header returns the style for a header of the given depth
func (s *StyleManager) Header(depth int) lipgloss.Style {
	if depth < 1 {
		depth = 1
	}
	if depth > len(s.Headers) {
		depth = len(s.Headers)
	}
	return s.Headers[depth-1]
}

// WithSelection returns a copy of the given style with the selected background applied
func (s *StyleManager) WithSelection(style lipgloss.Style) lipgloss.Style {
	return style.Background(s.SelectedBg)
}

// parseANSIColor converts ANSI color codes to lipgloss colors
func parseANSIColor(code string) lipgloss.Color {
	ansiToLipgloss := map[string]string{
		"30": "0", "31": "1", "32": "2", "33": "3",
		"34": "4", "35": "5", "36": "6", "37": "7",
		"90": "8", "91": "9", "92": "10", "93": "11",
		"94": "12", "95": "13", "96": "14", "97": "15",
	}
	if mapped, ok := ansiToLipgloss[code]; ok {
		return lipgloss.Color(mapped)
	}
	return lipgloss.Color(code)
}
