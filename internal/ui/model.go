package ui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/gubarz/wikimd/internal/config"
	"github.com/gubarz/wikimd/internal/executor"
	"github.com/gubarz/wikimd/internal/render"
	"github.com/gubarz/wikimd/internal/search"
	"github.com/gubarz/wikimd/internal/wiki"
)

// ============================================================================
// File Item
// ============================================================================

// fileItem wraps an indexed file with display metadata
type fileItem struct {
	path    string
	root    string // base name of the root the file lives in
	name    string // path relative to the root, without extension
	display string // root/name, the text the fuzzy filter matches
}

// newFileItems builds list items for every indexed file
func newFileItems(w *wiki.Wiki) []fileItem {
	files := w.Index().Files
	items := make([]fileItem, 0, len(files))
	for _, path := range files {
		root, rel := w.RootOf(path)
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		item := fileItem{
			path: path,
			root: filepath.Base(root),
			name: name,
		}
		item.display = item.root + "/" + item.name
		items = append(items, item)
	}
	return items
}

// ============================================================================
// Debounce
// ============================================================================

// filterMsg triggers file filtering after debounce
type filterMsg struct{}

// queryMsg triggers a header search after debounce
type queryMsg struct{}

// editorClosedMsg is sent when an external editor exits
type editorClosedMsg struct {
	err error
}

// debounce returns a command that delivers msg after a short delay
func debounce(msg tea.Msg) tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return msg
	})
}

// ============================================================================
// Main Model
// ============================================================================

// uiPhase represents which screen the TUI shows
type uiPhase int

const (
	phaseBrowse uiPhase = iota // Picking a file
	phaseView                  // Reading a document
	phaseSearch                // Searching headers
)

// mainModel is the Bubble Tea model for browsing, reading and searching.
// All screens share one alt-screen session.
type mainModel struct {
	// Common state
	width     int
	height    int
	textInput textinput.Model
	quitting  bool
	status    string

	// Phase management
	phase       uiPhase
	returnPhase uiPhase // where esc leaves the search screen

	// Browse state
	files       []fileItem
	filtered    []fileItem
	cursor      int
	offset      int
	browseQuery string

	// View state
	viewport viewport.Model
	doc      render.Document
	rows     []int
	focus    int // index into doc.Links, -1 for none
	loaded   bool
	nav      history
	wrap     int

	// Search state
	results      search.Results
	resultCursor int

	// Dependencies
	wiki     *wiki.Wiki
	executor *executor.Executor
}

// newMainModel creates a model over the wiki's current index
func newMainModel(w *wiki.Wiki, exec *executor.Executor) mainModel {
	ti := textinput.New()
	ti.Placeholder = "Type to filter files..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	items := newFileItems(w)

	return mainModel{
		textInput: ti,
		phase:     phaseBrowse,
		files:     items,
		filtered:  items,
		viewport:  viewport.New(80, 20),
		focus:     -1,
		wrap:      config.GetWrap(),
		wiki:      w,
		executor:  exec,
	}
}

// Init implements tea.Model
func (m mainModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 4
		m.resizeViewport()
		if m.loaded {
			m.refreshDocument()
		}
		return m, nil
	case editorClosedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("editor: %v", msg.err)
		}
		return m, nil
	}

	switch m.phase {
	case phaseView:
		return m.updateView(msg)
	case phaseSearch:
		return m.updateSearch(msg)
	default:
		return m.updateBrowse(msg)
	}
}

// ============================================================================
// Browse Phase
// ============================================================================

// updateBrowse handles updates while picking a file
func (m mainModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleBrowseKey(msg); handled {
			return m, cmd
		}
	case filterMsg:
		m.filterFiles()
		return m, nil
	}

	prevQuery := m.textInput.Value()
	var tiCmd tea.Cmd
	m.textInput, tiCmd = m.textInput.Update(msg)
	cmds = append(cmds, tiCmd)

	// Only trigger debounced filter if query changed
	if m.textInput.Value() != prevQuery {
		cmds = append(cmds, debounce(filterMsg{}))
	}

	return m, tea.Batch(cmds...)
}

// handleBrowseKey processes keyboard input while picking a file
func (m *mainModel) handleBrowseKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return tea.Quit, true
	case "esc":
		if m.textInput.Value() != "" {
			m.textInput.SetValue("")
			m.filterFiles()
			return nil, true
		}
		m.quitting = true
		return tea.Quit, true
	case "enter":
		if m.cursor < len(m.filtered) {
			m.openLocation(location{path: m.filtered[m.cursor].path, line: 1}, true)
		}
		return nil, true
	case "tab":
		if m.loaded {
			m.leaveBrowse(phaseView)
		}
		return nil, true
	case "up", "ctrl+p":
		m.moveCursor(-1)
		return nil, true
	case "down", "ctrl+n":
		m.moveCursor(1)
		return nil, true
	case "pgup":
		m.moveCursor(-10)
		return nil, true
	case "pgdown":
		m.moveCursor(10)
		return nil, true
	case "ctrl+f":
		return m.enterSearch(), true
	case "ctrl+r":
		m.rescan()
		return nil, true
	case "ctrl+t":
		m.toggleCase()
		return nil, true
	case "ctrl+o":
		if m.cursor < len(m.filtered) {
			return m.openInEditor(m.filtered[m.cursor].path, 1), true
		}
		return nil, true
	}
	return nil, false
}

// moveCursor moves the cursor by delta, clamping to valid range
func (m *mainModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(0, len(m.filtered)-1))
}

// filterFiles fuzzy-filters the file list by the current query
func (m *mainModel) filterFiles() {
	query := strings.TrimSpace(m.textInput.Value())
	if query == "" {
		m.filtered = m.files
	} else {
		names := make([]string, len(m.files))
		for i, item := range m.files {
			names[i] = item.display
		}
		matches := fuzzy.Find(query, names)
		m.filtered = make([]fileItem, 0, len(matches))
		for _, match := range matches {
			m.filtered = append(m.filtered, m.files[match.Index])
		}
	}
	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
}

// leaveBrowse stores the filter query and switches phase
func (m *mainModel) leaveBrowse(next uiPhase) {
	m.browseQuery = m.textInput.Value()
	m.textInput.Blur()
	m.phase = next
}

// enterBrowse returns to the file list with the previous filter
func (m *mainModel) enterBrowse() tea.Cmd {
	m.phase = phaseBrowse
	m.textInput.Placeholder = "Type to filter files..."
	m.textInput.SetValue(m.browseQuery)
	m.textInput.CursorEnd()
	m.filterFiles()
	return m.textInput.Focus()
}

// ============================================================================
// View Phase
// ============================================================================

// updateView handles updates while reading a document
func (m mainModel) updateView(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if cmd, handled := m.handleViewKey(key); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleViewKey processes keyboard input while reading. Keys not handled here
// fall through to the viewport for scrolling.
func (m *mainModel) handleViewKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return tea.Quit, true
	case "esc":
		m.nav.update(m.topLine())
		return m.enterBrowse(), true
	case "/", " ", "ctrl+f":
		m.nav.update(m.topLine())
		return m.enterSearch(), true
	case "tab":
		m.cycleFocus(1)
		return nil, true
	case "shift+tab":
		m.cycleFocus(-1)
		return nil, true
	case "enter":
		m.follow()
		return nil, true
	case "left", "b":
		m.goBack()
		return nil, true
	case "right", "f":
		m.goForward()
		return nil, true
	case "r", "ctrl+r":
		m.rescan()
		return nil, true
	case "c", "ctrl+t":
		m.toggleCase()
		return nil, true
	case "y":
		if err := m.executor.CopyReference(m.doc.Path, m.topLine()); err != nil {
			m.status = err.Error()
		} else {
			m.status = "Copied " + executor.Reference(m.doc.Path, m.topLine())
		}
		return nil, true
	case "e", "ctrl+o":
		return m.openInEditor(m.doc.Path, m.topLine()), true
	}
	return nil, false
}

// openLocation loads a document and scrolls to the location's line
func (m *mainModel) openLocation(loc location, record bool) {
	doc, err := m.wiki.Document(loc.path)
	if err != nil {
		m.status = err.Error()
		return
	}
	if record {
		m.nav.visit(loc)
	}
	if m.phase == phaseBrowse {
		m.leaveBrowse(phaseView)
	}
	m.phase = phaseView
	m.doc = doc
	m.loaded = true
	m.focus = -1
	m.status = ""
	m.refreshDocument()
	m.scrollToLine(loc.line)
}

// refreshDocument re-renders the loaded document into the viewport
func (m *mainModel) refreshDocument() {
	width := m.viewport.Width
	if m.wrap > 0 && (width <= 0 || m.wrap < width) {
		width = m.wrap
	}
	out := render.Terminal(m.doc, styles, width, m.focus)
	m.rows = out.Rows
	m.viewport.SetContent(out.Content)
}

// resizeViewport fits the viewport between the title and footer lines
func (m *mainModel) resizeViewport() {
	m.viewport.Width = max(m.width, 20)
	m.viewport.Height = max(m.height-4, 3)
}

// scrollToLine puts a source line at the top of the viewport
func (m *mainModel) scrollToLine(line int) {
	if line <= 1 || line > len(m.rows) {
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetYOffset(m.rows[line-1])
}

// topLine returns the source line shown at the top of the viewport
func (m *mainModel) topLine() int {
	line := 1
	for i, row := range m.rows {
		if row > m.viewport.YOffset {
			break
		}
		line = i + 1
	}
	return line
}

// cycleFocus moves link focus forward or backward, starting from the
// first link on screen when nothing is focused yet
func (m *mainModel) cycleFocus(delta int) {
	n := len(m.doc.Links)
	if n == 0 {
		m.status = "No links in this document"
		return
	}
	if m.focus < 0 {
		top := m.topLine()
		m.focus = n - 1
		for i, link := range m.doc.Links {
			if link.Line >= top {
				m.focus = i
				break
			}
		}
		if delta < 0 {
			m.focus = (m.focus - 1 + n) % n
		}
	} else {
		m.focus = (m.focus + delta + n) % n
	}

	m.refreshDocument()
	m.ensureVisible(m.doc.Links[m.focus].Line)
	m.status = fmt.Sprintf("Link %d/%d: %s", m.focus+1, n, m.doc.Links[m.focus].Keyword)
}

// ensureVisible scrolls just enough to show a source line
func (m *mainModel) ensureVisible(line int) {
	if line < 1 || line > len(m.rows) {
		return
	}
	row := m.rows[line-1]
	if row < m.viewport.YOffset {
		m.viewport.SetYOffset(row)
	} else if row >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(row - m.viewport.Height + 1)
	}
}

// follow opens the target of the focused link
func (m *mainModel) follow() {
	if m.focus < 0 || m.focus >= len(m.doc.Links) {
		return
	}
	link := m.doc.Links[m.focus]
	target, ok := m.wiki.Resolve(link.Keyword)
	if !ok {
		// Index changed under the document, nothing to follow
		m.status = fmt.Sprintf("%q no longer resolves", link.Keyword)
		return
	}
	m.nav.update(m.topLine())
	m.openLocation(location{path: target.Path, line: target.Line}, true)
}

// goBack returns to the previous document
func (m *mainModel) goBack() {
	m.nav.update(m.topLine())
	if loc, ok := m.nav.goBack(); ok {
		m.openLocation(loc, false)
	}
}

// goForward undoes a goBack
func (m *mainModel) goForward() {
	m.nav.update(m.topLine())
	if loc, ok := m.nav.goForward(); ok {
		m.openLocation(loc, false)
	}
}

// ============================================================================
// Search Phase
// ============================================================================

// enterSearch opens the header search screen
func (m *mainModel) enterSearch() tea.Cmd {
	if m.phase == phaseBrowse {
		m.leaveBrowse(phaseSearch)
		m.returnPhase = phaseBrowse
	} else {
		m.returnPhase = m.phase
	}
	m.phase = phaseSearch
	m.results = search.Results{}
	m.resultCursor = 0
	m.textInput.Placeholder = "Search headers..."
	m.textInput.SetValue("")
	return m.textInput.Focus()
}

// updateSearch handles updates on the search screen
func (m mainModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleSearchKey(msg); handled {
			return m, cmd
		}
	case queryMsg:
		m.runSearch()
		return m, nil
	}

	if !m.textInput.Focused() {
		return m, nil
	}

	prevQuery := m.textInput.Value()
	var tiCmd tea.Cmd
	m.textInput, tiCmd = m.textInput.Update(msg)
	if m.textInput.Value() != prevQuery {
		return m, tea.Batch(tiCmd, debounce(queryMsg{}))
	}
	return m, tiCmd
}

// handleSearchKey processes keyboard input on the search screen. While the
// result list has focus, 1-9 open the numbered result.
func (m *mainModel) handleSearchKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		m.quitting = true
		return tea.Quit, true
	case "esc":
		if m.returnPhase == phaseView && m.loaded {
			m.textInput.Blur()
			m.phase = phaseView
			return nil, true
		}
		return m.enterBrowse(), true
	case "enter":
		if m.textInput.Focused() {
			m.runSearch()
			if m.results.Len() > 0 {
				m.textInput.Blur()
			}
			return nil, true
		}
		m.openResult(m.resultCursor + 1)
		return nil, true
	case "tab", "/":
		if key == "/" && m.textInput.Focused() {
			return nil, false
		}
		if m.textInput.Focused() {
			if m.results.Len() > 0 {
				m.textInput.Blur()
			}
			return nil, true
		}
		return m.textInput.Focus(), true
	case "up", "ctrl+p":
		m.resultCursor = clamp(m.resultCursor-1, 0, max(0, len(m.results.Top())-1))
		return nil, true
	case "down", "ctrl+n":
		m.resultCursor = clamp(m.resultCursor+1, 0, max(0, len(m.results.Top())-1))
		return nil, true
	}

	if !m.textInput.Focused() && len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		n, _ := strconv.Atoi(key)
		m.openResult(n)
		return nil, true
	}
	return nil, false
}

// runSearch ranks headers for the current query
func (m *mainModel) runSearch() {
	m.results = m.wiki.Search(m.textInput.Value())
	m.resultCursor = clamp(m.resultCursor, 0, max(0, len(m.results.Top())-1))
}

// openResult opens the n-th (1-based) result
func (m *mainModel) openResult(n int) {
	entry, ok := m.results.Pick(n)
	if !ok {
		return
	}
	m.textInput.Blur()
	m.textInput.SetValue("")
	m.openLocation(location{path: entry.Path, line: entry.Line}, true)
}

// ============================================================================
// Shared Actions
// ============================================================================

// rescan rebuilds the index and reloads the open document
func (m *mainModel) rescan() {
	m.wiki.Rescan()
	m.files = newFileItems(m.wiki)
	m.filterFiles()
	m.reloadDocument()
	idx := m.wiki.Index()
	m.status = fmt.Sprintf("Rescanned %d files, %d keywords", len(idx.Files), len(idx.Keywords))
}

// toggleCase flips case sensitivity and persists the choice
func (m *mainModel) toggleCase() {
	on := !m.wiki.CaseSensitive()
	m.wiki.SetCaseSensitive(on)
	config.SetCaseSensitive(on)
	m.reloadDocument()

	mode := "case-insensitive"
	if on {
		mode = "case-sensitive"
	}
	if err := config.Save(); err != nil {
		m.status = fmt.Sprintf("%s (not saved: %v)", mode, err)
		return
	}
	m.status = mode
}

// reloadDocument re-annotates the open document, keeping the scroll position
func (m *mainModel) reloadDocument() {
	if !m.loaded {
		return
	}
	offset := m.viewport.YOffset
	doc, err := m.wiki.Document(m.doc.Path)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.doc = doc
	m.focus = -1
	m.refreshDocument()
	m.viewport.SetYOffset(offset)
}

// openInEditor hands the terminal to the editor, or starts the system viewer
func (m *mainModel) openInEditor(path string, line int) tea.Cmd {
	if m.executor.HasEditor() {
		return tea.ExecProcess(m.executor.Command(path, line), func(err error) tea.Msg {
			return editorClosedMsg{err: err}
		})
	}
	if err := m.executor.Open(path, line); err != nil {
		m.status = err.Error()
	}
	return nil
}

// ============================================================================
// Rendering
// ============================================================================

// View implements tea.Model
func (m mainModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case phaseView:
		return m.renderView()
	case phaseSearch:
		return m.renderSearch()
	default:
		return m.renderBrowse()
	}
}

// renderBrowse builds the file list view
func (m mainModel) renderBrowse() string {
	width := max(m.width, 80)
	height := max(m.height, 24)

	preview := m.renderFilePreview(width)
	previewLines := countLines(preview)

	inputLines := 3 // divider + info + input
	listHeight := max(height-previewLines-inputLines, 3)
	list := m.renderFileList(listHeight)
	listLines := countLines(list)

	padding := max(height-previewLines-listLines-inputLines, 0)

	var b strings.Builder
	b.WriteString(preview)
	b.WriteString(list)
	b.WriteString(strings.Repeat("\n", padding))
	b.WriteString(m.renderInput(width, fmt.Sprintf("%d/%d files", len(m.filtered), len(m.files)),
		"Enter open", "Ctrl+F search", "ESC exit"))
	return b.String()
}

// renderFilePreview lists the first headers of the selected file
func (m mainModel) renderFilePreview(width int) string {
	var b strings.Builder
	lines := 0
	const maxLines = 6

	if m.cursor < len(m.filtered) {
		item := m.filtered[m.cursor]
		b.WriteString(styles.Path.Render(item.display))
		b.WriteString("\n")
		lines++

		for _, h := range m.wiki.HeadersIn(item.path) {
			if lines >= maxLines {
				break
			}
			indent := strings.Repeat("  ", max(h.Depth-1, 0))
			b.WriteString(indent)
			b.WriteString(styles.Header(h.Depth).Render(truncateString(h.Text, width-len(indent))))
			b.WriteString("\n")
			lines++
		}
	}

	// Pad to fixed height
	for lines < maxLines {
		b.WriteString("\n")
		lines++
	}

	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	return b.String()
}

// renderFileList renders the scrollable list of files
func (m *mainModel) renderFileList(maxHeight int) string {
	if len(m.filtered) == 0 {
		return ""
	}

	start, end := scrollWindow(m.cursor, len(m.filtered), maxHeight, &m.offset)

	var b strings.Builder
	for i := start; i < end; i++ {
		item := m.filtered[i]
		line := styles.Dim.Render(item.root+"/") + item.name
		if i == m.cursor {
			b.WriteString(styles.Cursor.Render("▶ "))
			b.WriteString(styles.WithSelection(styles.Body).Render(item.root + "/" + item.name))
		} else {
			b.WriteString("  ")
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderView builds the document reader view
func (m mainModel) renderView() string {
	width := max(m.width, 80)

	var b strings.Builder

	// Title
	_, rel := m.wiki.RootOf(m.doc.Path)
	title := styles.Header(2).Render(rel)
	if n := len(m.doc.Links); n > 0 {
		title += " " + styles.Dim.Render(fmt.Sprintf("(%d links)", n))
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	// Footer
	back := styles.Dim.Render("← back")
	if m.nav.canBack() {
		back = styles.Cursor.Render("← back")
	}
	forward := styles.Dim.Render("forward →")
	if m.nav.canForward() {
		forward = styles.Cursor.Render("forward →")
	}
	b.WriteString(back + " " + forward)
	b.WriteString(styles.Dim.Render(" • Tab links • Enter follow • / search • ESC files"))
	if m.status != "" {
		b.WriteString(" • ")
		b.WriteString(m.status)
	}
	return b.String()
}

// renderSearch builds the header search view
func (m mainModel) renderSearch() string {
	width := max(m.width, 80)

	var b strings.Builder
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")

	top := m.results.Top()
	for i, entry := range top {
		marker := "  "
		if i == m.resultCursor && !m.textInput.Focused() {
			marker = styles.Cursor.Render("▶ ")
		}
		badge := styles.Badge.Render(filepath.Base(entry.Path))
		b.WriteString(marker)
		b.WriteString(styles.Dim.Render(fmt.Sprintf("%d. ", i+1)))
		b.WriteString(styles.Header(1).Render(entry.Text))
		b.WriteString(" ")
		b.WriteString(badge)
		b.WriteString("\n")
		if entry.Preview != "" {
			b.WriteString("     ")
			b.WriteString(styles.Preview.Render(truncateString(entry.Preview, width-5)))
			b.WriteString("\n")
		}
	}

	info := "Type and press Enter"
	switch {
	case m.results.Len() > len(top):
		info = fmt.Sprintf("%d of %d results", len(top), m.results.Len())
	case m.results.Len() > 0:
		info = fmt.Sprintf("%d results", m.results.Len())
	case strings.TrimSpace(m.textInput.Value()) != "":
		info = "No results"
	}
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("  " + info + " • 1-9 open • Tab switch • ESC back"))
	return b.String()
}

// renderInput renders the input section at the bottom
func (m mainModel) renderInput(width int, info string, hints ...string) string {
	var b strings.Builder
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("  " + info))
	for _, hint := range hints {
		b.WriteString(" • ")
		b.WriteString(styles.Dim.Render(hint))
	}
	if m.status != "" {
		b.WriteString(" • ")
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	return b.String()
}
