package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcdonaldj/archivist/internal/adapters/tuisvc"
	"github.com/mcdonaldj/archivist/internal/archive"
	"github.com/mcdonaldj/archivist/internal/config"
	"github.com/mcdonaldj/archivist/internal/ports"
)

// View represents the current view state
type View int

const (
	ContainersView View = iota
	EntriesView
	DiffSelectView // Selecting containers to compare
	DiffResultView // Changed entries of two containers
	FileDiffView   // Line diff of one entry
)

// Model is the main TUI model
type Model struct {
	svc      ports.TUIService
	config   *config.Config
	dir      string
	view     View
	width    int
	height   int
	quitting bool

	// Containers view
	containers      []ports.TUIContainerInfo
	containerCursor int

	// Entries view
	selectedContainer string
	entries           []ports.TUIEntryInfo
	entryCursor       int

	// Diff views
	diffSelections []int // Indices of selected containers
	diffResult     *ports.DiffResult
	diffCursor     int

	fileDiff       *ports.FileDiff
	fileDiffScroll int
	diffSwapped    bool // container 2 shown on the left

	statusMsg string
	statusErr bool
}

// Key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Refresh key.Binding
	Verify  key.Binding
	Diff    key.Binding
	Select  key.Binding
	Swap    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Verify: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "verify"),
	),
	Diff: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "compare"),
	),
	Select: key.NewBinding(
		key.WithKeys(" ", "tab"),
		key.WithHelp("space", "select"),
	),
	Swap: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "swap"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// NewModelWithService loads the config through svc and lists the
// containers of dir.
func NewModelWithService(svc ports.TUIService, dir string) (*Model, error) {
	cfg, err := svc.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	m := NewModelWithConfig(cfg, svc, dir)
	if err := m.loadContainers(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewModelWithConfig creates a model without loading anything.
func NewModelWithConfig(cfg *config.Config, svc ports.TUIService, dir string) *Model {
	return &Model{
		svc:    svc,
		config: cfg,
		dir:    dir,
		view:   ContainersView,
	}
}

func (m *Model) loadContainers() error {
	containers, err := m.svc.ListContainers(m.config, m.dir)
	if err != nil {
		return err
	}
	m.containers = containers
	if m.containerCursor >= len(m.containers) {
		m.containerCursor = len(m.containers) - 1
	}
	if m.containerCursor < 0 {
		m.containerCursor = 0
	}
	return nil
}

func (m *Model) loadEntries() error {
	entries, err := m.svc.ListEntries(m.config, m.dir, m.selectedContainer)
	if err != nil {
		return err
	}
	m.entries = entries
	return nil
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

type statusMsg struct {
	msg string
	err bool
}

type diffMsg struct {
	result *ports.DiffResult
	err    error
}

type fileDiffMsg struct {
	result *ports.FileDiff
	err    error
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusMsg:
		m.statusMsg = msg.msg
		m.statusErr = msg.err
		return m, nil

	case diffMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Compare failed: %v", msg.err)
			m.statusErr = true
			m.view = ContainersView
			m.diffSelections = nil
		} else {
			m.diffResult = msg.result
			m.diffCursor = 0
			m.view = DiffResultView
			m.statusMsg = ""
		}
		return m, nil

	case fileDiffMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Entry diff failed: %v", msg.err)
			m.statusErr = true
		} else {
			m.fileDiff = msg.result
			m.fileDiffScroll = 0
			m.view = FileDiffView
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		m.statusErr = false

		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			m.moveCursor(-1)

		case key.Matches(msg, keys.Down):
			m.moveCursor(1)

		case key.Matches(msg, keys.Enter):
			return m, m.open()

		case key.Matches(msg, keys.Back):
			m.back()

		case key.Matches(msg, keys.Refresh):
			if m.view == ContainersView {
				if err := m.loadContainers(); err != nil {
					m.statusMsg = fmt.Sprintf("Error: %v", err)
					m.statusErr = true
				}
			}

		case key.Matches(msg, keys.Verify):
			return m, m.runVerify()

		case key.Matches(msg, keys.Diff):
			if m.view == ContainersView && len(m.containers) >= 2 {
				m.view = DiffSelectView
				m.diffSelections = nil
				m.statusMsg = "Select 2 containers to compare (space to select)"
			}

		case key.Matches(msg, keys.Select):
			if m.view == DiffSelectView {
				return m, m.toggleDiffSelection()
			}

		case key.Matches(msg, keys.Swap):
			if m.view == FileDiffView && m.fileDiff != nil {
				m.diffSwapped = !m.diffSwapped
			}
		}
	}

	return m, nil
}

func (m *Model) open() tea.Cmd {
	switch m.view {
	case ContainersView:
		if len(m.containers) == 0 {
			return nil
		}
		m.selectedContainer = m.containers[m.containerCursor].File
		if err := m.loadEntries(); err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", err)
			m.statusErr = true
			return nil
		}
		m.view = EntriesView
		m.entryCursor = 0
	case DiffResultView:
		if m.diffResult != nil && len(m.diffResult.Changes) > 0 {
			return m.computeFileDiff(m.diffResult.Changes[m.diffCursor])
		}
	}
	return nil
}

func (m *Model) back() {
	switch m.view {
	case EntriesView:
		m.view = ContainersView
		m.entries = nil
	case DiffSelectView:
		m.view = ContainersView
		m.diffSelections = nil
	case DiffResultView:
		m.view = ContainersView
		m.diffResult = nil
		m.diffSelections = nil
		m.diffCursor = 0
	case FileDiffView:
		m.view = DiffResultView
		m.fileDiff = nil
		m.fileDiffScroll = 0
	}
}

// clamp keeps a cursor inside [0, n).
func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

func (m *Model) moveCursor(delta int) {
	switch m.view {
	case ContainersView, DiffSelectView:
		m.containerCursor = clamp(m.containerCursor+delta, len(m.containers))
	case EntriesView:
		m.entryCursor = clamp(m.entryCursor+delta, len(m.entries))
	case DiffResultView:
		if m.diffResult != nil {
			m.diffCursor = clamp(m.diffCursor+delta, len(m.diffResult.Changes))
		}
	case FileDiffView:
		if m.fileDiff != nil {
			maxScroll := len(m.fileDiff.Lines) - m.visibleHeight(12)
			if maxScroll < 0 {
				maxScroll = 0
			}
			m.fileDiffScroll = clamp(m.fileDiffScroll+delta, maxScroll+1)
		}
	}
}

func (m *Model) runVerify() tea.Cmd {
	var file string
	switch {
	case m.view == ContainersView && len(m.containers) > 0:
		file = m.containers[m.containerCursor].File
	case m.view == EntriesView:
		file = m.selectedContainer
	}

	return func() tea.Msg {
		if file == "" {
			return statusMsg{err: true, msg: "No container selected"}
		}
		if err := m.svc.VerifyContainer(m.config, m.dir, file); err != nil {
			return statusMsg{err: true, msg: fmt.Sprintf("✗ %s: %v", file, err)}
		}
		return statusMsg{msg: fmt.Sprintf("✓ %s verified", file)}
	}
}

func (m *Model) toggleDiffSelection() tea.Cmd {
	idx := m.containerCursor
	found := -1
	for i, sel := range m.diffSelections {
		if sel == idx {
			found = i
			break
		}
	}

	if found >= 0 {
		m.diffSelections = append(m.diffSelections[:found], m.diffSelections[found+1:]...)
	} else if len(m.diffSelections) < 2 {
		m.diffSelections = append(m.diffSelections, idx)
	}

	if len(m.diffSelections) != 2 {
		return nil
	}

	// Older container on the left
	first, second := m.containers[m.diffSelections[0]], m.containers[m.diffSelections[1]]
	if second.CreatedAt.Before(first.CreatedAt) {
		first, second = second, first
	}
	return func() tea.Msg {
		result, err := m.svc.CompareContainers(m.config, m.dir, first.File, second.File)
		return diffMsg{result: result, err: err}
	}
}

func (m *Model) computeFileDiff(change ports.Change) tea.Cmd {
	file1, file2 := m.diffResult.Container1, m.diffResult.Container2
	return func() tea.Msg {
		result, err := m.svc.CompareEntry(m.config, m.dir, file1, file2, change)
		return fileDiffMsg{result: result, err: err}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.view {
	case ContainersView:
		content = m.renderContainersView()
	case EntriesView:
		content = m.renderEntriesView()
	case DiffSelectView:
		content = m.renderDiffSelectView()
	case DiffResultView:
		content = m.renderDiffResultView()
	case FileDiffView:
		content = m.renderFileDiffView()
	}

	return appStyle.Render(content)
}

func (m *Model) visibleHeight(chrome int) int {
	h := m.height - chrome
	if h < 5 {
		h = 5
	}
	return h
}

// window returns the first visible row for a list scrolled to cursor.
func window(cursor, height int) int {
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

func (m *Model) writeFooter(b *strings.Builder, rows int, help string) {
	for i := rows; i < m.height-10; i++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(help))
}

func (m *Model) containerLine(c ports.TUIContainerInfo) string {
	created := "-"
	if !c.CreatedAt.IsZero() {
		created = c.CreatedAt.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%-8s %-38s %10s %7d  %s",
		truncate(c.Label, 8), truncate(c.File, 38), archive.FormatSize(c.Size), c.EntryCount, created)
}

func (m *Model) renderContainersView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf(" 🗄 archivist: %s ", m.dir)))
	b.WriteString("\n\n")

	if len(m.containers) == 0 {
		b.WriteString(dimStyle.Render("  No containers found"))
		b.WriteString("\n")
	} else {
		header := fmt.Sprintf("  %-8s %-38s %10s %7s  %s", "LABEL", "FILE", "SIZE", "ENTRIES", "CREATED")
		b.WriteString(dimStyle.Render(header))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", 84)))
		b.WriteString("\n")

		height := m.visibleHeight(10)
		start := window(m.containerCursor, height)
		for i := start; i < len(m.containers) && i < start+height; i++ {
			c := m.containers[i]
			cursor := "  "
			style := normalStyle
			if !c.Recorded {
				style = unrecordedStyle
			}
			if i == m.containerCursor {
				cursor = "▸ "
				style = selectedStyle
			}
			b.WriteString(style.Render(cursor + m.containerLine(c)))
			b.WriteString("\n")
		}
	}

	m.writeFooter(&b, len(m.containers), "[↑/↓] navigate  [enter] entries  [d] compare  [v] verify  [r] refresh  [q] quit")
	return b.String()
}

func (m *Model) renderEntriesView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf(" 🗄 %s ", m.selectedContainer)))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(dimStyle.Render("  Empty container"))
		b.WriteString("\n")
	} else {
		header := fmt.Sprintf("  %-48s %10s %10s", "ENTRY", "SIZE", "CRC32")
		b.WriteString(dimStyle.Render(header))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", 72)))
		b.WriteString("\n")

		height := m.visibleHeight(10)
		start := window(m.entryCursor, height)
		for i := start; i < len(m.entries) && i < start+height; i++ {
			e := m.entries[i]
			cursor := "  "
			style := normalStyle
			if i == m.entryCursor {
				cursor = "▸ "
				style = selectedStyle
			}
			line := fmt.Sprintf("%s%-48s %10s %10s",
				cursor, truncate(e.Name, 48), archive.FormatSize(e.Size), fmt.Sprintf("%08x", e.CRC32))
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}

	m.writeFooter(&b, len(m.entries), "[↑/↓] navigate  [v] verify  [esc] back  [q] quit")
	return b.String()
}

func (m *Model) renderDiffSelectView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" 🔍 Select containers to compare "))
	b.WriteString("\n\n")

	header := fmt.Sprintf("      %-8s %-38s %10s %7s  %s", "LABEL", "FILE", "SIZE", "ENTRIES", "CREATED")
	b.WriteString(dimStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 88)))
	b.WriteString("\n")

	isSelected := func(idx int) bool {
		for _, sel := range m.diffSelections {
			if sel == idx {
				return true
			}
		}
		return false
	}

	height := m.visibleHeight(10)
	start := window(m.containerCursor, height)
	for i := start; i < len(m.containers) && i < start+height; i++ {
		cursor := "  "
		style := normalStyle
		checkbox := "[ ]"
		if i == m.containerCursor {
			cursor = "▸ "
			style = selectedStyle
		}
		if isSelected(i) {
			checkbox = "[✓]"
		}
		b.WriteString(style.Render(cursor + checkbox + " " + m.containerLine(m.containers[i])))
		b.WriteString("\n")
	}

	for i := len(m.containers); i < m.height-10; i++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch len(m.diffSelections) {
	case 0:
		b.WriteString(dimStyle.Render("Select first container..."))
	case 1:
		b.WriteString(dimStyle.Render("Select second container..."))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[↑/↓] navigate  [space] select  [esc] cancel"))

	return b.String()
}

func (m *Model) renderDiffResultView() string {
	if m.diffResult == nil {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf(" 📊 %s vs %s ", m.diffResult.Container1, m.diffResult.Container2)))
	b.WriteString("\n\n")

	summary := fmt.Sprintf("  Modified: %d   Added: %d   Deleted: %d",
		m.diffResult.Modified, m.diffResult.Added, m.diffResult.Deleted)
	b.WriteString(dimStyle.Render(summary))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 70)))
	b.WriteString("\n")

	if len(m.diffResult.Changes) == 0 {
		b.WriteString(dimStyle.Render("  No differences found"))
		b.WriteString("\n")
	} else {
		height := m.visibleHeight(10)
		start := window(m.diffCursor, height)
		for i := start; i < len(m.diffResult.Changes) && i < start+height; i++ {
			c := m.diffResult.Changes[i]
			cursor := "  "
			style := normalStyle
			if i == m.diffCursor {
				cursor = "▸ "
				style = selectedStyle
			}

			var sizes string
			switch c.Status {
			case 'M':
				sizes = fmt.Sprintf("%s -> %s", archive.FormatSize(c.Size1), archive.FormatSize(c.Size2))
			case 'A':
				sizes = archive.FormatSize(c.Size2)
			case 'D':
				sizes = archive.FormatSize(c.Size1)
			}

			line := fmt.Sprintf("%s%c %-48s %s", cursor, c.Status, truncate(c.Name, 48), sizes)
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}

	m.writeFooter(&b, len(m.diffResult.Changes), "[↑/↓] navigate  [enter] view diff  [esc] back  [q] quit")
	return b.String()
}

func (m *Model) renderFileDiffView() string {
	if m.fileDiff == nil {
		return "Loading..."
	}

	var b strings.Builder

	c1, c2 := m.fileDiff.Container1, m.fileDiff.Container2
	if m.diffSwapped {
		c1, c2 = c2, c1
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf(" 📄 %s ", m.fileDiff.Name)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-35s │ %-35s", c1, c2)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 75)))
	b.WriteString("\n")

	switch {
	case m.fileDiff.Error != "":
		b.WriteString(errorBadge.Render(m.fileDiff.Error))
		b.WriteString("\n")
	case m.fileDiff.IsBinary:
		b.WriteString(dimStyle.Render("  Binary entry - content diff not available"))
		b.WriteString("\n")
	case len(m.fileDiff.Lines) == 0:
		b.WriteString(dimStyle.Render("  No differences"))
		b.WriteString("\n")
	default:
		height := m.visibleHeight(12)
		end := m.fileDiffScroll + height
		if end > len(m.fileDiff.Lines) {
			end = len(m.fileDiff.Lines)
		}

		for i := m.fileDiffScroll; i < end; i++ {
			line := m.fileDiff.Lines[i]

			ln1, ln2 := "   ", "   "
			if line.LineNum1 > 0 {
				ln1 = fmt.Sprintf("%3d", line.LineNum1)
			}
			if line.LineNum2 > 0 {
				ln2 = fmt.Sprintf("%3d", line.LineNum2)
			}
			if m.diffSwapped {
				ln1, ln2 = ln2, ln1
			}

			content := truncate(line.Content, 60)
			switch line.Type {
			case '+':
				b.WriteString(addedStyle.Render(fmt.Sprintf("%s  + │ %s  + %s", ln1, ln2, content)))
			case '-':
				b.WriteString(deletedStyle.Render(fmt.Sprintf("%s  - │ %s  - %s", ln1, ln2, content)))
			default:
				b.WriteString(dimStyle.Render(fmt.Sprintf("%s    │ %s    %s", ln1, ln2, content)))
			}
			b.WriteString("\n")
		}

		if len(m.fileDiff.Lines) > height {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  Lines %d-%d of %d",
				m.fileDiffScroll+1, end, len(m.fileDiff.Lines))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[↑/↓] scroll  [s] swap sides  [esc] back  [q] quit"))

	return b.String()
}

// Run starts the TUI for the containers of dir.
func Run(dir string) error {
	m, err := NewModelWithService(tuisvc.New(), dir)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
