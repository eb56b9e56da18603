package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alchemmist/canvas-snap/internal/logging"
	"github.com/alchemmist/canvas-snap/internal/snapshot"
)

type panelMode int

const (
	modeBrowse panelMode = iota
	modeName
	modeFilter
	modeConfirmDelete
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// opDoneMsg reports the outcome of an operation run off the update loop.
type opDoneMsg struct {
	status string
	failed bool
}

func failed(action string, err error) opDoneMsg {
	return opDoneMsg{status: fmt.Sprintf("Error %s snapshot: %v", action, err), failed: true}
}

type panelRow struct {
	summary snapshot.Summary
	score   int
}

type panelModel struct {
	ctx  context.Context
	app  *App
	opts PanelOptions

	rows        []panelRow
	table       table.Model
	nameInput   textinput.Model
	filterInput textinput.Model
	mode        panelMode
	busy        bool
	confirming  snapshot.Summary
	status      string
	statusErr   bool
	width       int
	height      int
}

type PanelOptions struct {
	ExportDir string
	Compress  bool
}

func newPanelModel(ctx context.Context, a *App, opts PanelOptions) panelModel {
	name := textinput.New()
	name.Placeholder = "Enter snapshot name..."
	name.Prompt = "name> "
	name.CharLimit = 120

	filter := textinput.New()
	filter.Placeholder = "fuzzy search"
	filter.Prompt = "query> "

	cols := []table.Column{
		{Title: "NAME", Width: 32},
		{Title: "CAPTURED", Width: 19},
		{Title: "BOARDS", Width: 6},
		{Title: "ELEMS", Width: 6},
	}
	tbl := table.New(
		table.WithColumns(cols),
		table.WithRows(nil),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	m := panelModel{
		ctx:         ctx,
		app:         a,
		opts:        opts,
		table:       tbl,
		nameInput:   name,
		filterInput: filter,
	}
	m.reload()
	return m
}

func (m panelModel) Init() tea.Cmd {
	return nil
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case opDoneMsg:
		m.busy = false
		m.setStatus(msg.status, msg.failed)
		m.reload()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.mode {
		case modeName:
			return m.updateName(msg)
		case modeFilter:
			return m.updateFilter(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m panelModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "c", "n":
		m.mode = modeName
		m.nameInput.Reset()
		return m, m.nameInput.Focus()
	case "/":
		m.mode = modeFilter
		return m, m.filterInput.Focus()
	case "enter", "r":
		if s, ok := m.selected(); ok {
			return m.start(fmt.Sprintf("Restoring snapshot %q...", s.Name), m.restoreCmd(s))
		}
		return m, nil
	case "d", "x":
		if s, ok := m.selected(); ok {
			m.mode = modeConfirmDelete
			m.confirming = s
		}
		return m, nil
	case "e":
		if s, ok := m.selected(); ok {
			return m.start(fmt.Sprintf("Exporting snapshot %q...", s.Name), m.exportCmd(s))
		}
		return m, nil
	case "R":
		m.reload()
		m.setStatus("Snapshots loaded successfully", false)
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m panelModel) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.nameInput.Blur()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.setStatus("Please enter a name for the snapshot", true)
			return m, nil
		}
		m.mode = modeBrowse
		m.nameInput.Blur()
		return m.start("Capturing snapshot...", m.captureCmd(name))
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m panelModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.mode = modeBrowse
		m.filterInput.Blur()
		return m, nil
	}
	prev := m.filterInput.Value()
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if prev != m.filterInput.Value() {
		m.applyFilter()
	}
	return m, cmd
}

func (m panelModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.confirming
	m.mode = modeBrowse
	m.confirming = snapshot.Summary{}
	switch msg.String() {
	case "y", "Y", "enter":
		return m.start(fmt.Sprintf("Deleting snapshot %q...", target.Name), m.deleteCmd(target))
	}
	return m, nil
}

func (m panelModel) start(status string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = status
	m.statusErr = false
	return m, cmd
}

func (m panelModel) captureCmd(name string) tea.Cmd {
	return func() tea.Msg {
		sum, err := m.app.Capture(m.ctx, name)
		if err != nil {
			return failed("capturing", err)
		}
		return opDoneMsg{status: fmt.Sprintf("Snapshot %q captured successfully", sum.Name)}
	}
}

func (m panelModel) restoreCmd(s snapshot.Summary) tea.Cmd {
	return func() tea.Msg {
		msg, err := m.app.RestoreID(m.ctx, s.ID)
		if err != nil {
			return failed("restoring", err)
		}
		return opDoneMsg{status: msg}
	}
}

func (m panelModel) deleteCmd(s snapshot.Summary) tea.Cmd {
	return func() tea.Msg {
		msg, err := m.app.DeleteID(s.ID)
		if err != nil {
			return failed("deleting", err)
		}
		return opDoneMsg{status: msg}
	}
}

func (m panelModel) exportCmd(s snapshot.Summary) tea.Cmd {
	return func() tea.Msg {
		b, err := m.app.store.Export(s.ID)
		if err != nil {
			return failed("downloading", err)
		}
		path, err := m.app.writeExport(s.Name, b, m.opts.ExportDir, m.opts.Compress)
		if err != nil {
			return failed("downloading", err)
		}
		return opDoneMsg{status: fmt.Sprintf("Snapshot %q exported to %s", s.Name, path)}
	}
}

func (m *panelModel) setStatus(status string, isErr bool) {
	m.status = status
	m.statusErr = isErr
	if isErr {
		m.app.log.Warnf(logging.CategoryPanel, "%s", status)
	}
}

func (m panelModel) selected() (snapshot.Summary, bool) {
	idx := m.table.Cursor()
	visible := m.visible()
	if idx < 0 || idx >= len(visible) {
		return snapshot.Summary{}, false
	}
	return visible[idx].summary, true
}

func (m panelModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Design Version Control (%d snapshots)", len(m.rows))))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("c: capture  enter/r: restore  d: delete  e: export  /: filter  R: refresh  q: quit"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeName:
		b.WriteString(m.nameInput.View())
		b.WriteString("\n\n")
	case modeFilter:
		b.WriteString(m.filterInput.View())
		b.WriteString("\n\n")
	case modeConfirmDelete:
		b.WriteString(warningStyle.Render(fmt.Sprintf("Press y to permanently delete %q or any other key to abort.", m.confirming.Name)))
		b.WriteString("\n\n")
	default:
		if q := m.filterInput.Value(); q != "" {
			b.WriteString(helpStyle.Render("query: " + q))
			b.WriteString("\n\n")
		}
	}

	switch {
	case len(m.rows) == 0:
		b.WriteString("No snapshots yet\nCapture your first design snapshot with c.\n")
	case len(m.visible()) == 0:
		b.WriteString("No snapshots match query\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Loading..."))
	}
	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(errStyle.Render(m.status))
		} else {
			b.WriteString(okStyle.Render(m.status))
		}
	}
	return b.String()
}

func (m *panelModel) resize() {
	if m.width <= 0 {
		return
	}
	nameW := m.width - 45
	if nameW < 16 {
		nameW = 16
	}
	cols := m.table.Columns()
	if len(cols) == 4 {
		cols[0].Width = nameW
		m.table.SetColumns(cols)
	}

	tableHeight := m.height - 9
	if tableHeight < 5 {
		tableHeight = 5
	}
	m.table.SetHeight(tableHeight)
}

func (m *panelModel) reload() {
	list := m.app.List()
	m.rows = make([]panelRow, 0, len(list))
	for _, s := range list {
		m.rows = append(m.rows, panelRow{summary: s})
	}
	m.applyFilter()
}

func (m panelModel) visible() []panelRow {
	query := strings.TrimSpace(strings.ToLower(m.filterInput.Value()))
	rows := make([]panelRow, 0, len(m.rows))
	for _, row := range m.rows {
		target := strings.ToLower(fmt.Sprintf("%s %s", row.summary.Name, row.summary.CreatedAt.Local().Format("2006-01-02 15:04:05")))
		score, ok := fuzzyScore(query, target)
		if !ok {
			continue
		}
		row.score = score
		rows = append(rows, row)
	}
	if query != "" {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].score > rows[j].score })
	}
	return rows
}

// applyFilter refreshes the table rows; list order is oldest first unless a
// query ranks them.
func (m *panelModel) applyFilter() {
	rows := m.visible()
	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, table.Row{
			trim(row.summary.Name, 80),
			row.summary.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", row.summary.Boards),
			fmt.Sprintf("%d", row.summary.Elements),
		})
	}
	m.table.SetRows(tableRows)

	// An empty table parks its cursor at -1; move it back once rows exist.
	switch {
	case len(tableRows) == 0:
		return
	case m.table.Cursor() < 0:
		m.table.SetCursor(0)
	case m.table.Cursor() >= len(tableRows):
		m.table.SetCursor(len(tableRows) - 1)
	}
}

func fuzzyScore(query, target string) (int, bool) {
	if query == "" {
		return 1, true
	}
	qi := 0
	score := 0
	streak := 0
	for i := 0; i < len(target) && qi < len(query); i++ {
		if target[i] == query[qi] {
			score += 10 + streak*3
			streak++
			qi++
		} else {
			streak = 0
		}
	}
	if qi != len(query) {
		return 0, false
	}
	return score, true
}

func trim(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// RunPanel runs the interactive panel until the user quits.
func (a *App) RunPanel(ctx context.Context, opts PanelOptions) error {
	m := newPanelModel(ctx, a, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
