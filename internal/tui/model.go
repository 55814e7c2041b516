// Package tui is the terminal front end of the interactive shell.
package tui

import (
	"context"
	"slices"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/contamio/recallctl/internal/display"
	"github.com/contamio/recallctl/internal/session"
	"github.com/contamio/recallctl/pkg/recall"
)

// Pane is the part of the browse screen receiving keys.
type Pane int

const (
	TablePane Pane = iota
	RegionPane
	SeverityPane
)

// FormField is the edit form field receiving keys.
type FormField int

const (
	StatusField FormField = iota
	CorrectiveActionField
)

// Messages carrying the result of a shell operation.
type (
	loadedMsg    struct{ err error }
	selectedMsg  struct{ err error }
	submittedMsg struct{ err error }
	refreshedMsg struct{ err error }
)

// Model is the root bubbletea model.
type Model struct {
	ctx   context.Context
	shell *session.Shell
	title string

	table    table.Model
	spinner  spinner.Model
	textarea textarea.Model

	focus       Pane
	filterIndex map[Pane]int
	formField   FormField
	status      recall.Status
	busy        bool
	err         error
	view        session.View

	width    int
	height   int
	quitting bool
}

// NewModel creates the model for shell. ctx bounds every network call.
func NewModel(ctx context.Context, shell *session.Shell, title string) *Model {
	columns := make([]table.Column, 0, len(display.Headers))
	for _, header := range display.Headers {
		columns = append(columns, table.Column{Title: header, Width: len(header) + 2})
	}

	recordTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(tableStyles()),
	)

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = cursorStyle

	area := textarea.New()
	area.Placeholder = "Describe the corrective action..."
	area.ShowLineNumbers = false
	area.SetHeight(5)

	return &Model{
		ctx:         ctx,
		shell:       shell,
		title:       title,
		table:       recordTable,
		spinner:     spin,
		textarea:    area,
		filterIndex: map[Pane]int{RegionPane: 0, SeverityPane: 0},
		view:        shell.View(),
	}
}

// Init starts the initial load.
func (m *Model) Init() tea.Cmd {
	m.busy = true

	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.shell.Load(m.ctx)}
	}
}

func (m *Model) selectRecord(id string) tea.Cmd {
	return func() tea.Msg {
		return selectedMsg{err: m.shell.Select(m.ctx, id)}
	}
}

func (m *Model) submit(payload recall.UpdatePayload) tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{err: m.shell.Submit(m.ctx, payload)}
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.shell.Refresh(m.ctx)}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}

		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case loadedMsg:
		m.busy = false
		m.err = msg.err
		m.sync()

		return m, nil

	case selectedMsg:
		m.busy = false
		m.err = msg.err
		m.sync()

		if msg.err == nil {
			return m, m.openForm()
		}

		return m, nil

	case submittedMsg, refreshedMsg:
		m.busy = false
		m.err = resultErr(msg)
		m.sync()

		if m.view.State == session.StateLoading {
			m.busy = true
			m.textarea.Blur()

			return m, tea.Batch(m.spinner.Tick, m.load())
		}

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func resultErr(msg tea.Msg) error {
	switch msg := msg.(type) {
	case submittedMsg:
		return msg.err
	case refreshedMsg:
		return msg.err
	default:
		return nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true

		return m, tea.Quit
	}

	if m.busy {
		return m, nil
	}

	switch m.view.State {
	case session.StateBrowsing:
		return m.handleBrowseKey(msg)
	case session.StateEditing:
		return m.handleEditKey(msg)
	case session.StateError:
		switch msg.String() {
		case "q", "esc", "enter":
			m.quitting = true

			return m, tea.Quit
		}
	case session.StateLoading:
	}

	return m, nil
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true

		return m, tea.Quit
	case "tab":
		m.focus = (m.focus + 1) % 3
		m.syncFocus()

		return m, nil
	case "shift+tab":
		m.focus = (m.focus + 2) % 3
		m.syncFocus()

		return m, nil
	case "r":
		m.busy = true

		return m, tea.Batch(m.spinner.Tick, m.refresh())
	}

	if m.focus != TablePane {
		return m.handleFilterKey(msg)
	}

	if msg.String() == "enter" {
		row := m.table.SelectedRow()
		if len(row) == 0 {
			return m, nil
		}

		m.busy = true

		return m, tea.Batch(m.spinner.Tick, m.selectRecord(m.view.Rows[m.table.Cursor()].ID()))
	}

	var cmd tea.Cmd

	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	column := paneColumn(m.focus)
	options := m.view.Options[column]

	switch msg.String() {
	case "up", "k":
		if m.filterIndex[m.focus] > 0 {
			m.filterIndex[m.focus]--
		}
	case "down", "j":
		if m.filterIndex[m.focus] < len(options)-1 {
			m.filterIndex[m.focus]++
		}
	case " ", "x", "enter":
		if len(options) == 0 {
			return m, nil
		}

		value := options[m.filterIndex[m.focus]]
		m.err = m.shell.SetFilter(column, toggle(m.view.Selection[column], value))
		m.sync()
	case "c":
		m.err = m.shell.SetFilter(column, nil)
		m.sync()
	}

	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = m.shell.Cancel()
		m.textarea.Blur()
		m.sync()

		return m, nil
	case "ctrl+s":
		if m.view.Form == nil {
			return m, nil
		}

		form := *m.view.Form
		form.Status = m.status
		form.CorrectiveAction = m.textarea.Value()
		m.busy = true

		return m, tea.Batch(m.spinner.Tick, m.submit(form.Payload()))
	case "tab", "shift+tab":
		if m.formField == StatusField {
			m.formField = CorrectiveActionField

			return m, m.textarea.Focus()
		}

		m.formField = StatusField
		m.textarea.Blur()

		return m, nil
	}

	if m.formField == StatusField {
		switch msg.String() {
		case "left", "h", "up", "k":
			m.status = cycleStatus(m.status, -1)
		case "right", "l", "down", "j", " ":
			m.status = cycleStatus(m.status, 1)
		}

		return m, nil
	}

	var cmd tea.Cmd

	m.textarea, cmd = m.textarea.Update(msg)

	return m, cmd
}

// openForm loads the fetched record into the form widgets.
func (m *Model) openForm() tea.Cmd {
	if m.view.Form == nil {
		return nil
	}

	m.status = m.view.Form.Status
	m.textarea.SetValue(m.view.Form.CorrectiveAction)
	m.formField = StatusField
	m.textarea.Blur()

	return nil
}

// sync refreshes the snapshot and the table rows from the shell.
func (m *Model) sync() {
	m.view = m.shell.View()

	rows := make([]table.Row, 0, len(m.view.Rows))
	for _, cells := range display.Rows(m.view.Rows) {
		rows = append(rows, table.Row(cells))
	}

	m.table.SetRows(rows)
	m.resizeColumns(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}

	for pane, index := range m.filterIndex {
		if options := m.view.Options[paneColumn(pane)]; index >= len(options) {
			m.filterIndex[pane] = max(len(options)-1, 0)
		}
	}
}

func (m *Model) resizeColumns(rows []table.Row) {
	columns := m.table.Columns()

	for index := range columns {
		width := len([]rune(columns[index].Title))

		for _, row := range rows {
			width = max(width, len([]rune(row[index])))
		}

		columns[index].Width = width
	}

	m.table.SetColumns(columns)
}

func (m *Model) syncFocus() {
	if m.focus == TablePane {
		m.table.Focus()

		return
	}

	m.table.Blur()
}

// SetSize adapts the widgets to the terminal size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	m.table.SetWidth(max(width-30, 40))
	m.table.SetHeight(max(height-14, 5))
	m.textarea.SetWidth(max(width/2-6, 20))
}

func paneColumn(pane Pane) string {
	if pane == SeverityPane {
		return recall.FieldSeverity
	}

	return recall.FieldRegion
}

// toggle adds value to selected, or removes it when present.
func toggle(selected []string, value string) []string {
	if slices.Contains(selected, value) {
		return slices.DeleteFunc(slices.Clone(selected), func(item string) bool { return item == value })
	}

	return append(slices.Clone(selected), value)
}

func cycleStatus(current recall.Status, step int) recall.Status {
	statuses := recall.Statuses()

	index := slices.Index(statuses, current)
	if index < 0 {
		return recall.StatusOpen
	}

	return statuses[(index+step+len(statuses))%len(statuses)]
}
