package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/contamio/recallctl/internal/display"
	"github.com/contamio/recallctl/internal/session"
	"github.com/contamio/recallctl/pkg/recall"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	switch m.view.State {
	case session.StateLoading:
		b.WriteString(m.spinner.View() + " Loading recalls...")
	case session.StateError:
		b.WriteString(errorStyle.Render("Failed to load recalls"))
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "%v\n\n", m.err)
		b.WriteString(helpStyle.Render("q: quit"))
	case session.StateBrowsing, session.StateEditing:
		b.WriteString(m.browseView())
	}

	return b.String()
}

func (m *Model) browseView() string {
	filters := lipgloss.JoinVertical(lipgloss.Left,
		m.filterView(RegionPane, display.ColumnLabel(recall.FieldRegion)),
		m.filterView(SeverityPane, display.ColumnLabel(recall.FieldSeverity)),
	)

	tablePane := paneStyle
	if m.focus == TablePane && m.view.State == session.StateBrowsing {
		tablePane = focusedPaneStyle
	}

	counts := fmt.Sprintf("%d of %d recalls", len(m.view.Rows), m.view.Total)
	if filtered := display.FilterSummary(m.view.Selection); filtered != "" {
		counts += " · filtered by " + filtered
	}

	summary := mutedStyle.Render(counts)
	main := tablePane.Render(lipgloss.JoinVertical(lipgloss.Left, m.table.View(), summary))

	body := lipgloss.JoinHorizontal(lipgloss.Top, filters, " ", main)
	if m.view.State == session.StateEditing {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.formView())
	}

	var b strings.Builder

	b.WriteString(body)
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " Working...")
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.view.Notice != "":
		b.WriteString(successStyle.Render(m.view.Notice))
	}

	b.WriteString(helpStyle.Render(m.helpText()))

	return b.String()
}

func (m *Model) filterView(pane Pane, label string) string {
	column := paneColumn(pane)
	selected := m.view.Selection[column]

	lines := []string{labelStyle.Render(label)}

	for index, option := range m.view.Options[column] {
		cursor := "  "
		if m.focus == pane && index == m.filterIndex[pane] {
			cursor = cursorStyle.Render("> ")
		}

		check := "[ ]"
		if slices.Contains(selected, option) {
			check = "[x]"
		}

		lines = append(lines, cursor+check+" "+option)
	}

	if len(lines) == 1 {
		lines = append(lines, mutedStyle.Render("no values"))
	}

	style := paneStyle
	if m.focus == pane && m.view.State == session.StateBrowsing {
		style = focusedPaneStyle
	}

	return style.Render(strings.Join(lines, "\n"))
}

func (m *Model) formView() string {
	form := m.view.Form
	if form == nil {
		return ""
	}

	title := form.Title
	if title == "" {
		title = form.ID
	}

	statuses := make([]string, 0, len(recall.Statuses()))
	for _, status := range recall.Statuses() {
		label := display.StatusLabel(status)
		if status == m.status {
			label = statusStyle(status).Render("(" + label + ")")
		}

		statuses = append(statuses, label)
	}

	statusLabel := labelStyle.Render("Status")
	if m.formField == StatusField {
		statusLabel = cursorStyle.Render("> ") + statusLabel
	}

	actionLabel := labelStyle.Render("Corrective action")
	if m.formField == CorrectiveActionField {
		actionLabel = cursorStyle.Render("> ") + actionLabel
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Edit "+form.ID),
		display.Truncate(title, max(m.width/2-6, 20)),
		"",
		statusLabel,
		strings.Join(statuses, "  "),
		"",
		actionLabel,
		m.textarea.View(),
	)

	return focusedPaneStyle.Render(content)
}

func (m *Model) helpText() string {
	if m.view.State == session.StateEditing {
		return "tab: next field • ←/→: status • ctrl+s: submit • esc: cancel • ctrl+c: quit"
	}

	if m.focus == TablePane {
		return "↑/↓: move • enter: edit • tab: filters • r: refresh • q: quit"
	}

	return "↑/↓: move • space: toggle • c: clear • tab: next pane • r: refresh • q: quit"
}
