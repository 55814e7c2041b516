package tui

import (
	"context"
	"net/http"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/contamio/recallctl/internal/client"
	"github.com/contamio/recallctl/internal/session"
	"github.com/contamio/recallctl/internal/testutil"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, server *testutil.RecallServer) *Model {
	t.Helper()

	remote, err := client.New(context.Background(), &recall.Config{BaseURL: server.BaseURL()})
	require.NoError(t, err)

	shell := session.NewShell(session.NewCachingClient(remote, nil, server.BaseURL(), nil))
	model := NewModel(context.Background(), shell, "Recalls")
	model.SetSize(160, 40)

	return model
}

// drain runs cmd and feeds every resulting shell message back into the model.
func drain(t *testing.T, model *Model, cmd tea.Cmd) {
	t.Helper()

	if cmd == nil {
		return
	}

	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, inner := range msg {
			drain(t, model, inner)
		}
	case loadedMsg, selectedMsg, submittedMsg, refreshedMsg:
		_, next := model.Update(msg)
		drain(t, model, next)
	case spinner.TickMsg, tea.QuitMsg, nil:
	default:
		t.Fatalf("unexpected message %T", msg)
	}
}

func press(t *testing.T, model *Model, key tea.KeyMsg) tea.Cmd {
	t.Helper()

	_, cmd := model.Update(key)

	return cmd
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func TestModel_InitLoadsTable(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "", testutil.SampleRecords()...)
	model := newTestModel(t, server)

	drain(t, model, model.Init())

	assert.False(t, model.busy)
	assert.Equal(t, session.StateBrowsing, model.view.State)
	assert.Len(t, model.table.Rows(), 4)
	assert.Equal(t, "r-1", model.table.Rows()[0][0])

	view := model.View()
	assert.Contains(t, view, "Recalls")
	assert.Contains(t, view, "Brake hose chafing")
	assert.Contains(t, view, "4 of 4 recalls")
}

func TestModel_LoadFailureShowsError(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "")
	server.FailWith(http.StatusInternalServerError, "internal error")
	model := newTestModel(t, server)

	drain(t, model, model.Init())

	assert.Equal(t, session.StateError, model.view.State)
	require.Error(t, model.err)
	assert.Contains(t, model.View(), "Failed to load recalls")

	cmd := press(t, model, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, model.quitting)
	assert.Empty(t, model.View())
}

func TestModel_FilterToggle(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "", testutil.SampleRecords()...)
	model := newTestModel(t, server)
	drain(t, model, model.Init())

	press(t, model, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, RegionPane, model.focus)

	press(t, model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, []string{"EU"}, model.view.Selection[recall.FieldRegion])
	assert.Len(t, model.table.Rows(), 2)
	assert.Contains(t, model.View(), "[x] EU")
	assert.Contains(t, model.View(), "filtered by Region")

	press(t, model, tea.KeyMsg{Type: tea.KeyDown})
	press(t, model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, []string{"EU", "US"}, model.view.Selection[recall.FieldRegion])
	assert.Len(t, model.table.Rows(), 3)

	press(t, model, runes("c"))
	assert.Empty(t, model.view.Selection[recall.FieldRegion])
	assert.Len(t, model.table.Rows(), 4)
	assert.NotContains(t, model.View(), "filtered by")

	press(t, model, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, SeverityPane, model.focus)
	press(t, model, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TablePane, model.focus)
}

func TestModel_EditAndSubmit(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "", testutil.SampleRecords()...)
	model := newTestModel(t, server)
	drain(t, model, model.Init())

	drain(t, model, press(t, model, tea.KeyMsg{Type: tea.KeyEnter}))

	require.Equal(t, session.StateEditing, model.view.State)
	require.NotNil(t, model.view.Form)
	assert.Equal(t, "r-1", model.view.Form.ID)
	assert.Equal(t, recall.StatusOpen, model.status)
	assert.Contains(t, model.View(), "Edit r-1")

	press(t, model, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, recall.StatusInProgress, model.status)

	press(t, model, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, CorrectiveActionField, model.formField)
	model.textarea.SetValue("Replace hose")

	drain(t, model, press(t, model, tea.KeyMsg{Type: tea.KeyCtrlS}))

	assert.Equal(t, session.StateBrowsing, model.view.State)
	assert.Equal(t, session.UpdatedNotice, model.view.Notice)
	assert.Contains(t, model.View(), session.UpdatedNotice)

	record, ok := server.Record("r-1")
	require.True(t, ok)
	assert.Equal(t, "in_progress", record["status"])
	assert.Equal(t, "Replace hose", record["corrective_action"])
	assert.Equal(t, "in_progress", model.table.Rows()[0][4])
}

func TestModel_EditUnknownStatusPreselectsOpen(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "", testutil.SampleRecords()...)
	model := newTestModel(t, server)
	drain(t, model, model.Init())

	for range 3 {
		press(t, model, tea.KeyMsg{Type: tea.KeyDown})
	}

	drain(t, model, press(t, model, tea.KeyMsg{Type: tea.KeyEnter}))

	require.NotNil(t, model.view.Form)
	assert.Equal(t, "r-4", model.view.Form.ID)
	assert.Equal(t, recall.StatusOpen, model.status)
}

func TestModel_CancelEdit(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "", testutil.SampleRecords()...)
	model := newTestModel(t, server)
	drain(t, model, model.Init())
	drain(t, model, press(t, model, tea.KeyMsg{Type: tea.KeyEnter}))
	require.Equal(t, session.StateEditing, model.view.State)

	press(t, model, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, session.StateBrowsing, model.view.State)
	assert.Nil(t, model.view.Form)
	assert.Equal(t, 1, server.Calls(http.MethodGet, ""))
}

func TestModel_SubmitFailureStaysInForm(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "", testutil.SampleRecords()...)
	model := newTestModel(t, server)
	drain(t, model, model.Init())
	drain(t, model, press(t, model, tea.KeyMsg{Type: tea.KeyEnter}))

	server.FailWith(http.StatusBadRequest, `{"message":"bad"}`)
	press(t, model, tea.KeyMsg{Type: tea.KeyRight})
	drain(t, model, press(t, model, tea.KeyMsg{Type: tea.KeyCtrlS}))

	assert.Equal(t, session.StateEditing, model.view.State)
	require.Error(t, model.err)
	assert.Contains(t, model.View(), "Error:")
}

func TestModel_Refresh(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "", testutil.SampleRecords()...)
	model := newTestModel(t, server)
	drain(t, model, model.Init())
	require.Equal(t, 1, server.Calls(http.MethodGet, ""))

	server.Put(recall.Record{"id": "r-5", "title": "Wiper motor", "region": "EU", "severity": "low", "status": "open"})
	drain(t, model, press(t, model, runes("r")))

	assert.Equal(t, session.StateBrowsing, model.view.State)
	assert.Equal(t, 2, server.Calls(http.MethodGet, ""))
	assert.Len(t, model.table.Rows(), 5)
}

func TestModel_IgnoresKeysWhileBusy(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecallServer(t, "", testutil.SampleRecords()...)
	model := newTestModel(t, server)
	model.Init()

	assert.Nil(t, press(t, model, tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Equal(t, 0, server.TotalCalls())
}

func TestToggle(t *testing.T) {
	t.Parallel()

	selected := []string{"EU"}

	assert.Equal(t, []string{"EU", "US"}, toggle(selected, "US"))
	assert.Empty(t, toggle(selected, "EU"))
	assert.Equal(t, []string{"EU"}, selected)
}

func TestCycleStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, recall.StatusInProgress, cycleStatus(recall.StatusOpen, 1))
	assert.Equal(t, recall.StatusResolved, cycleStatus(recall.StatusOpen, -1))
	assert.Equal(t, recall.StatusOpen, cycleStatus(recall.StatusResolved, 1))
	assert.Equal(t, recall.StatusOpen, cycleStatus("pending_review", 1))
}
