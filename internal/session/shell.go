// Package session holds the per-user state of the interactive dashboards:
// a memoizing client and the shell state machine both front ends drive.
package session

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/contamio/recallctl/pkg/recall"
)

// State is a state of the interactive shell.
type State int

const (
	// StateLoading fetches the collection. It is the initial state.
	StateLoading State = iota
	// StateBrowsing shows the filtered table.
	StateBrowsing
	// StateEditing shows the edit form for one record.
	StateEditing
	// StateError is terminal for the session.
	StateError
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateBrowsing:
		return "browsing"
	case StateEditing:
		return "editing"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// UpdatedNotice is shown after a successful update.
const UpdatedNotice = "Entity updated successfully!"

// EditForm is the edit form pre-populated from a fetched record.
type EditForm struct {
	Record           recall.Record
	ID               string
	Title            string
	Status           recall.Status
	CorrectiveAction string
}

// newEditForm pre-selects the record's status, or open when the record holds
// a status outside the known set.
func newEditForm(record recall.Record) *EditForm {
	status := record.Status()
	if !status.Valid() {
		status = recall.StatusOpen
	}

	return &EditForm{
		Record:           record,
		ID:               record.ID(),
		Title:            record.Title(),
		Status:           status,
		CorrectiveAction: record.CorrectiveAction(),
	}
}

// Payload returns the update the form submits.
func (f *EditForm) Payload() recall.UpdatePayload {
	return recall.NewUpdatePayload(f.Status, f.CorrectiveAction)
}

// View is a consistent snapshot of the shell for rendering.
type View struct {
	State     State
	Rows      recall.Collection
	Total     int
	IDs       []string
	Options   map[string][]string
	Selection recall.Selection
	Form      *EditForm
	Err       error
	Notice    string
}

// refresher is implemented by clients holding cached responses.
type refresher interface {
	Refresh(ctx context.Context) error
}

// Shell is the interactive state machine. Methods may be called from several
// goroutines; network calls run without holding the lock, and a result that
// arrives after the state moved on is discarded.
type Shell struct {
	client recall.Client

	mu        sync.Mutex
	state     State
	records   recall.Collection
	selection recall.Selection
	form      *EditForm
	err       error
	notice    string
	// epoch increments on every transition so stale results can be detected.
	epoch uint64
}

// NewShell creates a shell in the Loading state.
func NewShell(client recall.Client) *Shell {
	return &Shell{
		client:    client,
		state:     StateLoading,
		selection: recall.Selection{},
	}
}

// State returns the current state.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Err returns the error surfaced by the last failed operation, if any.
func (s *Shell) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Form returns the current edit form, or nil outside Editing.
func (s *Shell) Form() *EditForm {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.form == nil {
		return nil
	}

	form := *s.form

	return &form
}

// Load fetches the collection. It is valid only in Loading. On failure the
// shell enters Error and stays there.
func (s *Shell) Load(ctx context.Context) error {
	epoch, err := s.begin("load", StateLoading)
	if err != nil {
		return err
	}

	records, err := s.client.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return fmt.Errorf("%w: load result arrived after the shell moved on", recall.ErrInvalidTransition)
	}

	if err != nil {
		s.transition(StateError)
		s.err = err

		return err
	}

	s.records = records
	s.err = nil
	s.transition(StateBrowsing)

	return nil
}

// SetFilter replaces the accepted values of a filterable column. An empty
// values slice removes the constraint. The table re-filters immediately.
func (s *Shell) SetFilter(column string, values []string) error {
	if !slices.Contains(recall.FilterableFields, column) {
		return fmt.Errorf("%w: %s", recall.ErrUnknownFilterField, column)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBrowsing && s.state != StateEditing {
		return s.invalid("filter")
	}

	s.selection = s.selection.With(column, values)

	return nil
}

// Select fetches a record and opens its edit form. Only ids of the loaded
// collection can be selected. A failed fetch keeps the current state and
// surfaces the error.
func (s *Shell) Select(ctx context.Context, id string) error {
	epoch, err := s.begin("select", StateBrowsing, StateEditing)
	if err != nil {
		return err
	}

	err = s.lookup(id)
	if err != nil {
		return err
	}

	record, err := s.client.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return fmt.Errorf("%w: record %s arrived after the shell moved on", recall.ErrInvalidTransition, id)
	}

	s.notice = ""

	if err != nil {
		s.err = err

		return err
	}

	s.err = nil
	s.form = newEditForm(record)
	s.transition(StateEditing)

	return nil
}

// Submit sends payload for the record being edited. On success the cached
// list is invalidated and the shell returns to Loading; the driver then calls
// Load. On failure the shell stays in Editing with the error surfaced.
func (s *Shell) Submit(ctx context.Context, payload recall.UpdatePayload) error {
	s.mu.Lock()

	if s.state != StateEditing {
		defer s.mu.Unlock()

		return s.invalid("submit")
	}

	epoch, id := s.epoch, s.form.ID
	s.notice = ""

	err := payload.Validate()
	if err != nil {
		s.err = err
		s.mu.Unlock()

		return err
	}

	s.mu.Unlock()

	_, err = s.client.Update(ctx, id, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if s.epoch != epoch {
			return fmt.Errorf("%w: update of %s failed after the shell moved on: %w", recall.ErrInvalidTransition, id, err)
		}

		s.err = err

		return err
	}

	// A successful update always ends in Loading, even when the state moved
	// on while it was in flight. Error stays terminal.
	if s.state == StateError {
		return nil
	}

	s.err = nil
	s.form = nil
	s.notice = UpdatedNotice

	if s.state != StateLoading {
		s.transition(StateLoading)
	}

	return nil
}

// Cancel closes the edit form without submitting.
func (s *Shell) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing {
		return s.invalid("cancel")
	}

	s.form = nil
	s.err = nil
	s.transition(StateBrowsing)

	return nil
}

// Refresh drops cached responses and returns to Loading.
func (s *Shell) Refresh(ctx context.Context) error {
	epoch, err := s.begin("refresh", StateBrowsing, StateEditing)
	if err != nil {
		return err
	}

	if cached, ok := s.client.(refresher); ok {
		err = cached.Refresh(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return fmt.Errorf("%w: refresh finished after the shell moved on", recall.ErrInvalidTransition)
	}

	if err != nil {
		s.err = err

		return err
	}

	s.form = nil
	s.err = nil
	s.notice = ""
	s.transition(StateLoading)

	return nil
}

// View returns a snapshot for rendering.
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		State:     s.state,
		Selection: maps.Clone(s.selection),
		Err:       s.err,
		Notice:    s.notice,
		Options:   make(map[string][]string, len(recall.FilterableFields)),
		Rows:      recall.Collection{},
		IDs:       []string{},
	}

	if s.state == StateBrowsing || s.state == StateEditing {
		view.Rows = recall.Filter(s.records, s.selection)
		view.Total = len(s.records)
		view.IDs = view.Rows.IDs()

		for _, column := range recall.FilterableFields {
			view.Options[column] = recall.DistinctValues(s.records, column)
		}
	}

	if s.form != nil {
		form := *s.form
		view.Form = &form
	}

	return view
}

// lookup fails with ErrUnknownRecord when id is not in the loaded collection.
func (s *Shell) lookup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records.Find(id); ok {
		return nil
	}

	err := fmt.Errorf("%w: %s", recall.ErrUnknownRecord, id)
	s.notice = ""
	s.err = err

	return err
}

// begin checks that the shell is in one of allowed and returns the current
// epoch for the caller to compare against once its network call returns.
func (s *Shell) begin(event string, allowed ...State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(allowed, s.state) {
		return 0, s.invalid(event)
	}

	return s.epoch, nil
}

func (s *Shell) transition(next State) {
	s.state = next
	s.epoch++
}

func (s *Shell) invalid(event string) error {
	return fmt.Errorf("%w: %s while %s", recall.ErrInvalidTransition, event, s.state)
}
