package recall

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Fields of a Recall record consumed by this package.
const (
	FieldID               = "id"
	FieldRegion           = "region"
	FieldSeverity         = "severity"
	FieldTitle            = "title"
	FieldStatus           = "status"
	FieldCorrectiveAction = "corrective_action"
)

// FilterableFields lists the columns the dashboards offer filters for.
var FilterableFields = []string{FieldRegion, FieldSeverity}

// Status is the lifecycle state of a recall case.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
	StatusResolved   Status = "resolved"
)

// Statuses returns every valid status in display order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusClosed, StatusResolved}
}

// ParseStatus parses a status string.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.TrimSpace(value))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}

	return status, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, status := range Statuses() {
		if s == status {
			return true
		}
	}

	return false
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// Record is a single recall case as returned by the remote API. Fields other
// than the ones this package reads are kept and passed through untouched.
type Record map[string]interface{}

// ID returns the record id as text. Numeric ids are rendered in decimal.
func (r Record) ID() string {
	return r.Field(FieldID)
}

// Region returns the region column.
func (r Record) Region() string {
	return r.Field(FieldRegion)
}

// Severity returns the severity column.
func (r Record) Severity() string {
	return r.Field(FieldSeverity)
}

// Title returns the title column.
func (r Record) Title() string {
	return r.Field(FieldTitle)
}

// Status returns the raw status column. It may hold a value outside Statuses.
func (r Record) Status() Status {
	return Status(r.Field(FieldStatus))
}

// CorrectiveAction returns the corrective action text.
func (r Record) CorrectiveAction() string {
	return r.Field(FieldCorrectiveAction)
}

// Has reports whether the record carries a non-null value for field.
func (r Record) Has(field string) bool {
	value, ok := r[field]

	return ok && value != nil
}

// Field returns the text form of a scalar field, or "" when it is absent or null.
func (r Record) Field(field string) string {
	value, ok := r[field]
	if !ok || value == nil {
		return ""
	}

	return formatValue(value)
}

// Validate checks the required-field contract: a record must carry an id.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID()) == "" {
		return ErrMissingID
	}

	return nil
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	clone := make(Record, len(r))
	for key, value := range r {
		clone[key] = value
	}

	return clone
}

func formatValue(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}

		return string(data)
	}
}

// Collection is an ordered list of records in the order the remote returned them.
type Collection []Record

// IDs returns the ids of the collection in order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, record := range c {
		ids = append(ids, record.ID())
	}

	return ids
}

// Find returns the record with the given id.
func (c Collection) Find(id string) (Record, bool) {
	for _, record := range c {
		if record.ID() == id {
			return record, true
		}
	}

	return nil, false
}

// Validate checks that every record has an id and that ids are unique.
func (c Collection) Validate() error {
	seen := make(map[string]struct{}, len(c))

	for index, record := range c {
		err := record.Validate()
		if err != nil {
			return fmt.Errorf("record %d: %w", index, err)
		}

		id := record.ID()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}

		seen[id] = struct{}{}
	}

	return nil
}

// UpdatePayload carries only the fields being changed on a partial update.
type UpdatePayload struct {
	Status           Status  `json:"status,omitempty"            yaml:"status,omitempty"`
	CorrectiveAction *string `json:"corrective_action,omitempty" yaml:"corrective_action,omitempty"`
}

// NewUpdatePayload builds the payload the edit form submits: both fields set.
func NewUpdatePayload(status Status, correctiveAction string) UpdatePayload {
	return UpdatePayload{
		Status:           status,
		CorrectiveAction: &correctiveAction,
	}
}

// Validate checks that the payload changes something and that the status is known.
func (p UpdatePayload) Validate() error {
	if p.Status == "" && p.CorrectiveAction == nil {
		return ErrEmptyUpdate
	}

	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}

	return nil
}

// Apply returns a copy of record with the payload's fields set.
func (p UpdatePayload) Apply(record Record) Record {
	updated := record.Clone()

	if p.Status != "" {
		updated[FieldStatus] = string(p.Status)
	}

	if p.CorrectiveAction != nil {
		updated[FieldCorrectiveAction] = *p.CorrectiveAction
	}

	return updated
}
