// Package display turns records into table rows shared by the CLI, the
// terminal UI and the dashboard.
package display

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/pkg/recall"
)

// Headers are the table columns, in order.
var Headers = []string{"ID", "Title", "Region", "Severity", "Status", "Corrective Action"}

// Row renders the table cells of record. Long text is truncated and empty
// cells show constants.NotAvailable.
func Row(record recall.Record) []string {
	return []string{
		orNA(record.ID()),
		orNA(Truncate(record.Title(), constants.TitleTruncationLimit)),
		orNA(record.Region()),
		orNA(record.Severity()),
		orNA(string(record.Status())),
		orNA(Truncate(record.CorrectiveAction(), constants.CorrectiveActionTruncationLimit)),
	}
}

// Rows renders every record of collection.
func Rows(collection recall.Collection) [][]string {
	rows := make([][]string, 0, len(collection))
	for _, record := range collection {
		rows = append(rows, Row(record))
	}

	return rows
}

// Truncate shortens text to at most limit runes, ending with "...".
// Newlines are flattened to spaces.
func Truncate(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	if limit <= 3 {
		return string(runes[:limit])
	}

	return string(runes[:limit-3]) + "..."
}

// StatusLabel is the human label of a status.
func StatusLabel(status recall.Status) string {
	switch status {
	case recall.StatusOpen:
		return "Open"
	case recall.StatusInProgress:
		return "In progress"
	case recall.StatusClosed:
		return "Closed"
	case recall.StatusResolved:
		return "Resolved"
	default:
		if status == "" {
			return constants.NotAvailable
		}

		return string(status)
	}
}

// ColumnLabel turns a field name such as "corrective_action" into a
// heading ("Corrective Action").
func ColumnLabel(column string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(column, "_", " "))
}

// FilterSummary names the constrained columns of selection, or returns ""
// when nothing is filtered.
func FilterSummary(selection recall.Selection) string {
	if !selection.Active() {
		return ""
	}

	columns := selection.Columns()

	labels := make([]string, 0, len(columns))
	for _, column := range columns {
		labels = append(labels, ColumnLabel(column))
	}

	return strings.Join(labels, ", ")
}

func orNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
