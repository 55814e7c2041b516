package recall

import "sort"

// Selection maps a column name to the values accepted for that column.
// A column that is absent or has no accepted values imposes no constraint.
type Selection map[string][]string

// Active reports whether any column carries a constraint.
func (s Selection) Active() bool {
	for _, values := range s {
		if len(values) > 0 {
			return true
		}
	}

	return false
}

// With returns a copy of the selection with column set to values.
func (s Selection) With(column string, values []string) Selection {
	next := make(Selection, len(s)+1)
	for key, accepted := range s {
		next[key] = accepted
	}

	if len(values) == 0 {
		delete(next, column)

		return next
	}

	next[column] = append([]string(nil), values...)

	return next
}

// Columns returns the constrained columns in sorted order.
func (s Selection) Columns() []string {
	columns := make([]string, 0, len(s))

	for column, values := range s {
		if len(values) > 0 {
			columns = append(columns, column)
		}
	}

	sort.Strings(columns)

	return columns
}

// Filter returns the rows of collection that satisfy every column constraint
// in selection. Columns combine with AND, values within a column with OR.
// A row missing a constrained column does not match. The input is not modified.
func Filter(collection Collection, selection Selection) Collection {
	accepted := make(map[string]map[string]struct{}, len(selection))

	for column, values := range selection {
		if len(values) == 0 {
			continue
		}

		set := make(map[string]struct{}, len(values))
		for _, value := range values {
			set[value] = struct{}{}
		}

		accepted[column] = set
	}

	result := make(Collection, 0, len(collection))

	for _, record := range collection {
		if matches(record, accepted) {
			result = append(result, record)
		}
	}

	return result
}

func matches(record Record, accepted map[string]map[string]struct{}) bool {
	for column, set := range accepted {
		if !record.Has(column) {
			return false
		}

		if _, ok := set[record.Field(column)]; !ok {
			return false
		}
	}

	return true
}

// DistinctValues returns the distinct non-empty values of column in the order
// they first appear in collection.
func DistinctValues(collection Collection, column string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)

	for _, record := range collection {
		if !record.Has(column) {
			continue
		}

		value := record.Field(column)
		if value == "" {
			continue
		}

		if _, ok := seen[value]; ok {
			continue
		}

		seen[value] = struct{}{}
		values = append(values, value)
	}

	return values
}
