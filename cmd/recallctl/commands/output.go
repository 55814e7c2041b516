package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/internal/display"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// outputFormat returns the configured output format.
func outputFormat() (string, error) {
	output := viper.GetString("output")

	switch output {
	case "", constants.OutputFormatTable:
		return constants.OutputFormatTable, nil
	case constants.OutputFormatJSON, constants.OutputFormatYAML:
		return output, nil
	default:
		return "", fmt.Errorf("%w: %s (use table, json or yaml)", constants.ErrInvalidOutputFormat, output)
	}
}

// render writes data as JSON or YAML, or calls table for table output.
func render(w io.Writer, data interface{}, table func() error) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	switch format {
	case constants.OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(data)
	case constants.OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(constants.JSONIndentSize)

		defer func() {
			_ = encoder.Close()
		}()

		return encoder.Encode(data)
	default:
		return table()
	}
}

func renderRecords(w io.Writer, records recall.Collection, total int) error {
	return render(w, records, func() error {
		if len(records) == 0 {
			_, _ = fmt.Fprintln(w, "No recalls found")

			return nil
		}

		table := tablewriter.NewWriter(w)
		table.Header(display.Headers)

		for _, record := range records {
			row := display.Row(record)
			row[4] = colorStatus(record.Status(), row[4])
			_ = table.Append(row)
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		_, _ = fmt.Fprintf(w, "%d of %d recalls\n", len(records), total)

		return nil
	})
}

// renderRecord shows the consumed fields first, then every other field
// sorted by name.
func renderRecord(w io.Writer, record recall.Record) error {
	return render(w, record, func() error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		known := []string{
			recall.FieldID, recall.FieldTitle, recall.FieldRegion,
			recall.FieldSeverity, recall.FieldStatus, recall.FieldCorrectiveAction,
		}

		for _, field := range known {
			value := record.Field(field)
			if value == "" {
				value = constants.NotAvailable
			}

			if field == recall.FieldStatus {
				value = colorStatus(record.Status(), value)
			}

			_ = table.Append([]string{field, value})
		}

		extra := make([]string, 0, len(record))
		for field := range record {
			if !slices.Contains(known, field) {
				extra = append(extra, field)
			}
		}

		sort.Strings(extra)

		for _, field := range extra {
			_ = table.Append([]string{field, record.Field(field)})
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	})
}

func colorStatus(status recall.Status, text string) string {
	switch status {
	case recall.StatusOpen:
		return color.New(color.FgRed, color.Bold).Sprint(text)
	case recall.StatusInProgress:
		return color.New(color.FgYellow).Sprint(text)
	case recall.StatusResolved:
		return color.New(color.FgGreen).Sprint(text)
	case recall.StatusClosed:
		return color.New(color.Faint).Sprint(text)
	default:
		return text
	}
}

// PrintError writes err to w in red, with a hint for errors the user can fix.
func PrintError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %v\n", err)

	var configErr *recall.ConfigurationError

	switch {
	case errors.As(err, &configErr) && configErr.Key == keyAPIKey:
		_, _ = color.New(color.FgCyan).Fprintln(w, "  Suggestion: run 'recallctl config set-key'")
	case errors.As(err, &configErr):
		_, _ = color.New(color.FgCyan).Fprintf(w, "  Suggestion: run 'recallctl config set %s VALUE'\n", configErr.Key)
	case recall.IsUnauthorized(err):
		_, _ = color.New(color.FgCyan).Fprintln(w, "  Suggestion: check the API key with 'recallctl config show'")
	}
}
