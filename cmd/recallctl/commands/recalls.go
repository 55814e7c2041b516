package commands

import (
	"fmt"
	"log/slog"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/internal/session"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		regions    []string
		severities []string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recalls",
		Long:    "List recall records, optionally filtered by region and severity. Repeated values of one flag match any of them.",
		Example: `  recallctl list
  recallctl list --region EU --region US --severity high
  recallctl list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(slog.LevelWarn)

			client, err := createClient(cmd.Context(), logger)
			if err != nil {
				return err
			}

			records, err := client.List(cmd.Context())
			if err != nil {
				return err
			}

			reportMetrics(logger, client)

			selection := recall.Selection{}.
				With(recall.FieldRegion, regions).
				With(recall.FieldSeverity, severities)

			return renderRecords(cmd.OutOrStdout(), recall.Filter(records, selection), len(records))
		},
	}

	cmd.Flags().StringSliceVar(&regions, "region", nil, "only show recalls in these regions")
	cmd.Flags().StringSliceVar(&severities, "severity", nil, "only show recalls with these severities")

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a recall",
		Long:  "Display every field of a single recall record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(slog.LevelWarn)

			client, err := createClient(cmd.Context(), logger)
			if err != nil {
				return err
			}

			record, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			reportMetrics(logger, client)

			return renderRecord(cmd.OutOrStdout(), record)
		},
	}
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var (
		status           string
		correctiveAction string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a recall",
		Long:  "Change the status and/or the corrective action of a recall. Only the fields given are sent.",
		Example: `  recallctl update 42 --status in_progress
  recallctl update 42 --status closed --corrective-action "Replaced hose"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := recall.UpdatePayload{}

			if cmd.Flags().Changed("status") {
				parsed, err := recall.ParseStatus(status)
				if err != nil {
					return err
				}

				payload.Status = parsed
			}

			if cmd.Flags().Changed("corrective-action") {
				payload.CorrectiveAction = &correctiveAction
			}

			if payload.Status == "" && payload.CorrectiveAction == nil {
				return constants.ErrNothingToUpdate
			}

			logger := newLogger(slog.LevelWarn)

			client, err := createClient(cmd.Context(), logger)
			if err != nil {
				return err
			}

			record, err := client.Update(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}

			reportMetrics(logger, client)

			format, err := outputFormat()
			if err != nil {
				return err
			}

			if format == constants.OutputFormatTable {
				_, _ = color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), session.UpdatedNotice)
			}

			return renderRecord(cmd.OutOrStdout(), record)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", fmt.Sprintf("new status (%s)", statusList()))
	cmd.Flags().StringVar(&correctiveAction, "corrective-action", "", "new corrective action text")

	return cmd
}

func statusList() string {
	list := ""

	for index, status := range recall.Statuses() {
		if index > 0 {
			list += ", "
		}

		list += string(status)
	}

	return list
}
