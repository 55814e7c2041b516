package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/internal/session"
	"github.com/contamio/recallctl/internal/tui"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const dashboardTitle = "Recall Management Dashboard"

// NewTUICommand creates the interactive terminal UI command.
func NewTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit recalls interactively",
		Long: `Open the interactive dashboard in the terminal: filter the table by region
and severity, pick a recall and update its status and corrective action.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return constants.ErrNotATerminal
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Logs would corrupt the alternate screen.
			logger := slog.New(slog.DiscardHandler)

			client, err := createClient(ctx, logger)
			if err != nil {
				return err
			}

			caches, err := newCacheFactory(logger)
			if err != nil {
				return err
			}
			defer caches.Close()

			cache, release, err := caches.New(uuid.NewString())
			if err != nil {
				return err
			}
			defer release()

			caching := session.NewCachingClient(client, cache, baseURLOf(client), recall.NewSlogLogger(logger))

			return tui.Run(ctx, session.NewShell(caching), dashboardTitle)
		},
	}
}
