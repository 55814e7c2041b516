package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/contamio/recallctl/internal/session"
	"github.com/contamio/recallctl/internal/web"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewServeCommand creates the browser dashboard command.
func NewServeCommand() *cobra.Command {
	var secureCookie bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser dashboard",
		Long: `Serve the recall dashboard over HTTP. Every browser gets its own session
with its own filters and cached results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := newLogger(slog.LevelInfo)
			config := loadConfig()

			client, err := createClient(ctx, logger)
			if err != nil {
				return err
			}

			caches, err := newCacheFactory(logger)
			if err != nil {
				return err
			}
			defer caches.Close()

			baseURL := baseURLOf(client)
			recallLogger := recall.NewSlogLogger(logger)

			server, err := web.New(web.Config{
				Title:        dashboardTitle,
				MaxSessions:  config.Serve.MaxSessions,
				Logger:       logger,
				SecureCookie: secureCookie,
				NewSession: func(_ context.Context, id string) (*web.Session, error) {
					cache, release, err := caches.New(id)
					if err != nil {
						return nil, err
					}

					caching := session.NewCachingClient(client, cache, baseURL, recallLogger)

					return web.NewSession(id, caching, release), nil
				},
			})
			if err != nil {
				return err
			}

			return server.ListenAndServe(ctx, config.Serve.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8501)")
	cmd.Flags().Int("max-sessions", 0, "maximum number of live browser sessions")
	cmd.Flags().BoolVar(&secureCookie, "secure-cookie", false, "mark the session cookie Secure (serve behind TLS)")

	_ = viper.BindPFlag(keyServeAddr, cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag(keyServeMaxSession, cmd.Flags().Lookup("max-sessions"))

	return cmd
}
