// Package web is the browser dashboard. Each browser gets its own session,
// identified by a cookie, driving the same shell as the terminal UI.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Static errors for err113 compliance.
var (
	ErrSessionFactoryRequired = errors.New("session factory is required")
)

// Config configures the dashboard server.
type Config struct {
	// Title is shown in the page header.
	Title string

	// MaxSessions bounds the number of live browser sessions.
	MaxSessions int

	// NewSession builds the session of a browser seen for the first time.
	NewSession SessionFactory

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger

	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

// Server is the dashboard HTTP server.
type Server struct {
	echo     *echo.Echo
	sessions *SessionStore
	title    string
	logger   *slog.Logger
	secure   bool
}

// New creates the server and registers its routes.
func New(config Config) (*Server, error) {
	if config.NewSession == nil {
		return nil, ErrSessionFactoryRequired
	}

	if config.MaxSessions <= 0 {
		config.MaxSessions = constants.DefaultMaxSessions
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	sessions, err := NewSessionStore(config.MaxSessions, config.NewSession)
	if err != nil {
		return nil, err
	}

	templates, err := newRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = templates

	server := &Server{
		echo:     e,
		sessions: sessions,
		title:    config.Title,
		logger:   config.Logger,
		secure:   config.SecureCookie,
	}

	e.Use(server.requestLogger())
	e.Use(middleware.Recover())

	e.GET("/", server.handleIndex)
	e.POST("/filter", server.handleFilter)
	e.POST("/select", server.handleSelect)
	e.POST("/update", server.handleUpdate)
	e.POST("/cancel", server.handleCancel)
	e.POST("/refresh", server.handleRefresh)
	e.GET("/healthz", server.handleHealth)
	e.GET("/debug/metrics", server.handleMetrics)

	return server, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Sessions returns the live session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes every session.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.InfoContext(ctx, "starting dashboard", "address", addr)

		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.sessions.Close()

		if ok {
			return fmt.Errorf("serving dashboard: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down dashboard")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	err := s.echo.Shutdown(shutdownCtx)

	s.sessions.Close()

	if err != nil {
		return fmt.Errorf("shutting down dashboard: %w", err)
	}

	return nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				s.logger.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				s.logger.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}

			return nil
		},
	})
}
