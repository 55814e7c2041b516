package recall

import (
	"context"
	"log/slog"
	"time"
)

// Client is the Recall entity API.
type Client interface {
	// List fetches the whole record collection.
	List(ctx context.Context) (Collection, error)
	// Get fetches a single record by id.
	Get(ctx context.Context, id string) (Record, error)
	// Update sends a partial update and returns the record the remote confirmed.
	Update(ctx context.Context, id string, payload UpdatePayload) (Record, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a recall.Client.
//
// Config is resolved once at startup and not modified afterwards.
// recallclient.New rejects a Config without an APIKey with a
// *ConfigurationError rather than letting every request fail remotely.
type Config struct {
	// BaseURL is the Recall entity collection URL. Records live at BaseURL/{id}.
	BaseURL string

	// APIKey is the static key attached to every request.
	APIKey string

	// APIKeyHeader names the header carrying APIKey. Defaults to "api_key".
	APIKeyHeader string

	// UserAgent is sent with every request when set.
	UserAgent string

	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration

	// RetryMax is the number of retries on 5xx and 429. Zero disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Logger receives request and response logs when Debug is set.
	Logger Logger
	Debug  bool
}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger uses slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogLogger{logger: logger}
}

// Debug implements Logger.
func (l *SlogLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, attrs(fields)...)
}

// Info implements Logger.
func (l *SlogLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, attrs(fields)...)
}

// Warn implements Logger.
func (l *SlogLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, attrs(fields)...)
}

// Error implements Logger.
func (l *SlogLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, attrs(fields)...)
}

func attrs(fields map[string]interface{}) []any {
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}

	return args
}

// MetricsProvider is implemented by clients that count their requests.
type MetricsProvider interface {
	Metrics() *MetricsCollector
}
