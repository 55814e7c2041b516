package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Remote API defaults.
const (
	// DefaultBaseURL is the Recall entity collection of the hosted backend.
	DefaultBaseURL = "https://app.base44.com/api/apps/6809148e298bbd9cf45ed5fa/entities/Recall"

	// DefaultAPIKeyHeader is the header the hosted backend reads the API key from.
	DefaultAPIKeyHeader = "api_key"

	// LegacyAPIKeyEnv is the environment variable the original dashboard read.
	LegacyAPIKeyEnv = "BASE44_API_KEY"

	// DefaultUserAgent identifies the CLI to the remote API.
	DefaultUserAgent = "recallctl"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the dashboard server.
	ShutdownTimeout = 10 * time.Second
)

// Retry limits. Retries are off unless configured.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Cache limits.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultNATSBucket is the JetStream KV bucket used by the NATS cache.
	DefaultNATSBucket = "recallctl-cache"
)

// Dashboard server defaults.
const (
	// DefaultServeAddr is the default listen address of the dashboard.
	DefaultServeAddr = ":8501"

	// DefaultMaxSessions bounds the number of live dashboard sessions.
	DefaultMaxSessions = 256

	// SessionCookieName is the cookie carrying the dashboard session id.
	SessionCookieName = "recall_session"
)

// Output formats.
const (
	// OutputFormatTable renders tables.
	OutputFormatTable = "table"

	// OutputFormatJSON renders indented JSON.
	OutputFormatJSON = "json"

	// OutputFormatYAML renders YAML.
	OutputFormatYAML = "yaml"

	// JSONIndentSize is the number of spaces for JSON and YAML indentation.
	JSONIndentSize = 2
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// TitleTruncationLimit caps titles in table output.
	TitleTruncationLimit = 48

	// CorrectiveActionTruncationLimit caps corrective actions in table output.
	CorrectiveActionTruncationLimit = 40
)
