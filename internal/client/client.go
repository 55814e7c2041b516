package client

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/internal/http"
	"github.com/contamio/recallctl/pkg/recall"
)

// Static errors for err113 compliance.
var (
	ErrInvalidBaseURL = errors.New("base URL must be an absolute http(s) URL")
)

// Client implements recall.Client against the entity API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     recall.Logger
	metrics    *recall.MetricsCollector
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *recall.Config, chain *recall.InterceptorChain) []http.Option {
	httpOpts := []http.Option{
		http.WithInterceptors(chain),
		http.WithAPIKeyHeader(config.APIKeyHeader),
		http.WithTimeout(config.Timeout),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a Recall API client. An empty BaseURL uses the default entity
// URL. The API key is not checked here; recallclient.New enforces it.
func New(ctx context.Context, config *recall.Config) (*Client, error) {
	if config == nil {
		return nil, recall.ErrConfigRequired
	}

	baseURL, err := normalizeBaseURL(config.BaseURL)
	if err != nil {
		return nil, err
	}

	metrics := recall.NewMetricsCollector()
	chain := recall.NewInterceptorChain()
	metrics.Use(chain)

	if config.Logger != nil {
		if config.Debug {
			chain.AddRequestInterceptor(recall.LoggingInterceptor(config.Logger))
		}

		chain.AddResponseInterceptor(recall.LoggingResponseInterceptor(config.Logger))
	}

	httpClient := http.NewClient(baseURL, config.APIKey, createHTTPClientOptions(config, chain)...)

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     config.Logger,
		metrics:    metrics,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = constants.DefaultBaseURL
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", &recall.ConfigurationError{Key: "base_url", Reason: ErrInvalidBaseURL.Error() + ": " + raw}
	}

	return strings.TrimSuffix(raw, "/"), nil
}

// BaseURL returns the entity collection URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Metrics returns the per-endpoint request counters.
func (c *Client) Metrics() *recall.MetricsCollector {
	return c.metrics
}

// recordPath is the path of one record relative to the base URL.
func recordPath(id string) string {
	return "/" + url.PathEscape(id)
}
