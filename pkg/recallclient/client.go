package recallclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/contamio/recallctl/internal/client"
	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/pkg/recall"
)

// New creates a Recall API client. The caller's config is not modified.
func New(ctx context.Context, config *recall.Config) (recall.Client, error) {
	if config == nil {
		return nil, recall.ErrConfigRequired
	}

	resolved := *config
	resolved.APIKey = strings.TrimSpace(resolved.APIKey)

	if resolved.APIKey == "" {
		return nil, &recall.ConfigurationError{
			Key:    "api_key",
			Reason: fmt.Sprintf("not set (use the config file, RECALLCTL_API_KEY or %s)", constants.LegacyAPIKeyEnv),
		}
	}

	resolved.BaseURL = normalizeBaseURL(resolved.BaseURL)

	if resolved.APIKeyHeader == "" {
		resolved.APIKeyHeader = constants.DefaultAPIKeyHeader
	}

	if resolved.UserAgent == "" {
		resolved.UserAgent = constants.DefaultUserAgent
	}

	if resolved.Timeout <= 0 {
		resolved.Timeout = constants.DefaultHTTPTimeout
	}

	recallClient, err := client.New(ctx, &resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return recallClient, nil
}

// NewWithAPIKey creates a client for the default entity URL.
func NewWithAPIKey(ctx context.Context, apiKey string) (recall.Client, error) {
	return New(ctx, &recall.Config{
		APIKey: apiKey,
	})
}

// normalizeBaseURL defaults an empty URL and adds https:// to a bare host.
func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return constants.DefaultBaseURL
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}
