//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/contamio/recallctl/pkg/recallclient"
	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	BaseURL    string
	APIKey     string
	AllowWrite bool
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	apiKey := os.Getenv("RECALLCTL_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv(constants.LegacyAPIKeyEnv)
	}

	baseURL := os.Getenv("RECALLCTL_BASE_URL")
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}

	return &TestConfig{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		AllowWrite: os.Getenv("RECALLCTL_INTEGRATION_WRITE") == "true",
		Verbose:    os.Getenv("RECALLCTL_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips the test when no API key is available.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.APIKey == "" {
		t.Skip("RECALLCTL_API_KEY not set, skipping integration test")
	}
}

// NewClient creates a client for the configured endpoint.
func (config *TestConfig) NewClient(t *testing.T) recall.Client {
	t.Helper()

	client, err := recallclient.New(context.Background(), &recall.Config{
		BaseURL: config.BaseURL,
		APIKey:  config.APIKey,
		Debug:   config.Verbose,
	})
	require.NoError(t, err)

	return client
}
