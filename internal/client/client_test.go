package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contamio/recallctl/internal/client"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, _ map[string]interface{}) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.record(msg) }

func (l *recordingLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}

func TestNew_Headers(t *testing.T) {
	t.Parallel()

	t.Run("default header and content type", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.Header.Get("api_key"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))

			_ = json.NewEncoder(w).Encode([]map[string]any{})
		}))
		defer server.Close()

		recallClient, err := client.New(context.Background(), &recall.Config{
			BaseURL: server.URL,
			APIKey:  "secret",
		})
		require.NoError(t, err)

		_, err = recallClient.List(context.Background())
		require.NoError(t, err)
	})

	t.Run("custom header and user agent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
			assert.Empty(t, r.Header.Get("api_key"))
			assert.Equal(t, "recallctl/test", r.Header.Get("User-Agent"))

			_ = json.NewEncoder(w).Encode([]map[string]any{})
		}))
		defer server.Close()

		recallClient, err := client.New(context.Background(), &recall.Config{
			BaseURL:      server.URL,
			APIKey:       "secret",
			APIKeyHeader: "X-Api-Key",
			UserAgent:    "recallctl/test",
		})
		require.NoError(t, err)

		_, err = recallClient.List(context.Background())
		require.NoError(t, err)
	})
}

func TestNew_Retries(t *testing.T) {
	t.Parallel()

	newFlakyServer := func(failures int32) (*httptest.Server, *atomic.Int32) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= failures {
				w.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "r-1"}})
		}))

		return server, &calls
	}

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()

		server, calls := newFlakyServer(1)
		defer server.Close()

		recallClient, err := client.New(context.Background(), &recall.Config{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = recallClient.List(context.Background())
		require.Error(t, err)

		apiErr, ok := recall.IsRemoteAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries server errors when enabled", func(t *testing.T) {
		t.Parallel()

		server, calls := newFlakyServer(2)
		defer server.Close()

		recallClient, err := client.New(context.Background(), &recall.Config{
			BaseURL:      server.URL,
			RetryMax:     2,
			RetryWaitMin: time.Millisecond,
			RetryWaitMax: time.Millisecond,
		})
		require.NoError(t, err)

		records, err := recallClient.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"r-1"}, records.IDs())
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestNew_DebugLogging(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))
	t.Cleanup(server.Close)

	t.Run("debug logs requests", func(t *testing.T) {
		t.Parallel()

		logger := &recordingLogger{}

		recallClient, err := client.New(context.Background(), &recall.Config{
			BaseURL: server.URL,
			Logger:  logger,
			Debug:   true,
		})
		require.NoError(t, err)

		_, err = recallClient.List(context.Background())
		require.NoError(t, err)

		messages := logger.Messages()
		assert.Contains(t, messages, "API Request")
		assert.Contains(t, messages, "HTTP Request")
		assert.Contains(t, messages, "HTTP Response")
		assert.Contains(t, messages, "API Response")
	})

	t.Run("without debug only responses are logged", func(t *testing.T) {
		t.Parallel()

		logger := &recordingLogger{}

		recallClient, err := client.New(context.Background(), &recall.Config{
			BaseURL: server.URL,
			Logger:  logger,
		})
		require.NoError(t, err)

		_, err = recallClient.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"API Response"}, logger.Messages())
	})
}
