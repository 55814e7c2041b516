package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	recallhttp "github.com/contamio/recallctl/internal/http"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/entities/Recall/r-1", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "test-key", request.Header.Get("api_key"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			response := map[string]string{"id": "r-1", "title": "Brake hose"}
			_ = json.NewEncoder(writer).Encode(response)
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL+"/entities/Recall", "test-key")

		req := &recallhttp.Request{
			Method: "GET",
			Path:   "/r-1",
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		assert.Equal(t, "r-1", result["id"])
		assert.Equal(t, "Brake hose", result["title"])
	})

	t.Run("base URL trailing slash is trimmed", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/entities/Recall", request.URL.Path)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL+"/entities/Recall/", "")
		assert.Equal(t, server.URL+"/entities/Recall", client.BaseURL())

		_, err := client.Get(context.Background(), "")
		require.NoError(t, err)
	})

	t.Run("custom API key header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "secret", request.Header.Get("X-Api-Key"))
			assert.Empty(t, request.Header.Get("api_key"))
			assert.Equal(t, "recallctl/test", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL, "secret",
			recallhttp.WithAPIKeyHeader("X-Api-Key"),
			recallhttp.WithUserAgent("recallctl/test"),
		)

		_, err := client.Get(context.Background(), "")
		require.NoError(t, err)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "PUT", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "closed", body["status"])

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL, "")

		req := &recallhttp.Request{
			Method: "PUT",
			Path:   "/r-1",
			Body:   map[string]string{"status": "closed"},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message":"Entity not found"}`))
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL, "")

		req := &recallhttp.Request{
			Method: "GET",
			Path:   "/missing",
		}

		resp, err := client.Do(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, 404, resp.StatusCode)

		var apiErr *recall.RemoteAPIError

		ok := errors.As(err, &apiErr)
		require.True(t, ok)
		assert.Equal(t, 404, apiErr.StatusCode)
		assert.Equal(t, "GET", apiErr.Method)
		assert.Equal(t, server.URL+"/missing", apiErr.URL)
		assert.Contains(t, apiErr.Body, "Entity not found")
		assert.True(t, recall.IsNotFound(err))
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
		serverURL := server.URL
		server.Close()

		client := recallhttp.NewClient(serverURL, "")

		resp, err := client.Get(context.Background(), "")
		require.Error(t, err)
		assert.Nil(t, resp)
		_, isRemote := recall.IsRemoteAPIError(err)
		assert.False(t, isRemote)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL, "")

		req := &recallhttp.Request{
			Method: "GET",
			Path:   "/recalls",
			Headers: map[string]string{
				"X-Custom-Header": "custom-value",
			},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := recallhttp.NewClient(server.URL, "secret", recallhttp.WithLogger(logger), recallhttp.WithDebug(true))

		req := &recallhttp.Request{
			Method: "GET",
			Path:   "/recalls",
		}

		_, err := client.Do(context.Background(), req)
		require.NoError(t, err)

		// Should have logged request and response
		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})

	t.Run("interceptors observe every call", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "yes", request.Header.Get("X-Intercepted"))

			if request.URL.Path == "/broken" {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		collector := recall.NewMetricsCollector()
		chain := recall.NewInterceptorChain()
		chain.AddRequestInterceptor(func(ctx context.Context, req *recall.Request) error {
			req.Headers.Set("X-Intercepted", "yes")

			return nil
		})
		collector.Use(chain)

		client := recallhttp.NewClient(server.URL, "", recallhttp.WithInterceptors(chain))

		_, err := client.Get(context.Background(), "")
		require.NoError(t, err)
		_, err = client.Get(context.Background(), "")
		require.NoError(t, err)
		_, err = client.Get(context.Background(), "/broken")
		require.Error(t, err)

		assert.Equal(t, int64(3), collector.TotalRequests())
		assert.Equal(t, int64(2), collector.GetMetrics("GET ").TotalRequests)

		broken := collector.GetMetrics("GET /broken")
		require.NotNil(t, broken)
		assert.Equal(t, int64(1), broken.TotalErrors)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*recallhttp.Client, context.Context) (*recallhttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *recallhttp.Client, ctx context.Context) (*recallhttp.Response, error) {
				return c.Get(ctx, "/test")
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *recallhttp.Client, ctx context.Context) (*recallhttp.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := recallhttp.NewClient(server.URL, "")
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("no retries by default", func(t *testing.T) {
		t.Parallel()

		attempts := 0

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts++

			writer.WriteHeader(http.StatusInternalServerError)
			_, _ = writer.Write([]byte("boom"))
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL, "")

		resp, err := client.Get(context.Background(), "")
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, "boom", string(resp.Body))
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		attempts := 0

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts++
			if attempts < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL, "", recallhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, 3, attempts)
	})

	t.Run("retries on rate limiting", func(t *testing.T) {
		t.Parallel()

		attempts := 0

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts++
			if attempts < 2 {
				writer.WriteHeader(http.StatusTooManyRequests)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL, "", recallhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, 2, attempts)
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		attempts := 0

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts++

			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := recallhttp.NewClient(server.URL, "", recallhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test")
		require.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, 1, attempts) // Should not retry
	})
}
