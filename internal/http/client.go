// Package http is the transport used by the Recall API client. It attaches
// the static API key, encodes JSON bodies, and turns non-2xx responses into
// *recall.RemoteAPIError.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/hashicorp/go-retryablehttp"
)

// Logger interface for transport logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Client performs requests against one base resource URL.
type Client struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	userAgent    string
	httpClient   *retryablehttp.Client
	logger       Logger
	debug        bool
	interceptors *recall.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// Request describes one call relative to the base URL.
type Request struct {
	Method  string
	Path    string
	Body    interface{}
	Headers map[string]string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAPIKeyHeader overrides the header name carrying the API key.
func WithAPIKeyHeader(header string) Option {
	return func(c *Client) {
		if header != "" {
			c.apiKeyHeader = header
		}
	}
}

// WithTimeout bounds a single HTTP exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithRetryConfig enables retries on 5xx and 429 responses.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *recall.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a transport for baseURL. An empty apiKey is sent as an
// empty header and left for the remote to reject.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		apiKeyHeader: constants.DefaultAPIKeyHeader,
		httpClient:   retryClient,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the resource URL requests are relative to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req. A non-2xx status returns both the response and a
// *recall.RemoteAPIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.baseURL + req.Path

	var body []byte

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		body = encoded
	}

	intercepted := &recall.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: make(http.Header),
		Body:    body,
	}

	if c.interceptors != nil {
		err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	httpReq, err := c.newRequest(ctx, req, intercepted, fullURL, body)
	if err != nil {
		return nil, err
	}

	c.logRequest(req.Method, fullURL)

	resp, err := c.execute(httpReq)

	if c.interceptors != nil {
		interceptedResp := &recall.Response{Error: err}
		if resp != nil {
			interceptedResp.StatusCode = resp.StatusCode
			interceptedResp.Headers = resp.Headers
			interceptedResp.Body = resp.Body
		}

		interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, interceptedResp)
		if interceptErr != nil && err == nil {
			err = interceptErr
		}
	}

	if err != nil {
		return resp, err
	}

	c.logResponse(req.Method, fullURL, resp.StatusCode)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, &recall.RemoteAPIError{
			Method:     req.Method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}

	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, req *Request, intercepted *recall.Request, fullURL string, body []byte) (*retryablehttp.Request, error) {
	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(c.apiKeyHeader, c.apiKey)

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	for key, values := range intercepted.Headers {
		for _, value := range values {
			httpReq.Header.Set(key, value)
		}
	}

	return httpReq, nil
}

func (c *Client) execute(httpReq *retryablehttp.Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		return nil, fmt.Errorf("%s %s: %w", httpReq.Method, httpReq.URL.Redacted(), err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) logRequest(method, fullURL string) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Request", map[string]interface{}{
		"method": method,
		"url":    fullURL,
	})
}

func (c *Client) logResponse(method, fullURL string, status int) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method": method,
		"url":    fullURL,
		"status": status,
	})
}
