// Package http implements the transport used for every Copper API call:
// authentication headers, JSON codecs, retries with backoff, optional
// response caching for GETs and debug logging.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/copperhq/copper-client/internal/constants"
	"github.com/copperhq/copper-client/pkg/cache"
)

// APIError represents a non-success response from the API. It carries the
// HTTP status and the raw response body so callers can inspect both.
type APIError struct {
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Body       string `json:"body"        yaml:"body"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Logger is the logging interface the transport reports through.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoOpLogger discards all log output.
type NoOpLogger struct{}

// Debug does nothing.
func (l *NoOpLogger) Debug(_ string, _ map[string]interface{}) {}

// Info does nothing.
func (l *NoOpLogger) Info(_ string, _ map[string]interface{}) {}

// Warn does nothing.
func (l *NoOpLogger) Warn(_ string, _ map[string]interface{}) {}

// Error does nothing.
func (l *NoOpLogger) Error(_ string, _ map[string]interface{}) {}

// Credentials authenticate every request.
type Credentials struct {
	// Email is the account owner's email address.
	Email string

	// Token is the developer API token.
	Token string
}

// Request represents one API request. Metadata carries values between
// request and response interceptors.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     interface{}
	Headers  map[string]string
	Metadata map[string]interface{}
}

// Response represents one API response with its body fully read.
type Response struct {
	StatusCode int
	Headers    stdhttp.Header
	Body       []byte
}

// Client is the HTTP transport.
type Client struct {
	baseURL      string
	creds        *Credentials
	httpClient   *retryablehttp.Client
	logger       Logger
	debug        bool
	userAgent    string
	cache        cache.Cache
	cacheTTL     time.Duration
	interceptors *InterceptorChain
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
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

// WithRetryConfig tunes the retry policy.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithRequestInterceptor runs an interceptor before each request is sent.
func WithRequestInterceptor(interceptor RequestInterceptor) Option {
	return func(c *Client) {
		c.interceptors.AddRequestInterceptor(interceptor)
	}
}

// WithResponseInterceptor runs an interceptor after each response is
// received.
func WithResponseInterceptor(interceptor ResponseInterceptor) Option {
	return func(c *Client) {
		c.interceptors.AddResponseInterceptor(interceptor)
	}
}

// WithCache caches successful GET responses for ttl, keyed by URL.
func WithCache(responseCache cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = responseCache
		c.cacheTTL = ttl
	}
}

// NewClient creates a transport for the given base URL and credentials.
func NewClient(baseURL string, creds *Credentials, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.Logger = nil

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		creds:        creds,
		httpClient:   retryClient,
		logger:       &NoOpLogger{},
		cacheTTL:     constants.GetCacheTTL,
		interceptors: NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do executes one request. A non-2xx status returns both the response and an
// *APIError, so callers can branch on the status without re-reading the body.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.buildURL(req)

	cacheable := c.cache != nil && req.Method == stdhttp.MethodGet
	if cacheable {
		if entry, err := c.cache.Get(ctx, fullURL); err == nil {
			if c.debug {
				c.logger.Debug("HTTP Cache Hit", map[string]interface{}{"url": fullURL})
			}

			return &Response{StatusCode: stdhttp.StatusOK, Body: entry.Data}, nil
		}
	}

	// Interceptors run only for requests that actually hit the network, so
	// cache hits consume no rate limit tokens.
	if err := c.interceptors.ExecuteRequestInterceptors(ctx, req); err != nil {
		return nil, err
	}

	httpReq, err := c.newHTTPRequest(ctx, req, fullURL)
	if err != nil {
		return nil, err
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    fullURL,
		})
	}

	if err := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp); err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.updateCache(ctx, req, fullURL, resp)

	return resp, nil
}

// updateCache stores successful GETs and invalidates the URL's entry after a
// successful mutation, so stale reads never outlive a write the client made
// itself.
func (c *Client) updateCache(ctx context.Context, req *Request, fullURL string, resp *Response) {
	if c.cache == nil {
		return
	}

	switch req.Method {
	case stdhttp.MethodGet:
		_ = c.cache.Set(ctx, fullURL, &cache.Entry{
			Data:      resp.Body,
			ExpiresAt: time.Now().Add(c.cacheTTL),
			ETag:      resp.Headers.Get("ETag"),
		})
	case stdhttp.MethodPut, stdhttp.MethodDelete:
		_ = c.cache.Delete(ctx, fullURL)
	}
}

func (c *Client) buildURL(req *Request) string {
	fullURL := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")

	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	return fullURL
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request, fullURL string) (*retryablehttp.Request, error) {
	var bodyReader io.Reader

	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.creds != nil {
		httpReq.Header.Set("X-PW-AccessToken", c.creds.Token)
		httpReq.Header.Set("X-PW-UserEmail", c.creds.Email)
		httpReq.Header.Set("X-PW-Application", constants.ApplicationHeader)
	}

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	return httpReq, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: stdhttp.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: stdhttp.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: stdhttp.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: stdhttp.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: stdhttp.MethodDelete, Path: path})
}
