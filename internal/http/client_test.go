package http_test

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	copperhttp "github.com/copperhq/copper-client/internal/http"
	"github.com/copperhq/copper-client/pkg/cache"
)

var testCreds = &copperhttp.Credentials{
	Email: "user@example.com",
	Token: "test-token",
}

// MockLogger records log calls for assertions.
type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *MockLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *MockLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}

func (l *MockLogger) Debug(msg string, _ map[string]interface{}) { l.record(msg) }
func (l *MockLogger) Info(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *MockLogger) Warn(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *MockLogger) Error(msg string, _ map[string]interface{}) { l.record(msg) }

func TestClient_AuthHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		assert.Equal(t, "test-token", request.Header.Get("X-PW-AccessToken"))
		assert.Equal(t, "user@example.com", request.Header.Get("X-PW-UserEmail"))
		assert.Equal(t, "developer_api", request.Header.Get("X-PW-Application"))
		assert.Equal(t, "application/json", request.Header.Get("Accept"))

		writer.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds)

	resp, err := client.Get(context.Background(), "/people/1", nil)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotContentType string

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		gotMethod = request.Method
		gotPath = request.URL.Path
		gotContentType = request.Header.Get("Content-Type")

		writer.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds)
	ctx := context.Background()
	body := map[string]string{"name": "Ada"}

	_, err := client.Post(ctx, "/people", body)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.MethodPost, gotMethod)
	assert.Equal(t, "/people", gotPath)
	assert.Equal(t, "application/json", gotContentType)

	_, err = client.Put(ctx, "/people/1", body)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.MethodPut, gotMethod)

	_, err = client.Patch(ctx, "/people/1", body)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.MethodPatch, gotMethod)

	_, err = client.Delete(ctx, "/people/1")
	require.NoError(t, err)
	assert.Equal(t, stdhttp.MethodDelete, gotMethod)
	assert.Empty(t, gotContentType, "requests without a body carry no content type")
}

func TestClient_QueryAndBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		assert.Equal(t, "50", request.URL.Query().Get("page_size"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "Ada", body["name"])

		writer.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds)

	query := url.Values{}
	query.Set("page_size", "50")

	_, err := client.Do(context.Background(), &copperhttp.Request{
		Method: stdhttp.MethodPost,
		Path:   "/people/search",
		Query:  query,
		Body:   map[string]string{"name": "Ada"},
	})
	require.NoError(t, err)
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		writer.WriteHeader(stdhttp.StatusNotFound)
		_, _ = writer.Write([]byte(`{"message":"not found"}`))
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds)

	resp, err := client.Get(context.Background(), "/people/999", nil)
	require.Error(t, err)

	var apiErr *copperhttp.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, stdhttp.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "not found")

	// The response is returned alongside the error.
	require.NotNil(t, resp)
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		if attempts.Add(1) < 3 {
			writer.WriteHeader(stdhttp.StatusInternalServerError)

			return
		}

		writer.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds,
		copperhttp.WithRetryConfig(3, 10*time.Millisecond, 50*time.Millisecond))

	resp, err := client.Get(context.Background(), "/people", nil)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), attempts.Load())
}

func TestClient_RetriesRateLimits(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		if attempts.Add(1) == 1 {
			writer.WriteHeader(stdhttp.StatusTooManyRequests)

			return
		}

		writer.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds,
		copperhttp.WithRetryConfig(2, 10*time.Millisecond, 50*time.Millisecond))

	resp, err := client.Get(context.Background(), "/people", nil)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), attempts.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		attempts.Add(1)
		writer.WriteHeader(stdhttp.StatusBadRequest)
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds,
		copperhttp.WithRetryConfig(3, 10*time.Millisecond, 50*time.Millisecond))

	_, err := client.Get(context.Background(), "/people", nil)
	require.Error(t, err)
	assert.Equal(t, int64(1), attempts.Load())
}

func TestClient_CachesGETs(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		requests.Add(1)
		_, _ = writer.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds,
		copperhttp.WithCache(cache.NewMemoryCache(10), time.Minute))
	ctx := context.Background()

	first, err := client.Get(ctx, "/people/1", nil)
	require.NoError(t, err)

	second, err := client.Get(ctx, "/people/1", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), requests.Load(), "the second read must come from cache")
	assert.Equal(t, first.Body, second.Body)
}

func TestClient_MutationInvalidatesCache(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		if request.Method == stdhttp.MethodGet {
			requests.Add(1)
		}

		_, _ = writer.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds,
		copperhttp.WithCache(cache.NewMemoryCache(10), time.Minute))
	ctx := context.Background()

	_, err := client.Get(ctx, "/people/1", nil)
	require.NoError(t, err)

	_, err = client.Put(ctx, "/people/1", map[string]string{"name": "Ada"})
	require.NoError(t, err)

	// The write evicted the entry, so this read goes upstream again.
	_, err = client.Get(ctx, "/people/1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), requests.Load())
}

func TestClient_CacheKeyIncludesQuery(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		requests.Add(1)
		_, _ = writer.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds,
		copperhttp.WithCache(cache.NewMemoryCache(10), time.Minute))
	ctx := context.Background()

	_, err := client.Get(ctx, "/users", url.Values{"page": []string{"1"}})
	require.NoError(t, err)

	_, err = client.Get(ctx, "/users", url.Values{"page": []string{"2"}})
	require.NoError(t, err)

	assert.Equal(t, int64(2), requests.Load())
}

func TestClient_DebugLogging(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		writer.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	logger := &MockLogger{}
	client := copperhttp.NewClient(server.URL, testCreds,
		copperhttp.WithLogger(logger),
		copperhttp.WithDebug(true))

	_, err := client.Get(context.Background(), "/people", nil)
	require.NoError(t, err)

	messages := logger.Messages()
	assert.Contains(t, messages, "HTTP Request")
	assert.Contains(t, messages, "HTTP Response")
}

func TestClient_UserAgent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(stdhttp.HandlerFunc(func(writer stdhttp.ResponseWriter, request *stdhttp.Request) {
		assert.Equal(t, "copper-client-test/1.0", request.Header.Get("User-Agent"))
		writer.WriteHeader(stdhttp.StatusOK)
	}))
	defer server.Close()

	client := copperhttp.NewClient(server.URL, testCreds,
		copperhttp.WithUserAgent("copper-client-test/1.0"))

	_, err := client.Get(context.Background(), "/people", nil)
	require.NoError(t, err)
}
