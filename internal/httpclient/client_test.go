package httpclient_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/nodesync/internal/httpclient"
)

// newTestServer creates a test server with keep-alives disabled so closing it
// does not disturb other parallel tests sharing the transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func TestDefaultClient_Get_Success(t *testing.T) {
	t.Parallel()

	var receivedUserAgent, receivedAccept, receivedMethod string
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUserAgent = r.Header.Get("User-Agent")
		receivedAccept = r.Header.Get("Accept")
		receivedMethod = r.Method
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(5 * time.Second)
	data, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, []byte(`{"data":[]}`), data)
	assert.Equal(t, httpclient.UserAgent, receivedUserAgent)
	assert.Equal(t, "application/json", receivedAccept)
	assert.Equal(t, http.MethodGet, receivedMethod)
}

func TestDefaultClient_Get_CustomUserAgent(t *testing.T) {
	t.Parallel()

	var receivedUserAgent string
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(0, httpclient.WithUserAgent("indexer/2"))
	_, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "indexer/2", receivedUserAgent)
}

func TestDefaultClient_Get_HTTPErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		responseBody  string
		errorContains string
	}{
		{name: "404", statusCode: http.StatusNotFound, responseBody: "Not Found", errorContains: "HTTP 404"},
		{name: "500", statusCode: http.StatusInternalServerError, responseBody: "boom", errorContains: "HTTP 500"},
		{name: "429", statusCode: http.StatusTooManyRequests, responseBody: "", errorContains: "Too Many Requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := httpclient.NewDefaultClient(5 * time.Second)
			_, err := client.Get(context.Background(), server.URL)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.Equal(t, tt.statusCode, httpclient.StatusCode(err))
		})
	}
}

func TestDefaultClient_Get_NetworkErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		url           string
		errorContains string
	}{
		{name: "invalid URL scheme", url: "://invalid-url", errorContains: "failed to create request"},
		{name: "unreachable host", url: "http://invalid-host-does-not-exist.local:9999", errorContains: "failed to execute request"},
		{name: "empty URL", url: "", errorContains: "failed to execute request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := httpclient.NewDefaultClient(5 * time.Second)
			_, err := client.Get(context.Background(), tt.url)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestDefaultClient_Get_Retries(t *testing.T) {
	t.Parallel()

	t.Run("recovers from transient server errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		client := httpclient.NewDefaultClient(5*time.Second, httpclient.WithRetries(3, time.Millisecond))
		data, err := client.Get(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, []byte("ok"), data)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := httpclient.NewDefaultClient(5*time.Second, httpclient.WithRetries(3, time.Millisecond))
		_, err := client.Get(context.Background(), server.URL)

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httpclient.StatusCode(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := httpclient.NewDefaultClient(5*time.Second, httpclient.WithRetries(2, time.Millisecond))
		_, err := client.Get(context.Background(), server.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestDefaultClient_Get_RateLimit(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(5*time.Second, httpclient.WithRateLimit(20))

	start := time.Now()
	for range 3 {
		_, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
	}
	// burst of one: the second and third requests wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestDefaultClient_Get_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(5*time.Second, httpclient.WithRetries(3, time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
}

func TestDefaultClient_Get_SizeLimitExceeded(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", 101*1024*1024))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(5 * time.Second)
	_, err := client.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum allowed size")
	assert.Contains(t, err.Error(), "100.00 MB")
}
