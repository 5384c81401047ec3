package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is used when a non-positive timeout is given
	DefaultTimeout = 30 * time.Second

	// UserAgent is sent with every request
	UserAgent = "nodesync/1.0"

	// MaxResponseSize is the largest response body accepted (100 MB)
	MaxResponseSize = 100 * 1024 * 1024

	defaultRetryInterval = 500 * time.Millisecond
	maxRetryInterval     = 10 * time.Second
)

// DefaultClient is a Client with optional retries and client-side rate limiting.
type DefaultClient struct {
	httpClient    *http.Client
	userAgent     string
	maxRetries    uint
	retryInterval time.Duration
	limiter       *rate.Limiter
}

var _ Client = (*DefaultClient)(nil)

// Option configures a DefaultClient.
type Option func(*DefaultClient)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *DefaultClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRetries retries transient failures (network errors, 5xx, 429) up to
// maxRetries times with exponential backoff starting at initial.
func WithRetries(maxRetries uint, initial time.Duration) Option {
	return func(c *DefaultClient) {
		c.maxRetries = maxRetries
		if initial > 0 {
			c.retryInterval = initial
		}
	}
}

// WithRateLimit caps outgoing requests to rps per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *DefaultClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewDefaultClient creates a client with the given request timeout.
func NewDefaultClient(timeout time.Duration, opts ...Option) *DefaultClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &DefaultClient{
		httpClient:    &http.Client{Timeout: timeout},
		userAgent:     UserAgent,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url, retrying transient failures when configured.
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		data, err := c.get(ctx, url)
		if err == nil {
			return data, nil
		}
		if !isRetryable(ctx, err) {
			return nil, backoff.Permanent(err)
		}
		if attempt <= int(c.maxRetries) {
			slog.Debug("Retrying request", "url", url, "attempt", attempt, "error", err)
		}
		return nil, err
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.retryInterval
	expBackoff.MaxInterval = maxRetryInterval

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithMaxElapsedTime(0),
	)
}

func (c *DefaultClient) get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &requestError{err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close response body", "url", url, "error", closeErr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		message := string(body)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, NewHTTPError(resp.StatusCode, url, message)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, sizeError(resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, &requestError{err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if len(data) > MaxResponseSize {
		return nil, sizeError(int64(len(data)))
	}

	return data, nil
}

// requestError marks transport failures, which are worth retrying.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	var reqErr *requestError
	return errors.As(err, &reqErr)
}

func sizeError(size int64) error {
	return fmt.Errorf("response size %d bytes exceeds maximum allowed size of %.2f MB",
		size, float64(MaxResponseSize)/(1024*1024))
}
